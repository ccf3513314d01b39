package pipeline

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rainali475/kidneyde/expr"
	"github.com/rainali475/kidneyde/recount"
)

type fakeFetcher struct {
	ds  *recount.Dataset
	err error
}

func (f *fakeFetcher) FetchStudy(ctx context.Context, study string) (*recount.Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ds, nil
}

// syntheticDataset builds 24 kidney samples (half cortex, half medulla, with
// one repeat subject) across 40 genes, one of which is silent everywhere.
func syntheticDataset(t *testing.T) *recount.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(99))

	const nSamples = 24
	md := make(expr.Metadata, 0, nSamples)
	for j := 0; j < nSamples; j++ {
		subsite := "Kidney - Cortex"
		if j%2 == 1 {
			subsite = "Kidney - Medulla"
		}
		sex := "1"
		if j%4 < 2 {
			sex = "2"
		}
		md = append(md, expr.Sample{
			SampleID:      "S" + string(rune('A'+j)),
			SubjectID:     "P" + string(rune('A'+j)),
			AgeBracket:    "50-59",
			Sex:           sex,
			TissueSubsite: subsite,
		})
	}
	// A second cortex sample for subject PA; dedup must drop it.
	md = append(md, expr.Sample{
		SampleID:      "SDUP",
		SubjectID:     "PA",
		AgeBracket:    "50-59",
		Sex:           "2",
		TissueSubsite: "Kidney - Cortex",
	})

	genes := make([]string, 40)
	lengths := make(map[string]float64, len(genes))
	values := make([][]float64, len(genes))
	for i := range genes {
		genes[i] = "G" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		lengths[genes[i]] = 1000 + float64(i)*50
		row := make([]float64, len(md))
		for j := range row {
			row[j] = math.Floor(rng.Float64()*200) + 50
			if i == 39 {
				row[j] = 0 // silent gene: constant zero FPKM in every sample
			}
		}
		values[i] = row
	}

	samples := md.SampleIDs()
	counts, err := expr.NewMatrix(genes, samples, values)
	if err != nil {
		t.Fatal(err)
	}

	return &recount.Dataset{Counts: counts, Metadata: md, GeneLengths: lengths}
}

func TestRunEndToEnd(t *testing.T) {
	ds := syntheticDataset(t)
	cfg := DefaultConfig()
	cfg.TopKGenes = 20
	cfg.Span = 0.5
	cfg.Workers = 2

	res, err := Run(context.Background(), &fakeFetcher{ds: ds}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 12 cortex samples, minus the duplicate subject's second sample.
	if len(res.Metadata) != 12 {
		t.Fatalf("retained %d samples, want 12", len(res.Metadata))
	}
	subjects := make(map[string]int)
	for _, s := range res.Metadata {
		subjects[s.SubjectID]++
		if s.TissueSubsite != DefaultTissueSubsite {
			t.Errorf("sample %q has subsite %q", s.SampleID, s.TissueSubsite)
		}
		if s.Sex != expr.SexMale && s.Sex != expr.SexFemale {
			t.Errorf("sample %q has unrecoded sex %q", s.SampleID, s.Sex)
		}
	}
	for subject, n := range subjects {
		if n != 1 {
			t.Errorf("subject %q retained %d samples, want 1", subject, n)
		}
	}

	// Matrix columns equal the metadata sample sequence, element for element.
	for j, want := range res.Metadata.SampleIDs() {
		if res.FPKM.Samples[j] != want {
			t.Errorf("column %d: %q, want %q", j, res.FPKM.Samples[j], want)
		}
	}

	if res.FPKM.NGenes() != cfg.TopKGenes {
		t.Errorf("selected %d genes, want %d", res.FPKM.NGenes(), cfg.TopKGenes)
	}

	// The constant gene must not survive to any output table.
	for _, p := range res.Profiles {
		if p.Gene == "GNb" {
			t.Errorf("constant gene appears in the variance profile")
		}
		if p.Variance == 0 {
			t.Errorf("gene %q has zero variance after filtering", p.Gene)
		}
	}
	for _, r := range res.Differential {
		if r.Gene == "GNb" {
			t.Errorf("constant gene appears in differential results")
		}
	}

	var sum float64
	for _, v := range res.PCA.ExplainedVariance {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("explained variance proportions sum to %v, want 1", sum)
	}

	for i := 1; i < len(res.Differential); i++ {
		if res.Differential[i].FDR < res.Differential[i-1].FDR {
			t.Errorf("differential results not sorted by ascending FDR")
		}
	}
}

func TestRunPropagatesFetchError(t *testing.T) {
	cfg := DefaultConfig()
	f := &fakeFetcher{err: expr.ErrDataUnavailable}

	if _, err := Run(context.Background(), f, cfg); !errors.Is(err, expr.ErrDataUnavailable) {
		t.Errorf("got %v, want ErrDataUnavailable", err)
	}
}

func TestConfigValidation(t *testing.T) {
	type expectation struct {
		Mutate func(*Config)
	}

	for _, v := range []expectation{
		{func(c *Config) { c.Study = "" }},
		{func(c *Config) { c.TissueSubsite = "" }},
		{func(c *Config) { c.TopKGenes = 0 }},
		{func(c *Config) { c.Span = 0 }},
		{func(c *Config) { c.Span = 1.5 }},
		{func(c *Config) { c.FDRMethod = "bonferroni" }},
		{func(c *Config) { c.TestAlternative = "greater" }},
	} {
		cfg := DefaultConfig()
		v.Mutate(&cfg)
		if _, err := Run(context.Background(), &fakeFetcher{}, cfg); err == nil {
			t.Errorf("config %+v: expected validation error", cfg)
		}
	}
}

func TestRunNoMatchingTissue(t *testing.T) {
	ds := syntheticDataset(t)
	cfg := DefaultConfig()
	cfg.TissueSubsite = "Liver"

	if _, err := Run(context.Background(), &fakeFetcher{ds: ds}, cfg); !errors.Is(err, expr.ErrDegenerateInput) {
		t.Errorf("got %v, want ErrDegenerateInput", err)
	}
}
