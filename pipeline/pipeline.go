// Package pipeline sequences the analysis stages: fetch, FPKM normalization,
// sample and gene filtering, principal component decomposition, and
// differential expression testing. Each stage fully materializes its output
// before the next begins, and every error halts the run.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/carbocation/pfx"

	"github.com/rainali475/kidneyde/diffexp"
	"github.com/rainali475/kidneyde/expr"
	"github.com/rainali475/kidneyde/meanvar"
	"github.com/rainali475/kidneyde/pca"
	"github.com/rainali475/kidneyde/recount"
)

// Supported option values.
const (
	FDRMethodBH          = "bh"
	AlternativeTwoSided  = "two-sided"
	DefaultStudy         = "KIDNEY"
	DefaultTissueSubsite = "Kidney - Cortex"
	DefaultTopKGenes     = 5000
)

// Config carries the named options of the reference run. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	// Study is the catalog study identifier.
	Study string

	// TissueSubsite is the single subsite whose samples are retained.
	TissueSubsite string

	// TopKGenes is the number of genes kept after ranking ascending by
	// hyper-variance.
	TopKGenes int

	// Span is the window fraction of the mean-variance trend fit.
	Span float64

	// FDRMethod and TestAlternative name the correction and test
	// alternative; only "bh" and "two-sided" are supported.
	FDRMethod       string
	TestAlternative string

	// Workers bounds the per-gene test concurrency; <= 0 means one per CPU.
	Workers int
}

// DefaultConfig returns the configuration of the reference run.
func DefaultConfig() Config {
	return Config{
		Study:           DefaultStudy,
		TissueSubsite:   DefaultTissueSubsite,
		TopKGenes:       DefaultTopKGenes,
		Span:            meanvar.DefaultSpan,
		FDRMethod:       FDRMethodBH,
		TestAlternative: AlternativeTwoSided,
	}
}

func (c Config) validate() error {
	if c.Study == "" {
		return fmt.Errorf("study must be set")
	}
	if c.TissueSubsite == "" {
		return fmt.Errorf("tissue subsite must be set")
	}
	if c.TopKGenes < 1 {
		return fmt.Errorf("top-K gene count must be positive, got %d", c.TopKGenes)
	}
	if c.Span <= 0 || c.Span > 1 {
		return fmt.Errorf("span must be in (0, 1], got %v", c.Span)
	}
	if c.FDRMethod != FDRMethodBH {
		return fmt.Errorf("unsupported FDR method %q", c.FDRMethod)
	}
	if c.TestAlternative != AlternativeTwoSided {
		return fmt.Errorf("unsupported test alternative %q", c.TestAlternative)
	}
	return nil
}

// Fetcher is the data acquisition capability the pipeline depends on.
// *recount.Client satisfies it.
type Fetcher interface {
	FetchStudy(ctx context.Context, study string) (*recount.Dataset, error)
}

// Results bundles every stage's output surface.
type Results struct {
	// Metadata holds the retained samples, recoded and deduplicated, in the
	// order of the matrix columns.
	Metadata expr.Metadata

	// FPKM is the normalized matrix restricted to the retained samples and
	// the selected top-K genes.
	FPKM *expr.Matrix

	// Profiles is the mean-variance table of every gene that survived the
	// zero-variance filter.
	Profiles []meanvar.Profile

	// PCA is the decomposition of the standardized log2(FPKM+1) matrix of
	// the selected genes.
	PCA *pca.Result

	// Differential has one row per selected gene, sorted by ascending FDR.
	Differential []diffexp.Result
}

// Run executes the full pipeline for one study.
func Run(ctx context.Context, fetcher Fetcher, cfg Config) (*Results, error) {
	if err := cfg.validate(); err != nil {
		return nil, pfx.Err(err)
	}

	log.Printf("[fetching study %s]", cfg.Study)
	ds, err := fetcher.FetchStudy(ctx, cfg.Study)
	if err != nil {
		return nil, err
	}
	log.Printf("fetched %d genes x %d samples", ds.Counts.NGenes(), ds.Counts.NSamples())

	log.Println("[normalizing counts to FPKM]")
	fpkm, err := expr.FPKM(ds.Counts, ds.GeneLengths)
	if err != nil {
		return nil, err
	}

	log.Println("[filtering samples]")
	md, err := expr.RecodeSex(ds.Metadata)
	if err != nil {
		return nil, err
	}
	md = md.FilterTissue(cfg.TissueSubsite).DedupSubjects()
	if len(md) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: no samples with tissue subsite %q", expr.ErrDegenerateInput, cfg.TissueSubsite))
	}
	log.Printf("retained %d samples with subsite %q", len(md), cfg.TissueSubsite)

	aligned, err := expr.Align(fpkm, md)
	if err != nil {
		return nil, err
	}

	log.Println("[filtering genes]")
	nonZero := expr.DropZeroVariance(aligned)
	log.Printf("dropped %d zero-variance genes, %d remain", aligned.NGenes()-nonZero.NGenes(), nonZero.NGenes())

	selected, profiles, err := meanvar.Select(nonZero, cfg.TopKGenes, cfg.Span)
	if err != nil {
		return nil, err
	}
	log.Printf("selected %d genes by hyper-variance rank", selected.NGenes())

	log.Println("[decomposing principal components]")
	pcaResult, err := pca.Analyze(selected.Log2Plus1())
	if err != nil {
		return nil, err
	}

	log.Println("[testing differential expression]")
	differential, err := diffexp.Run(selected, md, cfg.Workers)
	if err != nil {
		return nil, err
	}
	diffexp.SortByFDR(differential)

	return &Results{
		Metadata:     md,
		FPKM:         selected,
		Profiles:     profiles,
		PCA:          pcaResult,
		Differential: differential,
	}, nil
}
