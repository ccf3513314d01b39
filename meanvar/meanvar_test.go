package meanvar

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rainali475/kidneyde/expr"
)

func TestLowessRecoversLine(t *testing.T) {
	// A local linear fit through collinear points reproduces the line
	// exactly, whatever the weights.
	x := make([]float64, 50)
	y := make([]float64, 50)
	for i := range x {
		x[i] = float64(i) / 10
		y[i] = 2*x[i] - 3
	}

	fitted := lowess(x, y, 0.3)
	for i := range y {
		if math.Abs(fitted[i]-y[i]) > 1e-9 {
			t.Fatalf("point %d: fitted %v, want %v", i, fitted[i], y[i])
		}
	}
}

func TestLowessSmoothsNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 200
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i) / 20
		y[i] = x[i] + rng.NormFloat64()
	}

	fitted := lowess(x, y, 0.5)

	var rawSS, fitSS float64
	for i := range y {
		rawSS += (y[i] - x[i]) * (y[i] - x[i])
		fitSS += (fitted[i] - x[i]) * (fitted[i] - x[i])
	}
	if fitSS >= rawSS {
		t.Errorf("fit did not reduce deviation from the trend: raw %v, fitted %v", rawSS, fitSS)
	}
}

func mkMatrix(t *testing.T, genes []string, values [][]float64) *expr.Matrix {
	t.Helper()
	samples := make([]string, len(values[0]))
	for j := range samples {
		samples[j] = "S" + string(rune('A'+j))
	}
	m, err := expr.NewMatrix(genes, samples, values)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestProfilesDegenerate(t *testing.T) {
	one := mkMatrix(t, []string{"G1", "G2"}, [][]float64{{1}, {2}})
	if _, err := Profiles(one, DefaultSpan); !errors.Is(err, expr.ErrDegenerateInput) {
		t.Errorf("single sample: got %v, want ErrDegenerateInput", err)
	}

	constant := mkMatrix(t, []string{"G1", "G2"}, [][]float64{{1, 2, 3}, {5, 5, 5}})
	if _, err := Profiles(constant, DefaultSpan); !errors.Is(err, expr.ErrDegenerateInput) {
		t.Errorf("constant gene: got %v, want ErrDegenerateInput", err)
	}
}

func TestProfilesHyperVariance(t *testing.T) {
	// With many genes whose log2 variance is an exact linear function of
	// log2 mean, the trend fit is exact and every hyper-variance collapses
	// to variance / expected variance = 1.
	nGenes := 40
	genes := make([]string, nGenes)
	values := make([][]float64, nGenes)
	for i := range genes {
		genes[i] = "G" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		mean := float64(i + 2)
		sd := mean / 10 // log2(var) = 2*log2(mean) - 2*log2(10)
		values[i] = []float64{mean - sd, mean, mean + sd}
	}
	m := mkMatrix(t, genes, values)

	profiles, err := Profiles(m, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range profiles {
		if math.Abs(p.HyperVariance-1) > 1e-6 {
			t.Errorf("gene %s: hyper-variance %v, want 1", p.Gene, p.HyperVariance)
		}
		if want := math.Sqrt(p.Variance); math.Abs(p.ExpectedSD-want) > 1e-6*want {
			t.Errorf("gene %s: expected SD %v, want %v", p.Gene, p.ExpectedSD, want)
		}
	}
}

func TestTopKAscendingAndStable(t *testing.T) {
	profiles := []Profile{
		{Gene: "HIGH", HyperVariance: 9},
		{Gene: "B", HyperVariance: 1},
		{Gene: "A", HyperVariance: 1},
		{Gene: "MID", HyperVariance: 3},
	}

	got := TopK(profiles, 2)
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("got %v, want [A B]", got)
	}

	// Repeated calls select the identical set.
	for i := 0; i < 5; i++ {
		again := TopK(profiles, 2)
		for j := range got {
			if again[j] != got[j] {
				t.Fatalf("run %d: got %v, want %v", i, again, got)
			}
		}
	}

	if all := TopK(profiles, 100); len(all) != 4 {
		t.Errorf("k beyond gene count: got %d genes, want 4", len(all))
	}
}

func TestSelectDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	nGenes, nSamples := 60, 12
	genes := make([]string, nGenes)
	values := make([][]float64, nGenes)
	for i := range genes {
		genes[i] = "ENSG" + string(rune('A'+i%26)) + string(rune('A'+(i/26)%26))
		if i >= 52 {
			genes[i] += "X"
		}
		row := make([]float64, nSamples)
		base := rng.Float64()*100 + 1
		for j := range row {
			row[j] = base + rng.NormFloat64()*base/8
			if row[j] < 0 {
				row[j] = 0
			}
		}
		values[i] = row
	}

	samples := make([]string, nSamples)
	for j := range samples {
		samples[j] = "S" + string(rune('A'+j))
	}
	m, err := expr.NewMatrix(genes, samples, values)
	if err != nil {
		t.Fatal(err)
	}

	first, _, err := Select(m, 20, DefaultSpan)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Select(m, 20, DefaultSpan)
	if err != nil {
		t.Fatal(err)
	}

	if first.NGenes() != 20 {
		t.Fatalf("selected %d genes, want 20", first.NGenes())
	}
	for i := range first.Genes {
		if first.Genes[i] != second.Genes[i] {
			t.Fatalf("selection differs between runs: %v vs %v", first.Genes, second.Genes)
		}
	}
}
