// Package meanvar ranks genes by how far their variance departs from the
// variance expected at their expression level. Highly expressed genes
// intrinsically show larger raw variance, so the raw variance is normalized
// against a smooth trend of log2(variance) on log2(mean) before ranking.
package meanvar

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/stat"

	"github.com/rainali475/kidneyde/expr"
)

// DefaultSpan is the fraction of genes in each local regression window of the
// mean-variance trend fit.
const DefaultSpan = 0.3

// Profile describes one gene's place in the mean-variance structure of the
// matrix. HyperVariance is the sum of squared trend-normalized residuals
// divided by (n samples - 1).
type Profile struct {
	Gene          string  `csv:"gene"`
	Mean          float64 `csv:"mean"`
	Variance      float64 `csv:"variance"`
	ExpectedSD    float64 `csv:"expected_sd"`
	HyperVariance float64 `csv:"hyper_variance"`
}

// Profiles computes the mean-variance profile of every gene in m. The matrix
// must already have zero-variance genes removed; a constant gene here, or
// fewer than 2 samples, is degenerate input.
func Profiles(m *expr.Matrix, span float64) ([]Profile, error) {
	n := m.NSamples()
	if n < 2 {
		return nil, pfx.Err(fmt.Errorf("%w: mean-variance fit needs at least 2 samples, have %d", expr.ErrDegenerateInput, n))
	}
	if m.NGenes() < 2 {
		return nil, pfx.Err(fmt.Errorf("%w: mean-variance fit needs at least 2 genes, have %d", expr.ErrDegenerateInput, m.NGenes()))
	}

	profiles := make([]Profile, m.NGenes())
	logMean := make([]float64, m.NGenes())
	logVar := make([]float64, m.NGenes())

	for i, row := range m.Values {
		mean, variance := stat.MeanVariance(row, nil)
		if variance == 0 {
			return nil, pfx.Err(fmt.Errorf("%w: gene %q has zero variance", expr.ErrDegenerateInput, m.Genes[i]))
		}
		profiles[i] = Profile{Gene: m.Genes[i], Mean: mean, Variance: variance}
		logMean[i] = math.Log2(mean)
		logVar[i] = math.Log2(variance)
	}

	fittedLogVar := lowess(logMean, logVar, span)

	for i := range profiles {
		expectedSD := math.Sqrt(math.Exp2(fittedLogVar[i]))
		profiles[i].ExpectedSD = expectedSD

		var ss float64
		for _, v := range m.Values[i] {
			r := (v - profiles[i].Mean) / expectedSD
			ss += r * r
		}
		profiles[i].HyperVariance = ss / float64(n-1)
	}

	return profiles, nil
}

// TopK returns the identifiers of the K genes with the smallest
// hyper-variance, i.e. the first K after sorting ascending. Ties are broken
// by gene identifier so that repeated runs select an identical set. If k
// exceeds the number of genes, all genes are returned.
func TopK(profiles []Profile, k int) []string {
	ranked := make([]Profile, len(profiles))
	copy(ranked, profiles)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].HyperVariance != ranked[j].HyperVariance {
			return ranked[i].HyperVariance < ranked[j].HyperVariance
		}
		return ranked[i].Gene < ranked[j].Gene
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	genes := make([]string, k)
	for i := 0; i < k; i++ {
		genes[i] = ranked[i].Gene
	}
	return genes
}

// Select computes the profiles of m and returns the matrix restricted to the
// top-K genes along with the full profile table.
func Select(m *expr.Matrix, k int, span float64) (*expr.Matrix, []Profile, error) {
	profiles, err := Profiles(m, span)
	if err != nil {
		return nil, nil, err
	}

	selected, err := m.SubsetGenes(TopK(profiles, k))
	if err != nil {
		return nil, nil, err
	}

	return selected, profiles, nil
}
