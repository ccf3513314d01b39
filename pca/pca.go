// Package pca computes a standardized principal component decomposition of a
// sample-by-gene expression matrix.
package pca

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rainali475/kidneyde/expr"
)

// Result holds per-sample component scores and the proportion of total
// variance explained by each component, ordered by descending explained
// variance. The proportions sum to 1.
type Result struct {
	SampleIDs []string

	// Scores is samples x components.
	Scores *mat.Dense

	// ExplainedVariance[k] is the proportion of total variance carried by
	// component k.
	ExplainedVariance []float64
}

// NComponents returns the number of components in the decomposition.
func (r *Result) NComponents() int {
	_, c := r.Scores.Dims()
	return c
}

// Analyze transposes the gene-by-sample matrix to samples x genes,
// standardizes each gene to zero mean and unit variance, and decomposes the
// standardized matrix into principal components. Fewer than 2 samples, or a
// gene that is constant across samples, is degenerate input.
func Analyze(m *expr.Matrix) (*Result, error) {
	nSamples, nGenes := m.NSamples(), m.NGenes()
	if nSamples < 2 {
		return nil, pfx.Err(fmt.Errorf("%w: PCA needs at least 2 samples, have %d", expr.ErrDegenerateInput, nSamples))
	}
	if nGenes < 1 {
		return nil, pfx.Err(fmt.Errorf("%w: PCA needs at least 1 gene", expr.ErrDegenerateInput))
	}

	// Transposed and standardized: rows are samples, columns are genes.
	std := mat.NewDense(nSamples, nGenes, nil)
	for i, row := range m.Values {
		mean, variance := stat.MeanVariance(row, nil)
		if variance == 0 {
			return nil, pfx.Err(fmt.Errorf("%w: gene %q is constant across samples", expr.ErrDegenerateInput, m.Genes[i]))
		}
		sd := math.Sqrt(variance)
		for j, v := range row {
			std.Set(j, i, (v-mean)/sd)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(std, nil); !ok {
		return nil, pfx.Err(fmt.Errorf("%w: principal component decomposition failed", expr.ErrDegenerateInput))
	}

	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	if total == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: no variance to decompose", expr.ErrDegenerateInput))
	}
	explained := make([]float64, len(vars))
	for k, v := range vars {
		explained[k] = v / total
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)

	var scores mat.Dense
	scores.Mul(std, &vectors)

	return &Result{
		SampleIDs:         append([]string(nil), m.Samples...),
		Scores:            &scores,
		ExplainedVariance: explained,
	}, nil
}
