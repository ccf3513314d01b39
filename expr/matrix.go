// Package expr holds the expression-matrix and sample-metadata types shared
// by the analysis stages, along with the transforms that restrict a dataset
// to one tissue subsite with one sample per subject.
package expr

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
)

// Matrix is a gene-by-sample expression matrix. Rows are genes, columns are
// samples. Gene identifiers are unique row keys; every sample identifier must
// have a corresponding record in the accompanying Metadata.
type Matrix struct {
	Genes   []string
	Samples []string

	// Values[i][j] is the value for gene Genes[i] in sample Samples[j].
	Values [][]float64
}

// NewMatrix validates the shape of the inputs and returns a Matrix.
func NewMatrix(genes, samples []string, values [][]float64) (*Matrix, error) {
	if len(values) != len(genes) {
		return nil, pfx.Err(fmt.Errorf("%w: %d genes but %d value rows", ErrInvalidInput, len(genes), len(values)))
	}

	seen := make(map[string]struct{}, len(genes))
	for i, g := range genes {
		if _, dup := seen[g]; dup {
			return nil, pfx.Err(fmt.Errorf("%w: duplicate gene identifier %q", ErrInvalidInput, g))
		}
		seen[g] = struct{}{}

		if len(values[i]) != len(samples) {
			return nil, pfx.Err(fmt.Errorf("%w: gene %q has %d values but there are %d samples", ErrInvalidInput, g, len(values[i]), len(samples)))
		}
	}

	return &Matrix{Genes: genes, Samples: samples, Values: values}, nil
}

// NGenes returns the number of gene rows.
func (m *Matrix) NGenes() int { return len(m.Genes) }

// NSamples returns the number of sample columns.
func (m *Matrix) NSamples() int { return len(m.Samples) }

// Row returns the values for one gene, or nil if the gene is absent.
func (m *Matrix) Row(gene string) []float64 {
	for i, g := range m.Genes {
		if g == gene {
			return m.Values[i]
		}
	}
	return nil
}

// SampleIndex maps each sample identifier to its column position.
func (m *Matrix) SampleIndex() map[string]int {
	idx := make(map[string]int, len(m.Samples))
	for j, s := range m.Samples {
		idx[s] = j
	}
	return idx
}

// SubsetGenes returns a matrix restricted to the named genes, in the given
// order. Rows are shared with the receiver, not copied.
func (m *Matrix) SubsetGenes(genes []string) (*Matrix, error) {
	rowIdx := make(map[string]int, len(m.Genes))
	for i, g := range m.Genes {
		rowIdx[g] = i
	}

	values := make([][]float64, 0, len(genes))
	for _, g := range genes {
		i, ok := rowIdx[g]
		if !ok {
			return nil, pfx.Err(fmt.Errorf("%w: gene %q not present in matrix", ErrInvalidInput, g))
		}
		values = append(values, m.Values[i])
	}

	return &Matrix{Genes: genes, Samples: m.Samples, Values: values}, nil
}

// Log2Plus1 returns a new matrix with every value x replaced by log2(x+1).
func (m *Matrix) Log2Plus1() *Matrix {
	values := make([][]float64, len(m.Values))
	for i, row := range m.Values {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = math.Log2(v + 1)
		}
		values[i] = out
	}
	return &Matrix{Genes: m.Genes, Samples: m.Samples, Values: values}
}

// Align subsets and reorders the matrix columns so that they exactly match
// the sample identifier sequence of the metadata. Any metadata sample with no
// matching column is an alignment failure.
func Align(m *Matrix, md Metadata) (*Matrix, error) {
	colIdx := m.SampleIndex()

	samples := make([]string, len(md))
	cols := make([]int, len(md))
	for i, s := range md {
		j, ok := colIdx[s.SampleID]
		if !ok {
			return nil, pfx.Err(fmt.Errorf("%w: sample %q has no matrix column", ErrAlignment, s.SampleID))
		}
		samples[i] = s.SampleID
		cols[i] = j
	}

	values := make([][]float64, len(m.Values))
	for i, row := range m.Values {
		out := make([]float64, len(cols))
		for k, j := range cols {
			out[k] = row[j]
		}
		values[i] = out
	}

	return &Matrix{Genes: m.Genes, Samples: samples, Values: values}, nil
}
