package expr

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
)

// FPKM converts a raw count matrix to fragments per kilobase of transcript
// per million mapped reads:
//
//	FPKM[g,s] = count[g,s] * 1e9 / (length_bp[g] * librarySize[s])
//
// where librarySize is the per-sample column sum of raw counts. Gene lengths
// are in base pairs. Counts must be finite and non-negative and every gene
// must have a positive length.
func FPKM(counts *Matrix, lengthsBP map[string]float64) (*Matrix, error) {
	lengths := make([]float64, len(counts.Genes))
	for i, g := range counts.Genes {
		l, ok := lengthsBP[g]
		if !ok || l <= 0 {
			return nil, pfx.Err(fmt.Errorf("%w: gene %q has no positive length annotation", ErrInvalidInput, g))
		}
		lengths[i] = l
	}

	librarySize := make([]float64, counts.NSamples())
	for i, row := range counts.Values {
		for j, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, pfx.Err(fmt.Errorf("%w: gene %q sample %q has count %v", ErrInvalidInput, counts.Genes[i], counts.Samples[j], v))
			}
			librarySize[j] += v
		}
	}
	for j, size := range librarySize {
		if size <= 0 {
			return nil, pfx.Err(fmt.Errorf("%w: sample %q has zero library size", ErrInvalidInput, counts.Samples[j]))
		}
	}

	values := make([][]float64, len(counts.Values))
	for i, row := range counts.Values {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = v * 1e9 / (lengths[i] * librarySize[j])
		}
		values[i] = out
	}

	return &Matrix{Genes: counts.Genes, Samples: counts.Samples, Values: values}, nil
}
