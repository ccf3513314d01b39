package expr

import (
	"github.com/carbocation/runningvariance"
)

// DropZeroVariance removes any gene whose values are constant across the
// retained samples. A constant gene carries no distributional information and
// breaks the downstream standardization and rank test.
func DropZeroVariance(m *Matrix) *Matrix {
	genes := make([]string, 0, len(m.Genes))
	values := make([][]float64, 0, len(m.Values))

	for i, row := range m.Values {
		rs := runningvariance.NewRunningStat()
		for _, v := range row {
			rs.Push(v)
		}
		if rs.StandardDeviation() == 0 {
			continue
		}
		genes = append(genes, m.Genes[i])
		values = append(values, row)
	}

	return &Matrix{Genes: genes, Samples: m.Samples, Values: values}
}
