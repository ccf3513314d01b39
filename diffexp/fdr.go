package diffexp

import "sort"

// BenjaminiHochberg applies the Benjamini-Hochberg step-up false discovery
// rate correction to a set of p-values and returns the adjusted values in the
// input order. Adjusted values are non-decreasing when the raw p-values are
// sorted ascending.
func BenjaminiHochberg(pvals []float64) []float64 {
	n := len(pvals)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return pvals[order[i]] < pvals[order[j]] })

	adjusted := make([]float64, n)
	running := 1.0
	for i := n - 1; i >= 0; i-- {
		idx := order[i]
		adj := pvals[idx] * float64(n) / float64(i+1)
		if adj > 1 {
			adj = 1
		}
		if adj < running {
			running = adj
		}
		adjusted[idx] = running
	}

	return adjusted
}
