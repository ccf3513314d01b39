package meanvar

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// lowess fits a locally weighted linear regression of y on x and returns the
// fitted value at every x, in input order. span is the fraction of points in
// each local window (tricube-weighted, nearest neighbors by |x - x0|). The
// fit is deterministic for fixed input.
func lowess(x, y []float64, span float64) []float64 {
	n := len(x)
	window := int(math.Ceil(span * float64(n)))
	if window < 2 {
		window = 2
	}
	if window > n {
		window = n
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return x[order[i]] < x[order[j]] })

	xs := make([]float64, n)
	ys := make([]float64, n)
	for k, i := range order {
		xs[k] = x[i]
		ys[k] = y[i]
	}

	fitted := make([]float64, n)
	lo := 0
	for k := 0; k < n; k++ {
		x0 := xs[k]

		// Slide the window of nearest neighbors along the sorted xs.
		for lo+window < n && xs[lo+window]-x0 < x0-xs[lo] {
			lo++
		}
		wx := xs[lo : lo+window]
		wy := ys[lo : lo+window]

		maxDist := math.Max(x0-wx[0], wx[len(wx)-1]-x0)
		weights := make([]float64, len(wx))
		for i, xv := range wx {
			weights[i] = tricube(xv-x0, maxDist)
		}

		alpha, beta := stat.LinearRegression(wx, wy, weights, false)
		if math.IsNaN(alpha) || math.IsNaN(beta) {
			// Degenerate window (all x identical): fall back to the weighted
			// mean of the window.
			fitted[k] = stat.Mean(wy, weights)
			continue
		}
		fitted[k] = alpha + beta*x0
	}

	out := make([]float64, n)
	for k, i := range order {
		out[i] = fitted[k]
	}
	return out
}

func tricube(d, maxDist float64) float64 {
	if maxDist <= 0 {
		return 1
	}
	u := math.Abs(d) / maxDist
	if u >= 1 {
		return 0
	}
	c := 1 - u*u*u
	return c * c * c
}
