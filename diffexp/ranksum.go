package diffexp

import (
	"math"
	"sort"
)

// RankSum runs a two-sided two-sample rank-sum test comparing the
// distributions of a and b. Ties receive mid-ranks. The statistic is the
// Mann-Whitney U of group a; the p-value comes from the normal approximation
// with a 0.5 continuity correction and no tie adjustment of the variance.
// The result is a deterministic function of the data.
func RankSum(a, b []float64) (u, p float64) {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return 0, 1
	}

	type entry struct {
		val    float64
		groupA bool
	}
	combined := make([]entry, 0, n1+n2)
	for _, v := range a {
		combined = append(combined, entry{val: v, groupA: true})
	}
	for _, v := range b {
		combined = append(combined, entry{val: v})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].val < combined[j].val })

	// Mid-ranks for ties.
	n := len(combined)
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && combined[j].val == combined[i].val {
			j++
		}
		midRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[k] = midRank
		}
		i = j
	}

	var rankSumA float64
	for i, e := range combined {
		if e.groupA {
			rankSumA += ranks[i]
		}
	}

	f1, f2 := float64(n1), float64(n2)
	u = rankSumA - f1*(f1+1)/2

	mu := f1 * f2 / 2
	sigma := math.Sqrt(f1 * f2 * (f1 + f2 + 1) / 12)
	if sigma == 0 {
		return u, 1
	}

	// Continuity correction toward the mean.
	d := u - mu
	switch {
	case d > 0.5:
		d -= 0.5
	case d < -0.5:
		d += 0.5
	default:
		d = 0
	}

	p = 2 * normCDF(-math.Abs(d)/sigma)
	if p > 1 {
		p = 1
	}
	return u, p
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
