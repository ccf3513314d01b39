// Package diffexp tests each gene of an expression matrix for a
// distributional difference between female and male samples, corrects the
// p-values for multiple testing, and reports effect sizes as log2 fold
// changes.
package diffexp

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/stat"

	"github.com/rainali475/kidneyde/expr"
)

// Result is the differential expression outcome for one gene.
// Log2FoldChange is the female mean minus the male mean of log2(FPKM+1), so
// a gene expressed predominantly in female samples has a positive value.
type Result struct {
	Gene           string  `csv:"gene"`
	Statistic      float64 `csv:"statistic"`
	PValue         float64 `csv:"pvalue"`
	FDR            float64 `csv:"fdr"`
	Log2FoldChange float64 `csv:"log_fc"`
}

// Run tests every gene of the FPKM matrix, with sample groups taken from the
// metadata sex labels. The metadata must already be aligned to the matrix
// columns. Each gene's test is independent, so the loop is spread over
// workers goroutines; results come back keyed by gene and ordered as in the
// matrix, so concurrency does not change observable output. workers <= 0
// means one worker per CPU.
func Run(fpkm *expr.Matrix, md expr.Metadata, workers int) ([]Result, error) {
	if len(md) != fpkm.NSamples() {
		return nil, pfx.Err(fmt.Errorf("%w: metadata has %d samples but matrix has %d columns", expr.ErrAlignment, len(md), fpkm.NSamples()))
	}
	for j, s := range md {
		if fpkm.Samples[j] != s.SampleID {
			return nil, pfx.Err(fmt.Errorf("%w: column %d is %q but metadata row is %q", expr.ErrAlignment, j, fpkm.Samples[j], s.SampleID))
		}
	}

	female, male := md.SplitBySex()
	if len(female) == 0 || len(male) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: need samples of both sexes, have %d female and %d male", expr.ErrDegenerateInput, len(female), len(male)))
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, fpkm.NGenes())

	var wg sync.WaitGroup
	rows := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				results[i] = testGene(fpkm.Genes[i], fpkm.Values[i], female, male)
			}
		}()
	}
	for i := range fpkm.Values {
		rows <- i
	}
	close(rows)
	wg.Wait()

	pvals := make([]float64, len(results))
	for i, r := range results {
		pvals[i] = r.PValue
	}
	for i, adj := range BenjaminiHochberg(pvals) {
		results[i].FDR = adj
	}

	return results, nil
}

func testGene(gene string, row []float64, female, male []int) Result {
	fvals := make([]float64, len(female))
	for k, j := range female {
		fvals[k] = row[j]
	}
	mvals := make([]float64, len(male))
	for k, j := range male {
		mvals[k] = row[j]
	}

	u, p := RankSum(fvals, mvals)

	for k, v := range fvals {
		fvals[k] = math.Log2(v + 1)
	}
	for k, v := range mvals {
		mvals[k] = math.Log2(v + 1)
	}
	logFC := stat.Mean(fvals, nil) - stat.Mean(mvals, nil)

	return Result{Gene: gene, Statistic: u, PValue: p, Log2FoldChange: logFC}
}

// SortByFDR orders results by ascending adjusted p-value, breaking ties by
// descending absolute fold change and then by gene identifier.
func SortByFDR(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].FDR != results[j].FDR {
			return results[i].FDR < results[j].FDR
		}
		if a, b := math.Abs(results[i].Log2FoldChange), math.Abs(results[j].Log2FoldChange); a != b {
			return a > b
		}
		return results[i].Gene < results[j].Gene
	})
}
