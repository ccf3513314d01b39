// kidneyde fetches an RNA-seq study from a recount-style catalog, restricts
// it to one tissue subsite with one sample per subject, normalizes counts to
// FPKM, selects genes by mean-adjusted variance rank, and reports principal
// component structure and sex-associated differential expression.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"

	"github.com/rainali475/kidneyde/pipeline"
	"github.com/rainali475/kidneyde/recount"
)

func main() {
	var (
		baseURL string
		outDir  string
		plots   bool
		timeout time.Duration
		retries int
	)

	cfg := pipeline.DefaultConfig()

	flag.StringVar(&baseURL, "base-url", "", "Base URL of the recount-style data catalog (required).")
	flag.StringVar(&cfg.Study, "study", cfg.Study, "Catalog study identifier.")
	flag.StringVar(&cfg.TissueSubsite, "tissue", cfg.TissueSubsite, "Tissue subsite whose samples are retained.")
	flag.IntVar(&cfg.TopKGenes, "topk", cfg.TopKGenes, "Number of genes retained after hyper-variance ranking.")
	flag.Float64Var(&cfg.Span, "span", cfg.Span, "Window fraction of the mean-variance trend fit.")
	flag.StringVar(&cfg.FDRMethod, "fdr-method", cfg.FDRMethod, "Multiple-testing correction (only 'bh').")
	flag.StringVar(&cfg.TestAlternative, "alternative", cfg.TestAlternative, "Test alternative (only 'two-sided').")
	flag.IntVar(&cfg.Workers, "workers", 0, "Concurrent per-gene tests; 0 uses one per CPU.")
	flag.StringVar(&outDir, "out", "results", "Directory for output tables and plots.")
	flag.BoolVar(&plots, "plots", true, "Render PCA and mean-variance plots to PNG.")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall fetch deadline.")
	flag.IntVar(&retries, "retries", 3, "Attempts per catalog request.")
	flag.Parse()

	if baseURL == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalln(err)
	}

	client := recount.NewClient(baseURL)
	client.MaxAttempts = retries

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := pipeline.Run(ctx, client, cfg)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("[writing output tables]")
	if err := writeOutputs(outDir, res); err != nil {
		log.Fatalln(err)
	}

	if plots {
		log.Println("[rendering plots]")
		if err := plotPCAScores(filepath.Join(outDir, "pca_scores.png"), res); err != nil {
			log.Fatalln(err)
		}
		if err := plotMeanVarianceTrend(filepath.Join(outDir, "meanvar_trend.png"), res.Profiles); err != nil {
			log.Fatalln(err)
		}
	}

	printSummary(res)
}

func printSummary(res *pipeline.Results) {
	pvals := make([]float64, len(res.Differential))
	significant := 0
	for i, r := range res.Differential {
		pvals[i] = r.PValue
		if r.FDR < 0.05 {
			significant++
		}
	}

	fmt.Printf("\n%d samples, %d genes tested, %d significant at FDR < 0.05\n",
		len(res.Metadata), len(res.Differential), significant)

	for k, v := range res.PCA.ExplainedVariance {
		if k >= 5 {
			break
		}
		fmt.Printf("PC%d explains %.1f%% of variance\n", k+1, 100*v)
	}

	if q, err := stats.Quartile(pvals); err == nil {
		fmt.Printf("raw p-value quartiles: %.4f / %.4f / %.4f\n", q.Q1, q.Q2, q.Q3)
	}

	fmt.Println("\nraw p-value distribution:")
	hist := histogram.Hist(10, pvals)
	if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(40)); err != nil {
		log.Println(err)
	}

	fmt.Println("\ntop genes by FDR:")
	for i, r := range res.Differential {
		if i >= 10 {
			break
		}
		fmt.Printf("%-20s U=%8.1f p=%.3g FDR=%.3g logFC=%+.2f\n",
			r.Gene, r.Statistic, r.PValue, r.FDR, r.Log2FoldChange)
	}
}
