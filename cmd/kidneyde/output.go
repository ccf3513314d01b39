package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/rainali475/kidneyde/expr"
	"github.com/rainali475/kidneyde/pipeline"
)

func writeOutputs(outDir string, res *pipeline.Results) error {
	if err := writeMatrix(filepath.Join(outDir, "fpkm.tsv"), res.FPKM); err != nil {
		return err
	}
	if err := marshalCSV(filepath.Join(outDir, "sample_metadata.csv"), &res.Metadata); err != nil {
		return err
	}
	if err := marshalCSV(filepath.Join(outDir, "variance_profile.csv"), &res.Profiles); err != nil {
		return err
	}
	if err := marshalCSV(filepath.Join(outDir, "differential.csv"), &res.Differential); err != nil {
		return err
	}
	if err := writePCAScores(filepath.Join(outDir, "pca_scores.tsv"), res); err != nil {
		return err
	}
	return writeExplainedVariance(filepath.Join(outDir, "explained_variance.csv"), res)
}

// marshalCSV writes a struct-tagged table via gocsv.
func marshalCSV(path string, records interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(records, f)
}

// writeMatrix writes a gene-by-sample matrix as a tab-delimited table with a
// sample header row and gene identifiers in the first column.
func writeMatrix(path string, m *expr.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	defer w.Flush()

	header := append([]string{"gene_id"}, m.Samples...)
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(m.Samples)+1)
	for i, gene := range m.Genes {
		row[0] = gene
		for j, v := range m.Values[i] {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// writePCAScores writes the sample-by-component score table.
func writePCAScores(path string, res *pipeline.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	defer w.Flush()

	nComp := res.PCA.NComponents()
	header := []string{"sample_id", "sex"}
	for k := 0; k < nComp; k++ {
		header = append(header, fmt.Sprintf("PC%d", k+1))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, id := range res.PCA.SampleIDs {
		row := []string{id, res.Metadata[i].Sex}
		for k := 0; k < nComp; k++ {
			row = append(row, strconv.FormatFloat(res.PCA.Scores.At(i, k), 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func writeExplainedVariance(path string, res *pipeline.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"component", "explained_variance"}); err != nil {
		return err
	}
	for k, v := range res.PCA.ExplainedVariance {
		row := []string{fmt.Sprintf("PC%d", k+1), strconv.FormatFloat(v, 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}
