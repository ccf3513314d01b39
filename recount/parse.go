package recount

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	kidneyde "github.com/rainali475/kidneyde"
	"github.com/rainali475/kidneyde/expr"
)

// ParseCounts reads a gzipped tab-delimited count matrix. The header row is
// "gene_id" followed by the sample identifiers; every following row is a gene
// identifier and one count per sample.
func ParseCounts(r io.Reader) (*expr.Matrix, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("counts payload is not gzip: %w", err))
	}
	defer gz.Close()

	tsv := csv.NewReader(bufio.NewReader(gz))
	tsv.Comma = '\t'

	header, err := tsv.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("reading counts header: %w", err))
	}
	if len(header) < 2 {
		return nil, pfx.Err(fmt.Errorf("%w: counts header has %d columns", expr.ErrInvalidInput, len(header)))
	}
	samples := header[1:]

	var genes []string
	var values [][]float64
	for line := 2; ; line++ {
		record, err := tsv.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(fmt.Errorf("counts line %d: %w", line, err))
		}

		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("%w: counts line %d column %d: %v", expr.ErrInvalidInput, line, j+2, err))
			}
			row[j] = v
		}
		genes = append(genes, record[0])
		values = append(values, row)
	}

	return expr.NewMatrix(genes, samples, values)
}

// ParseMetadata reads a sample annotation table. The delimiter is sniffed
// because mirrors disagree on it.
func ParseMetadata(r io.Reader) (expr.Metadata, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	delim := kidneyde.DetermineDelimiter(bytes.NewReader(raw))

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		cr := csv.NewReader(in)
		cr.Comma = delim
		cr.LazyQuotes = true
		return cr
	})

	var md expr.Metadata
	if err := gocsv.UnmarshalBytes(raw, &md); err != nil {
		return nil, pfx.Err(fmt.Errorf("%w: parsing sample metadata: %v", expr.ErrInvalidInput, err))
	}
	if len(md) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: sample metadata is empty", expr.ErrInvalidInput))
	}

	return md, nil
}

// ParseGeneLengths reads a gzipped two-column tab-delimited table of gene
// identifier and transcript length in base pairs. A header row is expected.
func ParseGeneLengths(r io.Reader) (map[string]float64, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("gene annotation payload is not gzip: %w", err))
	}
	defer gz.Close()

	tsv := csv.NewReader(bufio.NewReader(gz))
	tsv.Comma = '\t'

	if _, err := tsv.Read(); err != nil {
		return nil, pfx.Err(fmt.Errorf("reading gene annotation header: %w", err))
	}

	lengths := make(map[string]float64)
	for line := 2; ; line++ {
		record, err := tsv.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(fmt.Errorf("gene annotation line %d: %w", line, err))
		}
		if len(record) < 2 {
			return nil, pfx.Err(fmt.Errorf("%w: gene annotation line %d has %d columns", expr.ErrInvalidInput, line, len(record)))
		}

		l, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%w: gene annotation line %d: %v", expr.ErrInvalidInput, line, err))
		}
		lengths[record[0]] = l
	}

	return lengths, nil
}
