package main

import (
	"bytes"
	"io/ioutil"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rainali475/kidneyde/expr"
	"github.com/rainali475/kidneyde/meanvar"
	"github.com/rainali475/kidneyde/pipeline"
)

// plotPCAScores renders PC1 vs PC2, one dot per sample, colored by sex.
func plotPCAScores(path string, res *pipeline.Results) error {
	if res.PCA.NComponents() < 2 {
		return nil
	}

	bySex := map[string]drawing.Color{
		expr.SexFemale: chart.ColorRed,
		expr.SexMale:   chart.ColorBlue,
	}

	var series []chart.Series
	for sex, color := range bySex {
		var xs, ys []float64
		for i, s := range res.Metadata {
			if s.Sex != sex {
				continue
			}
			xs = append(xs, res.PCA.Scores.At(i, 0))
			ys = append(ys, res.PCA.Scores.At(i, 1))
		}
		series = append(series, chart.ContinuousSeries{
			Name:    sex,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    color,
			},
		})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].(chart.ContinuousSeries).Name < series[j].(chart.ContinuousSeries).Name
	})

	graph := chart.Chart{
		Width:  640,
		Height: 480,
		XAxis:  chart.XAxis{Name: "PC1"},
		YAxis:  chart.YAxis{Name: "PC2"},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, graph)
}

// plotMeanVarianceTrend renders per-gene log2 variance against log2 mean
// with the fitted expected variance overlaid.
func plotMeanVarianceTrend(path string, profiles []meanvar.Profile) error {
	ordered := make([]meanvar.Profile, len(profiles))
	copy(ordered, profiles)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Mean < ordered[j].Mean })

	n := len(ordered)
	logMean := make([]float64, n)
	logVar := make([]float64, n)
	fitted := make([]float64, n)
	for i, p := range ordered {
		logMean[i] = math.Log2(p.Mean)
		logVar[i] = math.Log2(p.Variance)
		fitted[i] = math.Log2(p.ExpectedSD * p.ExpectedSD)
	}

	graph := chart.Chart{
		Width:  640,
		Height: 480,
		XAxis:  chart.XAxis{Name: "log2 mean FPKM"},
		YAxis:  chart.YAxis{Name: "log2 variance"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "genes",
				XValues: logMean,
				YValues: logVar,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    2,
					DotColor:    chart.ColorAlternateGray,
				},
			},
			chart.ContinuousSeries{
				Name:    "expected",
				XValues: logMean,
				YValues: fitted,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(path, graph)
}

func renderPNG(path string, graph chart.Chart) error {
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return err
	}
	return ioutil.WriteFile(path, buffer.Bytes(), 0o644)
}
