package util

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/siteforge/layout-optimizer/pkg/multiobjective/algorithms"
	"github.com/siteforge/layout-optimizer/pkg/multiobjective/framework"
)

// PlotResults writes an HTML scatter plot of a two-objective front to path.
// When reference is non-empty it is drawn as a second series, typically the
// true Pareto front of a benchmark.
func PlotResults(path, title string, results, reference []framework.ObjectiveSpacePoint) error {
	scatter, err := frontChart(title, results, reference)
	if err != nil {
		return err
	}
	return render(path, scatter)
}

// PlotRun writes the final front and the convergence history of a run into a
// single HTML page.
func PlotRun(path, title string, result *algorithms.Result) error {
	if result == nil {
		return fmt.Errorf("no result to plot for %s", title)
	}
	results := make([]framework.ObjectiveSpacePoint, len(result.ParetoFront))
	for i, ind := range result.ParetoFront {
		results[i] = ind.Objectives
	}

	page := components.NewPage()
	page.PageTitle = title
	if len(results) > 0 && len(results[0]) == 2 {
		scatter, err := frontChart(title, results, nil)
		if err != nil {
			return err
		}
		page.AddCharts(scatter)
	}
	page.AddCharts(convergenceChart(title, result.Convergence))
	return render(path, page)
}

func frontChart(title string, results, reference []framework.ObjectiveSpacePoint) (*charts.Scatter, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("results are empty for %s", title)
	}

	if len(results[0]) != 2 {
		return nil, fmt.Errorf("can only plot 2D for %s", title)
	}

	// Create scatter chart
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "f1(x)",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "f2(x)",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	if len(reference) > 0 {
		trueX := make([]opts.ScatterData, len(reference))
		for i, p := range reference {
			trueX[i] = opts.ScatterData{
				Value:      []float64(p),
				Symbol:     "circle",
				SymbolSize: 10,
			}
		}
		scatter.AddSeries("Reference Front", trueX)
	}

	foundX := make([]opts.ScatterData, len(results))
	for i, res := range results {
		foundX[i] = opts.ScatterData{
			Value:      []float64{res[0], res[1]},
			Symbol:     "triangle",
			SymbolSize: 10,
		}
	}

	// Add data series
	scatter.AddSeries("Solutions", foundX).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
			charts.WithEmphasisOpts(opts.Emphasis{}),
		)
	return scatter, nil
}

func convergenceChart(title string, conv algorithms.Convergence) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title + " convergence"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "generation"}),
	)

	gens := make([]int, len(conv.ParetoSize))
	sizes := make([]opts.LineData, len(conv.ParetoSize))
	for i, s := range conv.ParetoSize {
		gens[i] = i
		sizes[i] = opts.LineData{Value: s}
	}
	line.SetXAxis(gens).AddSeries("Pareto front size", sizes)

	// One series per objective of the running ideal point.
	numObjectives := 0
	for _, p := range conv.IdealPoint {
		numObjectives = max(numObjectives, len(p))
	}
	for j := 0; j < numObjectives; j++ {
		values := make([]opts.LineData, len(conv.IdealPoint))
		for i, p := range conv.IdealPoint {
			if j < len(p) {
				values[i] = opts.LineData{Value: p[j]}
			} else {
				values[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(fmt.Sprintf("ideal f%d", j+1), values)
	}
	return line
}

type renderer interface {
	Render(w io.Writer) error
}

func render(path string, r renderer) error {
	// Create HTML file
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return r.Render(f)
}
