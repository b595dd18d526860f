// Package chart renders KPI exports as PNG bar charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
	"github.com/KaramelBytes/claimvision-cli/internal/utils"
)

// Spec describes one bar chart drawn from a KPI file.
type Spec struct {
	Source string // KPI file name under the data directory
	X, Y   string // category and value columns
	Title  string
	YLabel string
	Output string // PNG file name under the chart directory
}

// Defaults are the charts shown next to the prediction form.
var Defaults = []Spec{
	{
		Source: schema.FileClaimDistribution, X: schema.ColClaim, Y: schema.KPICount,
		Title: "Claim distribution", YLabel: "records", Output: "claim_distribution.png",
	},
	{
		Source: schema.FileAgeByOutcome, X: schema.ColClaim, Y: schema.KPIAverageAge,
		Title: "Average age by claim outcome", YLabel: "age", Output: "age_by_outcome.png",
	},
}

// Result reports one rendered (or skipped) chart.
type Result struct {
	Spec    Spec
	Path    string
	Skipped bool
	Reason  string
}

// Bars loads the category/value pairs of spec from tbl.
func Bars(tbl *table.Table, spec Spec) ([]string, plotter.Values, error) {
	xi, yi := tbl.Index(spec.X), tbl.Index(spec.Y)
	if xi < 0 || yi < 0 {
		return nil, nil, fmt.Errorf("%s: need columns %s and %s", spec.Source, spec.X, spec.Y)
	}
	var labels []string
	var vals plotter.Values
	for r := range tbl.Rows {
		v, ok := table.ParseNumber(tbl.Cell(r, yi))
		if !ok {
			continue
		}
		label := tbl.Cell(r, xi)
		if table.IsMissing(label) {
			label = "missing"
		}
		labels = append(labels, label)
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, nil, fmt.Errorf("%s: no numeric %s values", spec.Source, spec.Y)
	}
	return labels, vals, nil
}

// Render draws spec from the KPI file in dataDir into chartDir. A missing
// source file is skipped, not an error.
func Render(spec Spec, dataDir, chartDir string) (Result, error) {
	res := Result{Spec: spec}
	src := filepath.Join(dataDir, spec.Source)
	tbl, err := table.LoadCSV(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Skipped = true
			res.Reason = fmt.Sprintf("%s not found", spec.Source)
			return res, nil
		}
		return res, err
	}
	labels, vals, err := Bars(tbl, spec)
	if err != nil {
		return res, err
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.X
	p.Y.Label.Text = spec.YLabel
	p.Y.Min = 0
	bars, err := plotter.NewBarChart(vals, vg.Points(40))
	if err != nil {
		return res, fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	w, err := p.WriterTo(5*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return res, fmt.Errorf("render %s: %w", spec.Output, err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return res, fmt.Errorf("render %s: %w", spec.Output, err)
	}
	if err := utils.EnsureDir(chartDir); err != nil {
		return res, fmt.Errorf("ensure dir: %w", err)
	}
	res.Path = filepath.Join(chartDir, spec.Output)
	if err := utils.SafeWriteFile(res.Path, buf.Bytes()); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Path, err)
	}
	return res, nil
}

// RenderAll renders every spec, stopping at the first hard error.
func RenderAll(specs []Spec, dataDir, chartDir string) ([]Result, error) {
	out := make([]Result, 0, len(specs))
	for _, s := range specs {
		r, err := Render(s, dataDir, chartDir)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
