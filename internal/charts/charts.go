// Package charts renders histograms and bar charts for the visualization
// handler. Output is PNG files in the configured output directory.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 30

// Renderer writes chart files under a base directory.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// Histogram renders a value histogram for one numeric column and returns the
// written file path.
func (r *Renderer) Histogram(dataset, column string, values []float64) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("no values for column %s", column)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Distribuição de %s", column)
	p.X.Label.Text = column
	p.Y.Label.Text = "Frequência"

	h, err := plotter.NewHist(plotter.Values(values), histogramBins)
	if err != nil {
		return "", fmt.Errorf("build histogram for %s: %w", column, err)
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)

	return r.save(p, dataset, "hist_"+column)
}

// BarChart renders the category counts of one low-cardinality column.
// Categories are drawn in the given order.
func (r *Renderer) BarChart(dataset, column string, labels []string, counts []float64) (string, error) {
	if len(labels) == 0 || len(labels) != len(counts) {
		return "", fmt.Errorf("invalid categories for column %s", column)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Contagem por %s", column)
	p.Y.Label.Text = "Contagem"

	bars, err := plotter.NewBarChart(plotter.Values(counts), vg.Points(24))
	if err != nil {
		return "", fmt.Errorf("build bar chart for %s: %w", column, err)
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(1)
	p.Add(bars)
	p.NominalX(labels...)

	return r.save(p, dataset, "bar_"+column)
}

func (r *Renderer) save(p *plot.Plot, dataset, name string) (string, error) {
	dir := filepath.Join(r.outputDir, sanitize(dataset))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(dir, sanitize(name)+".png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save chart %s: %w", path, err)
	}
	return path, nil
}

// sanitize keeps file names filesystem-safe.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
