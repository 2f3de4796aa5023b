// Package plots renders broadened spectra to image files. It is a thin
// collaborator around gonum/plot: the pipeline produces (grid, sample)
// pairs or orbital series, and this package draws line plots from them.
// The output format follows the file extension (png, svg, pdf, ...).
package plots

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"specbroad/spectra"
)

type config struct {
	title  string
	xLabel string
	yLabel string
	yMin   *float64
	yMax   *float64
	width  vg.Length
	height vg.Length
}

func defaultConfig() config {
	return config{
		yLabel: "Intensity",
		width:  6 * vg.Inch,
		height: 4 * vg.Inch,
	}
}

// Option configures plot rendering.
type Option func(*config)

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithXLabel sets the x-axis label, typically the energy or frequency
// unit.
func WithXLabel(label string) Option {
	return func(c *config) { c.xLabel = label }
}

// WithYLabel sets the y-axis label.
func WithYLabel(label string) Option {
	return func(c *config) { c.yLabel = label }
}

// WithYMin fixes the lower y limit instead of the 10%-padded auto value.
func WithYMin(v float64) Option {
	return func(c *config) { c.yMin = &v }
}

// WithYMax fixes the upper y limit instead of the 10%-padded auto value.
func WithYMax(v float64) Option {
	return func(c *config) { c.yMax = &v }
}

// WithSize overrides the canvas size.
func WithSize(width, height vg.Length) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.width = width
			c.height = height
		}
	}
}

// TDOS plots a single broadened series to path.
func TDOS(grid spectra.Grid, sample spectra.Sample1D, path string, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	p := plot.New()
	applyLabels(p, cfg)

	line, err := plotter.NewLine(gridXYs(grid.Values(), sample))
	if err != nil {
		return fmt.Errorf("plots: %w", err)
	}
	p.Add(line)

	p.X.Min, p.X.Max = grid.Min, grid.Max
	setYLimits(p, cfg, sample)

	return p.Save(cfg.width, cfg.height, path)
}

// PDOS plots every orbital column of the series to path, one line per
// (element, orbital) in insertion order, with a matching legend.
func PDOS(series *spectra.OrbitalSeries, path string, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	elements := series.Elements()
	if len(elements) == 0 {
		return fmt.Errorf("plots: empty orbital series")
	}

	p := plot.New()
	applyLabels(p, cfg)

	var all spectra.Sample1D
	for _, el := range elements {
		data, _ := series.Element(el)

		for _, orb := range data.Orbitals() {
			col, _ := data.Orbital(orb)

			line, err := plotter.NewLine(gridXYs(data.Energy(), col))
			if err != nil {
				return fmt.Errorf("plots: %s %s: %w", el, orb, err)
			}

			p.Add(line)
			p.Legend.Add(el+" "+orb, line)
			all = append(all, col...)
		}
	}

	first, _ := series.Element(elements[0])
	xmin, xmax := spectra.AutoLimits(first.Energy(), 0)
	p.X.Min, p.X.Max = xmin, xmax
	setYLimits(p, cfg, all)

	return p.Save(cfg.width, cfg.height, path)
}

func applyLabels(p *plot.Plot, cfg config) {
	p.Title.Text = cfg.title
	p.X.Label.Text = cfg.xLabel
	p.Y.Label.Text = cfg.yLabel
}

func setYLimits(p *plot.Plot, cfg config, data spectra.Sample1D) {
	autoMin, autoMax := spectra.AutoLimits(data, 0.1)

	p.Y.Min, p.Y.Max = autoMin, autoMax
	if cfg.yMin != nil {
		p.Y.Min = *cfg.yMin
	}
	if cfg.yMax != nil {
		p.Y.Max = *cfg.yMax
	}
}

func gridXYs(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(y))
	for i := range pts {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}

	return pts
}
