// Package pipeline owns the end-to-end processing sequence: read input
// series through the formats collaborators, resample onto a uniform
// grid, apply Lorentzian/Gaussian broadening, and optionally weight
// orbital contributions by photoionization cross-sections.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"specbroad/formats"
	"specbroad/spectra"
	"specbroad/xsect"
)

var (
	// ErrInconsistentEnergy indicates PDOS input files whose energy
	// columns carry different labels; merging them would silently mix
	// incompatible axes.
	ErrInconsistentEnergy = errors.New("pipeline: energy labels are not consistent between input files")

	// ErrFlipUnsupported indicates the x-flip option combined with
	// single-series 1D processing.
	ErrFlipUnsupported = errors.New("pipeline: x-flip not implemented in 1D mode")

	// ErrBadFilename indicates a PDOS filename the element symbol
	// cannot be inferred from.
	ErrBadFilename = errors.New("pipeline: cannot infer element from filename, use the pattern XXX_EL_YYY.EXT")
)

// DefaultSampling is the grid step used when none is configured,
// appropriate for eV-scale energy axes.
const DefaultSampling = 1e-2

const autoPadding = 0.05

type config struct {
	xmin, xmax *float64
	sampling   float64
	lorentzian float64
	gaussian   float64
	spikes     bool
	flipX      bool
	weighting  string
	logger     *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{sampling: DefaultSampling}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	return cfg
}

// Option configures a pipeline run.
type Option func(*config)

// WithXMin fixes the lower grid limit instead of the auto-padded value.
func WithXMin(v float64) Option {
	return func(c *config) { c.xmin = &v }
}

// WithXMax fixes the upper grid limit instead of the auto-padded value.
func WithXMax(v float64) Option {
	return func(c *config) { c.xmax = &v }
}

// WithSampling sets the grid step in x-axis units.
func WithSampling(d float64) Option {
	return func(c *config) {
		if d > 0 {
			c.sampling = d
		}
	}
}

// WithLorentzian enables Lorentzian broadening with the given FWHM.
func WithLorentzian(fwhm float64) Option {
	return func(c *config) { c.lorentzian = fwhm }
}

// WithGaussian enables Gaussian broadening with the given FWHM.
func WithGaussian(fwhm float64) Option {
	return func(c *config) { c.gaussian = fwhm }
}

// WithSpikes resamples input as discrete spikes instead of
// interpolating; use for mode-intensity data such as Raman spectra.
func WithSpikes() Option {
	return func(c *config) { c.spikes = true }
}

// WithFlipX negates x values for the binding-energy convention.
// Supported for PDOS processing only.
func WithFlipX() Option {
	return func(c *config) { c.flipX = true }
}

// WithWeighting applies cross-section weighting from the named source:
// a bundled dataset name, a photon energy in keV, or a JSON file path.
func WithWeighting(spec string) Option {
	return func(c *config) { c.weighting = spec }
}

// WithLogger injects the diagnostics sink. Without it the pipeline is
// silent.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Process1D reads a single data series, resamples it onto a uniform
// grid and applies the configured broadening. Grid limits default to
// the data range padded outward by 5%.
func Process1D(path string, opts ...Option) (spectra.Grid, spectra.Sample1D, error) {
	cfg := newConfig(opts)

	if cfg.flipX {
		return spectra.Grid{}, nil, ErrFlipUnsupported
	}

	if _, err := os.Stat(path); err != nil {
		return spectra.Grid{}, nil, fmt.Errorf("pipeline: input file: %w", err)
	}

	xy, err := read1D(path)
	if err != nil {
		return spectra.Grid{}, nil, err
	}

	cfg.logger.Info("read input series", "path", path, "points", len(xy))

	xmin, xmax := seriesLimits(xy, cfg)

	grid, err := spectra.NewGrid(xmin, xmax, cfg.sampling)
	if err != nil {
		return spectra.Grid{}, nil, err
	}

	mode := spectra.ModeInterpolate
	if cfg.spikes {
		mode = spectra.ModeSpike
	}

	resampled, err := spectra.Resample(xy, grid, mode)
	if err != nil {
		return spectra.Grid{}, nil, err
	}

	broadened, err := spectra.ApplyBroadening(resampled, grid.Step, cfg.lorentzian, cfg.gaussian)
	if err != nil {
		return spectra.Grid{}, nil, err
	}

	return grid, broadened, nil
}

// read1D dispatches to a reader based on file sniffing: DOSCAR by
// content, CSV by extension, plain text otherwise.
func read1D(path string) (spectra.XYSeries, error) {
	switch {
	case formats.IsDoscar(path):
		return formats.ReadDoscar(path)
	case formats.IsCSV(path):
		return formats.ReadCSV(path)
	default:
		return formats.ReadTxt(path)
	}
}

func seriesLimits(xy spectra.XYSeries, cfg config) (xmin, xmax float64) {
	lo, hi := xy.XRange()
	span := hi - lo
	xmin, xmax = lo-autoPadding*span, hi+autoPadding*span

	if cfg.xmin != nil {
		xmin = *cfg.xmin
	}
	if cfg.xmax != nil {
		xmax = *cfg.xmax
	}

	return xmin, xmax
}

// ProcessPDOS reads one orbital-projected table per element, resamples
// everything onto a common grid spanning the union of the per-file auto
// limits, broadens each orbital, and optionally applies cross-section
// weighting. The element symbol is inferred from the second-to-last
// underscore-separated field of each filename (SYSTEM_EL_dos.dat).
func ProcessPDOS(paths []string, opts ...Option) (*spectra.OrbitalSeries, error) {
	cfg := newConfig(opts)

	if len(paths) == 0 {
		return nil, spectra.ErrEmptyData
	}

	var (
		elements    []string
		tables      = make(map[string]*formats.PDOSTable)
		energyLabel string
	)

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("pipeline: input file: %w", err)
		}

		element, err := elementFromFilename(path)
		if err != nil {
			return nil, err
		}

		table, err := formats.ReadPDOSTxt(path)
		if err != nil {
			return nil, err
		}

		if energyLabel == "" {
			energyLabel = table.EnergyLabel
		} else if table.EnergyLabel != energyLabel {
			return nil, fmt.Errorf("%w: %q vs %q", ErrInconsistentEnergy, energyLabel, table.EnergyLabel)
		}

		if _, seen := tables[element]; !seen {
			elements = append(elements, element)
		}
		tables[element] = table

		cfg.logger.Info("read orbital data", "path", path, "element", element,
			"orbitals", len(table.Labels), "rows", len(table.Energies))
	}

	xmin, xmax := unionLimits(elements, tables, cfg)

	grid, err := spectra.NewGrid(xmin, xmax, cfg.sampling)
	if err != nil {
		return nil, err
	}

	energy := grid.Values()
	out := spectra.NewOrbitalSeries()

	for _, el := range elements {
		table := tables[el]
		dst := out.AddElement(el, energy)

		for _, orbital := range table.Labels {
			column := table.Orbitals[orbital]

			xy := make(spectra.XYSeries, len(column))
			for i := range column {
				x := table.Energies[i]
				if cfg.flipX {
					x = -x
				}

				xy[i] = spectra.Point{X: x, Y: column[i]}
			}

			resampled, err := spectra.Resample(xy, grid, spectra.ModeInterpolate)
			if err != nil {
				return nil, fmt.Errorf("pipeline: %s %s: %w", el, orbital, err)
			}

			broadened, err := spectra.ApplyBroadening(resampled, grid.Step, cfg.lorentzian, cfg.gaussian)
			if err != nil {
				return nil, fmt.Errorf("pipeline: %s %s: %w", el, orbital, err)
			}

			if err := dst.SetOrbital(orbital, broadened); err != nil {
				return nil, err
			}
		}
	}

	if cfg.weighting == "" {
		return out, nil
	}

	weights, err := xsect.Get(cfg.weighting, elements)
	if err != nil {
		return nil, err
	}

	return spectra.ApplyOrbitalWeights(out, weights, cfg.logger)
}

// unionLimits spans min-of-mins to max-of-maxes over the 5%-padded
// per-element ranges, reversed under x-flip because configured limits
// are given as binding energies in that mode.
func unionLimits(elements []string, tables map[string]*formats.PDOSTable, cfg config) (xmin, xmax float64) {
	first := true
	for _, el := range elements {
		lo, hi := spectra.AutoLimits(tables[el].Energies, autoPadding)
		if first || lo < xmin {
			xmin = lo
		}
		if first || hi > xmax {
			xmax = hi
		}

		first = false
	}

	if cfg.flipX {
		xmin, xmax = -xmax, -xmin
	}

	if cfg.xmin != nil {
		xmin = *cfg.xmin
	}
	if cfg.xmax != nil {
		xmax = *cfg.xmax
	}

	return xmin, xmax
}

func elementFromFilename(path string) (string, error) {
	base := filepath.Base(path)
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", ErrBadFilename, base)
	}

	return parts[len(parts)-2], nil
}
