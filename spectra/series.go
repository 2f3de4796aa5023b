package spectra

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by the core spectra operations.
var (
	ErrEmptyData           = errors.New("spectra: empty data series")
	ErrTooFewPoints        = errors.New("spectra: interpolation requires at least two points")
	ErrInvalidGrid         = errors.New("spectra: invalid grid")
	ErrUnknownDistribution = errors.New("spectra: unknown broadening distribution")
	ErrMissingCrossSection = errors.New("spectra: no cross-section data for element")
	ErrReservedLabel       = errors.New("spectra: orbital label is reserved")
	ErrLengthMismatch      = errors.New("spectra: sample length mismatch")
)

// EnergyKey is the reserved label holding the shared x-axis values of an
// orbital series. It is copied through weighting unmodified.
const EnergyKey = "energy"

// Point is a single (x, y) sample.
type Point struct {
	X, Y float64
}

// XYSeries is an ordered set of (x, y) points as produced by a reader.
// X values need not be sorted or evenly spaced.
type XYSeries []Point

// XRange returns the smallest and largest x value in the series.
func (s XYSeries) XRange() (xmin, xmax float64) {
	if len(s) == 0 {
		return 0, 0
	}

	xmin, xmax = s[0].X, s[0].X
	for _, p := range s[1:] {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
	}

	return xmin, xmax
}

// FlipX returns a copy of the series with all x values negated.
// Used to convert between kinetic- and binding-energy conventions.
func (s XYSeries) FlipX() XYSeries {
	out := make(XYSeries, len(s))
	for i, p := range s {
		out[i] = Point{X: -p.X, Y: p.Y}
	}

	return out
}

// Sample1D holds y values aligned 1:1 with a Grid.
type Sample1D []float64

// Clone returns an independent copy of the sample.
func (s Sample1D) Clone() Sample1D {
	return append(Sample1D(nil), s...)
}

// Grid is a uniform x-axis mesh over the half-open interval [Min, Max)
// with spacing Step.
type Grid struct {
	Min  float64
	Max  float64
	Step float64
}

// NewGrid validates the mesh parameters.
func NewGrid(min, max, step float64) (Grid, error) {
	if step <= 0 {
		return Grid{}, fmt.Errorf("%w: step %v must be positive", ErrInvalidGrid, step)
	}
	if max <= min {
		return Grid{}, fmt.Errorf("%w: range [%v, %v) is empty", ErrInvalidGrid, min, max)
	}

	return Grid{Min: min, Max: max, Step: step}, nil
}

// Len returns the number of mesh points, ceil((Max-Min)/Step).
func (g Grid) Len() int {
	n := int(math.Ceil((g.Max - g.Min) / g.Step))
	if n < 0 {
		return 0
	}

	return n
}

// X returns the i-th mesh value.
func (g Grid) X(i int) float64 {
	return g.Min + float64(i)*g.Step
}

// Values materializes the mesh as a sample, e.g. for the energy column
// of an orbital series or the x column of persisted output.
func (g Grid) Values() Sample1D {
	out := make(Sample1D, g.Len())
	for i := range out {
		out[i] = g.X(i)
	}

	return out
}

// AutoLimits returns limits padded outward from the data range by
// padding as a fraction of the range. The reference convention pads 5%
// for x limits and 10% for plot y limits.
func AutoLimits(data []float64, padding float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}

	min, max = data[0], data[0]
	for _, v := range data[1:] {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	span := max - min

	return min - padding*span, max + padding*span
}

// ElementData holds the per-orbital samples of one element. Orbital
// insertion order is preserved; it determines column order in persisted
// output and legend order in plots.
type ElementData struct {
	energy   Sample1D
	labels   []string
	orbitals map[string]Sample1D
}

// NewElementData creates an empty element entry with the shared energy
// (grid) column.
func NewElementData(energy Sample1D) *ElementData {
	return &ElementData{
		energy:   energy,
		orbitals: make(map[string]Sample1D),
	}
}

// Energy returns the shared x-axis samples.
func (d *ElementData) Energy() Sample1D {
	return d.energy
}

// SetOrbital stores samples for an orbital label, appending the label on
// first use. The reserved "energy" label is rejected, as is any sample
// whose length disagrees with the energy column.
func (d *ElementData) SetOrbital(label string, s Sample1D) error {
	if label == EnergyKey {
		return fmt.Errorf("%w: %q", ErrReservedLabel, label)
	}
	if d.energy != nil && len(s) != len(d.energy) {
		return fmt.Errorf("%w: orbital %q has %d samples, energy has %d",
			ErrLengthMismatch, label, len(s), len(d.energy))
	}

	if _, ok := d.orbitals[label]; !ok {
		d.labels = append(d.labels, label)
	}
	d.orbitals[label] = s

	return nil
}

// Orbital returns the samples stored under label.
func (d *ElementData) Orbital(label string) (Sample1D, bool) {
	s, ok := d.orbitals[label]
	return s, ok
}

// Orbitals returns the orbital labels in insertion order.
func (d *ElementData) Orbitals() []string {
	return d.labels
}

// OrbitalSeries maps element symbols to their orbital-projected samples.
// Element insertion order is preserved for deterministic output.
type OrbitalSeries struct {
	symbols  []string
	elements map[string]*ElementData
}

// NewOrbitalSeries creates an empty series.
func NewOrbitalSeries() *OrbitalSeries {
	return &OrbitalSeries{elements: make(map[string]*ElementData)}
}

// AddElement registers an element with its energy column and returns the
// entry for orbital population. Re-adding a symbol replaces its data but
// keeps its original position.
func (s *OrbitalSeries) AddElement(symbol string, energy Sample1D) *ElementData {
	if _, ok := s.elements[symbol]; !ok {
		s.symbols = append(s.symbols, symbol)
	}

	d := NewElementData(energy)
	s.elements[symbol] = d

	return d
}

// Element returns the entry for an element symbol.
func (s *OrbitalSeries) Element(symbol string) (*ElementData, bool) {
	d, ok := s.elements[symbol]
	return d, ok
}

// Elements returns the element symbols in insertion order.
func (s *OrbitalSeries) Elements() []string {
	return s.symbols
}
