package spectra

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-vecmath"
)

// ElementWeights holds per-orbital photoionization cross-sections for
// one element. A present-but-nil weight means "suppress this orbital".
type ElementWeights struct {
	Warning string
	labels  []string
	weights map[string]*float64
}

// NewElementWeights creates an empty weight set.
func NewElementWeights() *ElementWeights {
	return &ElementWeights{weights: make(map[string]*float64)}
}

// Set stores a weight; nil marks the orbital for silent suppression.
func (w *ElementWeights) Set(orbital string, value *float64) {
	if _, ok := w.weights[orbital]; !ok {
		w.labels = append(w.labels, orbital)
	}
	w.weights[orbital] = value
}

// Weight returns the stored weight and whether the orbital is present.
func (w *ElementWeights) Weight(orbital string) (*float64, bool) {
	v, ok := w.weights[orbital]
	return v, ok
}

// Orbitals returns orbital labels in insertion order.
func (w *ElementWeights) Orbitals() []string {
	return w.labels
}

// CrossSectionTable maps element symbols to orbital weights, with
// dataset-level metadata.
type CrossSectionTable struct {
	Energy   string
	Citation string
	Link     string

	symbols  []string
	elements map[string]*ElementWeights
}

// NewCrossSectionTable creates an empty table.
func NewCrossSectionTable() *CrossSectionTable {
	return &CrossSectionTable{elements: make(map[string]*ElementWeights)}
}

// AddElement registers an element and returns its weight set.
func (t *CrossSectionTable) AddElement(symbol string) *ElementWeights {
	if w, ok := t.elements[symbol]; ok {
		return w
	}

	w := NewElementWeights()
	t.symbols = append(t.symbols, symbol)
	t.elements[symbol] = w

	return w
}

// Element returns the weight set for an element symbol.
func (t *CrossSectionTable) Element(symbol string) (*ElementWeights, bool) {
	w, ok := t.elements[symbol]
	return w, ok
}

// Elements returns the element symbols in insertion order.
func (t *CrossSectionTable) Elements() []string {
	return t.symbols
}

// LogInfo writes dataset metadata to the sink. Harmless on partial
// metadata; nothing is written for empty fields.
func (t *CrossSectionTable) LogInfo(logger *slog.Logger) {
	if logger == nil {
		return
	}

	if t.Energy != "" {
		logger.Info("photon energy", "energy", t.Energy)
	}
	if t.Citation != "" {
		logger.Info("citation", "citation", t.Citation)
	}
	if t.Link != "" {
		logger.Info("link", "link", t.Link)
	}
}

// ApplyOrbitalWeights scales orbital intensities by photoionization
// cross-sections for photoemission simulation.
//
// For every element of data the matching weights must exist in table;
// an absent element fails with ErrMissingCrossSection since it usually
// indicates a label mismatch between the calculation output and the
// weighting data. Orbitals behave per-label: a label missing from the
// element's weights is dropped with a warning, a nil weight is dropped
// silently, and the reserved "energy" column passes through unweighted.
//
// Element and orbital order of the output follows the input data. The
// logger is the injected diagnostics sink; nil discards all output.
func ApplyOrbitalWeights(data *OrbitalSeries, table *CrossSectionTable, logger *slog.Logger) (*OrbitalSeries, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Info("applying cross-section weighting to orbital data")
	table.LogInfo(logger)

	out := NewOrbitalSeries()

	for _, el := range data.Elements() {
		src, _ := data.Element(el)

		weights, ok := table.Element(el)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingCrossSection, el)
		}

		if weights.Warning != "" {
			logger.Warn("cross-section warning", "element", el, "warning", weights.Warning)
		}

		dst := out.AddElement(el, src.Energy())

		for _, orbital := range src.Orbitals() {
			samples, _ := src.Orbital(orbital)

			cs, present := weights.Weight(orbital)
			if !present {
				logger.Warn("no cross-section data, skipping orbital",
					"element", el, "orbital", orbital)
				continue
			}
			if cs == nil {
				continue
			}

			logger.Info("weighting orbital", "element", el, "orbital", orbital, "weight", *cs)

			if err := dst.SetOrbital(orbital, scaled(samples, *cs)); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func scaled(s Sample1D, factor float64) Sample1D {
	out := make(Sample1D, len(s))
	vecmath.ScaleBlock(out, s, factor)

	return out
}
