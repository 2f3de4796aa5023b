// Package xsect resolves photoionization cross-section weighting data.
//
// Three kinds of weighting spec are understood: the name of a bundled
// tabulation ("alka", "he2", "yeh_haxpes", drawn from Yeh/Lindau 1985
// at the corresponding photon energies), a numeric photon energy in keV
// evaluated against a log-log polynomial parametrisation of Scofield's
// tabulation, or a path to a user JSON file in the same layout as the
// bundled data. Bulk dataset download and caching is a separate
// concern and not handled here.
package xsect

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"specbroad/spectra"
)

//go:embed data/*.json
var dataFS embed.FS

var (
	ErrUnknownWeighting = errors.New("xsect: weighting not understood")
	ErrEnergyRange      = errors.New("xsect: photon energy outside parametrisation range")
)

// Bundled tabulations keyed by weighting name.
var tabulated = map[string]string{
	"alka":       "data/cross_sections.json",        // Al k-alpha, 1486.6 eV
	"he2":        "data/cross_sections_ups.json",    // He(II), 40.8 eV
	"yeh_haxpes": "data/cross_sections_haxpes.json", // HAXPES, 8047.8 eV
}

// Keys retired in favour of explicit source names.
var legacyKeys = map[string]string{
	"xps":    "alka",
	"ups":    "he2",
	"haxpes": "yeh_haxpes",
}

// Get resolves a weighting spec into a cross-section table.
//
// A spec that parses as a number is treated as a photon energy in keV
// and evaluated with the fitted Scofield parametrisation, restricted to
// the elements given (all fitted elements when elements is nil). A
// known dataset name loads the bundled tabulation; anything else is
// treated as a path to a user JSON file.
func Get(weighting string, elements []string) (*spectra.CrossSectionTable, error) {
	if energy, err := strconv.ParseFloat(weighting, 64); err == nil {
		return Scofield(energy, elements)
	}

	name := strings.ToLower(weighting)

	if replacement, ok := legacyKeys[name]; ok {
		return nil, fmt.Errorf("%w: key %q is no longer accepted, use %q",
			ErrUnknownWeighting, weighting, replacement)
	}

	if path, ok := tabulated[name]; ok {
		f, err := dataFS.Open(path)
		if err != nil {
			return nil, fmt.Errorf("xsect: bundled dataset %s: %w", name, err)
		}
		defer f.Close()

		return decodeTable(f)
	}

	return FromJSONFile(weighting)
}

// FromJSONFile reads a cross-section table from a user JSON file laid
// out as {"El": {"s": 1.2, "p": null, ...}, "energy": ..., ...}.
func FromJSONFile(path string) (*spectra.CrossSectionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xsect: cross-sections file: %w", err)
	}
	defer f.Close()

	table, err := decodeTable(f)
	if err != nil {
		return nil, fmt.Errorf("xsect: %s: %w", path, err)
	}

	return table, nil
}

// decodeTable parses the nested weighting layout, preserving element
// order as it appears in the document.
func decodeTable(r io.Reader) (*spectra.CrossSectionTable, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	table := spectra.NewCrossSectionTable()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		switch key {
		case "energy", "citation", "link", "comment", "warning":
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("metadata %q: %w", key, err)
			}

			switch key {
			case "energy":
				table.Energy = v
			case "citation":
				table.Citation = v
			case "link":
				table.Link = v
			}
		default:
			weights, err := decodeElement(dec)
			if err != nil {
				return nil, fmt.Errorf("element %q: %w", key, err)
			}

			el := table.AddElement(key)
			el.Warning = weights.Warning
			for _, orb := range weights.Orbitals() {
				v, _ := weights.Weight(orb)
				el.Set(orb, v)
			}
		}
	}

	return table, expectDelim(dec, '}')
}

func decodeElement(dec *json.Decoder) (*spectra.ElementWeights, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	weights := spectra.NewElementWeights()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		orbital, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		if orbital == "warning" {
			if err := dec.Decode(&weights.Warning); err != nil {
				return nil, err
			}
			continue
		}

		var v *float64
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("orbital %q: %w", orbital, err)
		}

		weights.Set(orbital, v)
	}

	return weights, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}

	return nil
}

// scofieldFits is the embedded log-log polynomial parametrisation of
// Scofield's tabulated cross-sections, per element and orbital.
type scofieldFits struct {
	EnergyRange [2]float64                      `json:"energy_range"`
	Citation    string                          `json:"citation"`
	Link        string                          `json:"link"`
	Elements    map[string]map[string][]float64 `json:"elements"`
	Order       []string                        `json:"order"`
}

// Scofield evaluates fitted cross-sections at a photon energy in keV.
// Energies outside the fitted 1-1500 keV range are refused rather than
// extrapolated.
func Scofield(energy float64, elements []string) (*spectra.CrossSectionTable, error) {
	raw, err := dataFS.ReadFile("data/scofield_fits.json")
	if err != nil {
		return nil, fmt.Errorf("xsect: scofield fits: %w", err)
	}

	var fits scofieldFits
	if err := json.Unmarshal(raw, &fits); err != nil {
		return nil, fmt.Errorf("xsect: scofield fits: %w", err)
	}

	if energy < fits.EnergyRange[0] || energy > fits.EnergyRange[1] {
		return nil, fmt.Errorf("%w: %v keV not in [%v, %v] keV",
			ErrEnergyRange, energy, fits.EnergyRange[0], fits.EnergyRange[1])
	}

	if elements == nil {
		elements = fits.Order
	}

	table := spectra.NewCrossSectionTable()
	table.Energy = fmt.Sprintf("%g keV", energy)
	table.Citation = fits.Citation
	table.Link = fits.Link

	for _, symbol := range elements {
		orbitals, ok := fits.Elements[symbol]
		if !ok {
			continue
		}

		el := table.AddElement(symbol)
		for _, orb := range []string{"s", "p", "d", "f"} {
			coeffs, ok := orbitals[orb]
			if !ok {
				continue
			}

			v := evalFit(energy, coeffs)
			el.Set(orb, &v)
		}
	}

	return table, nil
}

// evalFit converts a log-log polynomial fit (highest-order coefficient
// first) to a cross-section value.
func evalFit(energy float64, coeffs []float64) float64 {
	x := math.Log(energy)

	acc := 0.0
	for _, c := range coeffs {
		acc = acc*x + c
	}

	return math.Exp(acc)
}
