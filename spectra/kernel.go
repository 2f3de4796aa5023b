package spectra

import (
	"fmt"
	"math"
	"strings"
)

// Distribution identifies a broadening line shape.
type Distribution int

const (
	DistGaussian Distribution = iota
	DistLorentzian
)

// String returns the canonical lower-case name.
func (d Distribution) String() string {
	switch d {
	case DistGaussian:
		return "gaussian"
	case DistLorentzian:
		return "lorentzian"
	default:
		return fmt.Sprintf("distribution(%d)", int(d))
	}
}

// ParseDistribution maps a user-facing name to a Distribution.
// Accepted names (case-insensitive): gauss, gaussian, lorentz, lorentzian.
func ParseDistribution(name string) (Distribution, error) {
	switch strings.ToLower(name) {
	case "gauss", "gaussian":
		return DistGaussian, nil
	case "lorentz", "lorentzian":
		return DistLorentzian, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDistribution, name)
	}
}

// LorentzianAt evaluates a Lorentzian centred on f0 at f.
//
// The analytic form 0.5*fwhm / (pi*((f-f0)^2 + (0.5*fwhm)^2)) integrates
// to one over the full real line, so kernels built from it conserve the
// area of the broadened data.
func LorentzianAt(f, f0, fwhm float64) float64 {
	hw := 0.5 * fwhm
	df := f - f0

	return hw / (math.Pi * (df*df + hw*hw))
}

// GaussianAt evaluates a Gaussian of height 1 centred on f0 at f.
//
// Height, not area, is normalized: broadened output keeps peak heights
// comparable across widths, at the cost of growing total area with
// fwhm. Divide the result by the width where area conservation is
// needed. This asymmetry with LorentzianAt is deliberate and preserved
// for compatibility with existing workflows.
func GaussianAt(f, f0, fwhm float64) float64 {
	c := fwhm / (2 * math.Sqrt(2*math.Ln2))
	df := f - f0

	return math.Exp(-df * df / (2 * c * c))
}

// Kernel is a line-shape sampled on the symmetric half-open domain
// [-Pad, Pad) at spacing Step.
type Kernel struct {
	Values Sample1D
	Pad    float64
	Step   float64
}

// MakeKernel discretizes a broadening distribution with the given FWHM
// on a mesh of spacing step. A pad of zero or less selects the default
// fwhm*20, wide enough that the tails are negligible at the edges;
// callers may trade precision for speed with a narrower pad.
func MakeKernel(dist Distribution, fwhm, step, pad float64) (Kernel, error) {
	if step <= 0 {
		return Kernel{}, fmt.Errorf("%w: step %v must be positive", ErrInvalidGrid, step)
	}
	if fwhm <= 0 {
		return Kernel{}, fmt.Errorf("spectra: kernel fwhm %v must be positive", fwhm)
	}

	if pad <= 0 {
		pad = fwhm * 20
	}

	var at func(f float64) float64
	switch dist {
	case DistLorentzian:
		at = func(f float64) float64 { return LorentzianAt(f, 0, fwhm) }
	case DistGaussian:
		at = func(f float64) float64 { return GaussianAt(f, 0, fwhm) }
	default:
		return Kernel{}, fmt.Errorf("%w: %v", ErrUnknownDistribution, dist)
	}

	n := int(math.Ceil(2 * pad / step))
	values := make(Sample1D, n)
	for i := range values {
		values[i] = at(-pad + float64(i)*step)
	}

	return Kernel{Values: values, Pad: pad, Step: step}, nil
}
