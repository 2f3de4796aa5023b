package spectra

import (
	"fmt"

	"specbroad/internal/conv"
)

// Broaden convolves data with a broadening kernel and trims the result
// back onto the original grid.
//
// The full linear convolution has length len(data)+len(kernel)-1; the
// slice starting at int(pad/step) recentres the output so that each
// input sample lines up with the kernel origin. Output length always
// equals input length.
func Broaden(data Sample1D, k Kernel) (Sample1D, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if len(k.Values) == 0 {
		return nil, fmt.Errorf("spectra: empty kernel")
	}

	full, err := conv.Full(data, k.Values)
	if err != nil {
		return nil, err
	}

	padPoints := int(k.Pad / k.Step)
	if padPoints+len(data) > len(full) {
		return nil, fmt.Errorf("spectra: kernel pad %v too large for %d samples at step %v",
			k.Pad, len(data), k.Step)
	}

	return Sample1D(full[padPoints : padPoints+len(data)]).Clone(), nil
}

// ApplyBroadening applies Lorentzian then Gaussian broadening with the
// given FWHM values; a width of zero or less skips that pass.
//
// The order is fixed: the Lorentzian models intrinsic or instrumental
// line width and is applied before the Gaussian smoothing. Convolution
// would commute mathematically, but intermediate output is inspected in
// that order and the sequence is part of the contract.
//
// With both widths disabled the input is returned as a fresh copy, so a
// caller can always mutate or compare the result independently of its
// input.
func ApplyBroadening(data Sample1D, step, lorentzian, gaussian float64) (Sample1D, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	out := data.Clone()

	if lorentzian > 0 {
		k, err := MakeKernel(DistLorentzian, lorentzian, step, 0)
		if err != nil {
			return nil, err
		}

		out, err = Broaden(out, k)
		if err != nil {
			return nil, err
		}
	}

	if gaussian > 0 {
		k, err := MakeKernel(DistGaussian, gaussian, step, 0)
		if err != nil {
			return nil, err
		}

		out, err = Broaden(out, k)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}
