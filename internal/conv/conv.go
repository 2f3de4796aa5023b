// Package conv provides one-shot linear convolution for line-shape
// broadening. Short kernels use a direct time-domain loop; long kernels
// (the common case for broadening kernels, which span many samples at
// their default padding) go through FFT-based overlap-add.
package conv

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var (
	ErrEmptySignal = errors.New("conv: empty signal")
	ErrEmptyKernel = errors.New("conv: empty kernel")
)

// Kernels up to this length are convolved directly; beyond it the FFT
// path wins.
const directThreshold = 64

// Full performs full linear convolution of signal and kernel, returning
// a new slice of length len(signal)+len(kernel)-1.
func Full(signal, kernel []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	// Keep the longer operand as the signal so blocking is effective.
	if len(kernel) > len(signal) {
		signal, kernel = kernel, signal
	}

	if len(kernel) <= directThreshold {
		return direct(signal, kernel), nil
	}

	return overlapAdd(signal, kernel)
}

func direct(signal, kernel []float64) []float64 {
	n := len(signal)
	m := len(kernel)
	out := make([]float64, n+m-1)

	scaled := make([]float64, m)
	for i := 0; i < n; i++ {
		vecmath.ScaleBlock(scaled, kernel, signal[i])
		vecmath.AddBlockInPlace(out[i:i+m], scaled)
	}

	return out
}

// overlapAdd convolves by segmenting the signal into blocks, multiplying
// in the frequency domain, and overlap-adding the block results.
func overlapAdd(signal, kernel []float64) ([]float64, error) {
	m := len(kernel)

	blockSize := nextPowerOf2(m)
	if blockSize < 256 {
		blockSize = 256
	}

	fftSize := nextPowerOf2(blockSize + m - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: FFT plan: %w", err)
	}

	kernelFFT := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelFFT[i] = complex(v, 0)
	}
	if err := plan.Forward(kernelFFT, kernelFFT); err != nil {
		return nil, fmt.Errorf("conv: kernel FFT: %w", err)
	}

	outLen := len(signal) + m - 1
	out := make([]float64, outLen)
	scratch := make([]complex128, fftSize)

	for start := 0; start < len(signal); start += blockSize {
		end := start + blockSize
		if end > len(signal) {
			end = len(signal)
		}

		for i := range scratch {
			scratch[i] = 0
		}
		for i, v := range signal[start:end] {
			scratch[i] = complex(v, 0)
		}

		if err := plan.Forward(scratch, scratch); err != nil {
			return nil, fmt.Errorf("conv: forward FFT: %w", err)
		}

		for i := range scratch {
			scratch[i] *= kernelFFT[i]
		}

		if err := plan.Inverse(scratch, scratch); err != nil {
			return nil, fmt.Errorf("conv: inverse FFT: %w", err)
		}

		blockOut := (end - start) + m - 1
		for i := 0; i < blockOut && start+i < outLen; i++ {
			out[start+i] += real(scratch[i])
		}
	}

	return out, nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}

	return p
}
