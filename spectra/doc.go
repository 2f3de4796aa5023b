// Package spectra implements the signal-processing core for comparing
// simulated spectroscopic data with experiment: resampling of scattered
// (x, y) data onto a uniform grid, convolution-based Gaussian and
// Lorentzian broadening, and photoionization cross-section weighting of
// orbital-projected intensities.
//
// The usual sequence is Resample -> ApplyBroadening -> ApplyOrbitalWeights,
// driven end-to-end by the pipeline package. All operations return fresh
// slices; inputs are never mutated, so pre- and post-broadening data can
// be compared side by side.
package spectra
