// Package kernel builds the real-valued smoothing kernels used to form local
// coherence estimates.
//
// A Kernel2D holds non-negative weights normalized to sum 1. Kernels built
// from two 1D windows keep their (normalized) factors so that convolution can
// run as a row pass followed by a column pass:
//
//	k, err := kernel.NewGaussian2D(4, 12) // azimuth std, range std
//	rows, cols := k.Dims()                 // 13, 37
//
// Gaussian windows follow the common definition with peak 1 at the centre:
//
//	w[n] = exp(-0.5 * ((n - (M-1)/2) / std)^2),  n = 0..M-1
package kernel
