// Package conv provides 2D convolution of complex-valued planes with real,
// non-negative kernels.
//
// Planes are row-major slices with explicit (rows, cols) dimensions. Samples
// outside the plane are treated as zero. Output sizes follow the usual modes:
//
//   - ModeFull:  (rows+kr-1) x (cols+kc-1)
//   - ModeSame:  rows x cols, centred on the full result at ((kr-1)/2, (kc-1)/2)
//   - ModeValid: (rows-kr+1) x (cols-kc+1)
//
// Three strategies are available:
//
//   - Direct: O(N*kr*kc), best for very small kernels
//   - Separable: a row pass then a column pass, O(N*(kr+kc)); requires a
//     kernel built from 1D factors
//   - FFT overlap-add: the plane is cut into tiles, each tile is convolved in
//     the 2D frequency domain and the results are added back in place
//
// # Usage
//
//	out, err := conv.Convolve2D(plane, rows, cols, k, conv.ModeSame, conv.AlgorithmAuto)
//
// For repeated FFT convolution with the same kernel, reuse an [OverlapAdd2D]:
//
//	oa, err := conv.NewOverlapAdd2D(k, 0, 0)
//	err = oa.Process(dst, plane, rows, cols, conv.ModeSame)
//
// Real planes can be convolved by packing two of them into the real and
// imaginary parts of one complex plane; because the kernel is real, the
// parts of the result are the two real convolutions.
package conv
