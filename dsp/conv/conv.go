package conv

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-insar/dsp/kernel"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput       = errors.New("conv: empty input")
	ErrEmptyKernel      = errors.New("conv: empty kernel")
	ErrLengthMismatch   = errors.New("conv: buffer length mismatch")
	ErrInvalidBlockSize = errors.New("conv: invalid block size")
	ErrNotSeparable     = errors.New("conv: kernel has no separable factors")
	ErrKernelTooLarge   = errors.New("conv: kernel larger than input in valid mode")
	ErrUnknownAlgorithm = errors.New("conv: unknown algorithm")
)

// Mode specifies the output mode for convolution.
type Mode int

const (
	// ModeFull returns the full convolution result.
	ModeFull Mode = iota

	// ModeSame returns output with the same size as the input plane.
	ModeSame

	// ModeValid returns only the part where the kernel fully overlaps the input.
	ModeValid
)

// Algorithm selects the convolution strategy.
type Algorithm int

const (
	// AlgorithmAuto picks Separable for factored kernels, Direct for tiny
	// kernels and FFT otherwise.
	AlgorithmAuto Algorithm = iota
	AlgorithmDirect
	AlgorithmSeparable
	AlgorithmFFT
)

// String returns the configuration name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmAuto:
		return "auto"
	case AlgorithmDirect:
		return "direct"
	case AlgorithmSeparable:
		return "separable"
	case AlgorithmFFT:
		return "fft"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a configuration name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "auto":
		return AlgorithmAuto, nil
	case "direct":
		return AlgorithmDirect, nil
	case "separable":
		return AlgorithmSeparable, nil
	case "fft":
		return AlgorithmFFT, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// directThreshold is the largest kernel area for which non-separable kernels
// are convolved directly under AlgorithmAuto.
const directThreshold = 64

// OutputDims returns the output size of a rows x cols plane convolved with a
// kr x kc kernel in the given mode.
func OutputDims(rows, cols, kr, kc int, mode Mode) (int, int) {
	switch mode {
	case ModeSame:
		return rows, cols
	case ModeValid:
		return rows - kr + 1, cols - kc + 1
	default:
		return rows + kr - 1, cols + kc - 1
	}
}

// fullOffset returns where output index 0 sits inside the full result.
func fullOffset(kr, kc int, mode Mode) (int, int) {
	switch mode {
	case ModeSame:
		return (kr - 1) / 2, (kc - 1) / 2
	case ModeValid:
		return kr - 1, kc - 1
	default:
		return 0, 0
	}
}

// SameExtent returns how many input samples before and after an output
// position contribute to it in ModeSame, for a kernel of length k along
// one axis.
func SameExtent(k int) (before, after int) {
	off := (k - 1) / 2
	return k - 1 - off, off
}

// Convolve2D convolves a rows x cols plane with k and returns a new plane
// sized according to mode.
func Convolve2D(src []complex128, rows, cols int, k *kernel.Kernel2D, mode Mode, alg Algorithm) ([]complex128, error) {
	if k == nil {
		return nil, ErrEmptyKernel
	}
	kr, kc := k.Dims()
	if err := validateInput(src, rows, cols, kr, kc, mode); err != nil {
		return nil, err
	}

	outRows, outCols := OutputDims(rows, cols, kr, kc, mode)
	dst := make([]complex128, outRows*outCols)
	if err := Convolve2DTo(dst, src, rows, cols, k, mode, alg); err != nil {
		return nil, err
	}
	return dst, nil
}

// Convolve2DTo convolves into a pre-allocated destination.
// dst must have the length given by OutputDims.
func Convolve2DTo(dst, src []complex128, rows, cols int, k *kernel.Kernel2D, mode Mode, alg Algorithm) error {
	if k == nil {
		return ErrEmptyKernel
	}

	switch Resolve(alg, k) {
	case AlgorithmDirect:
		return Direct2D(dst, src, rows, cols, k, mode)
	case AlgorithmSeparable:
		return Separable2D(dst, src, rows, cols, k, mode)
	case AlgorithmFFT:
		oa, err := NewOverlapAdd2D(k, 0, 0)
		if err != nil {
			return err
		}
		return oa.Process(dst, src, rows, cols, mode)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownAlgorithm, alg)
	}
}

// Resolve returns the concrete algorithm Convolve2DTo runs for alg and k.
func Resolve(alg Algorithm, k *kernel.Kernel2D) Algorithm {
	if alg == AlgorithmAuto && k != nil {
		return selectAlgorithm(k)
	}
	return alg
}

func selectAlgorithm(k *kernel.Kernel2D) Algorithm {
	if k.Separable() {
		return AlgorithmSeparable
	}
	kr, kc := k.Dims()
	if kr*kc <= directThreshold {
		return AlgorithmDirect
	}
	return AlgorithmFFT
}

func validateInput(src []complex128, rows, cols, kr, kc int, mode Mode) error {
	if rows <= 0 || cols <= 0 {
		return ErrEmptyInput
	}
	if len(src) != rows*cols {
		return fmt.Errorf("%w: input has %d samples, want %d", ErrLengthMismatch, len(src), rows*cols)
	}
	if mode == ModeValid && (kr > rows || kc > cols) {
		return fmt.Errorf("%w: %dx%d kernel, %dx%d input", ErrKernelTooLarge, kr, kc, rows, cols)
	}
	return nil
}

func validateDst(dst []complex128, rows, cols, kr, kc int, mode Mode) error {
	outRows, outCols := OutputDims(rows, cols, kr, kc, mode)
	if len(dst) != outRows*outCols {
		return fmt.Errorf("%w: output has %d samples, want %d", ErrLengthMismatch, len(dst), outRows*outCols)
	}
	return nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
