package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Kernel2D is an immutable 2D weight array normalized to sum 1.
// Rows run along azimuth, columns along range.
type Kernel2D struct {
	rows, cols int
	data       []float64

	// Normalized 1D factors; nil unless the kernel was built separably.
	az, rg []float64
}

// NewSeparable builds the outer product az ⊗ rg and normalizes it to sum 1.
// Both factors are copied and normalized individually, so Factors returns
// windows whose outer product equals the kernel.
func NewSeparable(az, rg []float64) (*Kernel2D, error) {
	if err := validateLength(len(az)); err != nil {
		return nil, fmt.Errorf("azimuth factor: %w", err)
	}
	if err := validateLength(len(rg)); err != nil {
		return nil, fmt.Errorf("range factor: %w", err)
	}

	azN, err := normalized(az)
	if err != nil {
		return nil, fmt.Errorf("azimuth factor: %w", err)
	}
	rgN, err := normalized(rg)
	if err != nil {
		return nil, fmt.Errorf("range factor: %w", err)
	}

	var outer mat.Dense
	outer.Outer(1, mat.NewVecDense(len(azN), azN), mat.NewVecDense(len(rgN), rgN))

	data := make([]float64, 0, len(azN)*len(rgN))
	for r := range azN {
		data = append(data, outer.RawRowView(r)...)
	}
	floats.Scale(1/floats.Sum(data), data)

	return &Kernel2D{
		rows: len(azN),
		cols: len(rgN),
		data: data,
		az:   azN,
		rg:   rgN,
	}, nil
}

// NewGaussian2D builds the separable Gaussian kernel with lengths
// LengthForStd(stdAz) x LengthForStd(stdRg).
func NewGaussian2D(stdAz, stdRg float64) (*Kernel2D, error) {
	az, err := Gaussian(LengthForStd(stdAz), stdAz)
	if err != nil {
		return nil, fmt.Errorf("azimuth: %w", err)
	}
	rg, err := Gaussian(LengthForStd(stdRg), stdRg)
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	return NewSeparable(az, rg)
}

// NewUniform returns a rows x cols boxcar with every weight 1/(rows*cols).
func NewUniform(rows, cols int) (*Kernel2D, error) {
	if err := validateLength(rows); err != nil {
		return nil, err
	}
	if err := validateLength(cols); err != nil {
		return nil, err
	}

	az := make([]float64, rows)
	rg := make([]float64, cols)
	for i := range az {
		az[i] = 1
	}
	for i := range rg {
		rg[i] = 1
	}
	return NewSeparable(az, rg)
}

// NewFromData wraps an arbitrary non-negative row-major weight array.
// The data is copied and normalized; the result has no separable factors.
func NewFromData(rows, cols int, data []float64) (*Kernel2D, error) {
	if err := validateLength(rows); err != nil {
		return nil, err
	}
	if err := validateLength(cols); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDataLength, len(data), rows*cols)
	}

	n, err := normalized(data)
	if err != nil {
		return nil, err
	}
	return &Kernel2D{rows: rows, cols: cols, data: n}, nil
}

// Dims returns the kernel size as (rows, cols).
func (k *Kernel2D) Dims() (rows, cols int) {
	return k.rows, k.cols
}

// At returns the weight at row r, column c.
func (k *Kernel2D) At(r, c int) float64 {
	return k.data[r*k.cols+c]
}

// Data returns the row-major weights. Callers must not modify the slice.
func (k *Kernel2D) Data() []float64 {
	return k.data
}

// Sum returns the sum of all weights (1 up to rounding).
func (k *Kernel2D) Sum() float64 {
	return floats.Sum(k.data)
}

// Separable reports whether the kernel carries 1D factors.
func (k *Kernel2D) Separable() bool {
	return k.az != nil && k.rg != nil
}

// Factors returns the normalized azimuth and range windows, or nil slices
// for non-separable kernels. Callers must not modify the slices.
func (k *Kernel2D) Factors() (az, rg []float64) {
	return k.az, k.rg
}

// EquivalentLooks returns 1/sum(w^2), the number of independent samples a
// normalized kernel averages over.
func (k *Kernel2D) EquivalentLooks() float64 {
	ss := floats.Dot(k.data, k.data)
	if ss == 0 {
		return 0
	}
	return 1 / ss
}

func normalized(w []float64) ([]float64, error) {
	if err := validateWeights(w); err != nil {
		return nil, err
	}
	s := floats.Sum(w)
	if s == 0 {
		return nil, ErrZeroSum
	}
	out := make([]float64, len(w))
	floats.ScaleTo(out, 1/s, w)
	return out, nil
}
