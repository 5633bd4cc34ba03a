package raster

import "fmt"

// Window selects a pixel region: origin (Range0, Azimuth0) and extent
// (Width range samples, Length azimuth rows).
type Window struct {
	Range0   int `mapstructure:"range0"`
	Azimuth0 int `mapstructure:"azimuth0"`
	Width    int `mapstructure:"width"`
	Length   int `mapstructure:"length"`
}

// Validate reports whether the window has a non-negative origin and a
// positive extent.
func (w Window) Validate() error {
	if w.Range0 < 0 || w.Azimuth0 < 0 || w.Width <= 0 || w.Length <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWindow, w)
	}
	return nil
}

// Fits reports whether the window lies inside a width x length raster.
func (w Window) Fits(width, length int) bool {
	return w.Range0+w.Width <= width && w.Azimuth0+w.Length <= length
}

// String formats the window as "rg0,az0+WxL".
func (w Window) String() string {
	return fmt.Sprintf("%d,%d+%dx%d", w.Range0, w.Azimuth0, w.Width, w.Length)
}

// Complex is a row-major plane of complex samples.
type Complex struct {
	Rows, Cols int
	Data       []complex128
}

// NewComplex allocates a zeroed rows x cols complex plane.
func NewComplex(rows, cols int) *Complex {
	return &Complex{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// ComplexFrom wraps data without copying.
func ComplexFrom(rows, cols int, data []complex128) (*Complex, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrShapeMismatch, len(data), rows, cols)
	}
	return &Complex{Rows: rows, Cols: cols, Data: data}, nil
}

// At returns the sample at row r, column c.
func (z *Complex) At(r, c int) complex128 {
	return z.Data[r*z.Cols+c]
}

// Real is a row-major plane of float32 samples.
type Real struct {
	Rows, Cols int
	Data       []float32
}

// NewReal allocates a zeroed rows x cols real plane.
func NewReal(rows, cols int) *Real {
	return &Real{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns the sample at row r, column c.
func (x *Real) At(r, c int) float32 {
	return x.Data[r*x.Cols+c]
}

// Reader loads a window of a complex raster.
type Reader interface {
	Read(path string, w Window) (*Complex, error)
}
