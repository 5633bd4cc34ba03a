package buffer

// Sample is the element type of a Plane.
type Sample interface {
	~float32 | ~float64 | ~complex128
}

// Plane is a rows x cols row-major workspace.
type Plane[T Sample] struct {
	rows, cols int
	data       []T
}

// NewPlane returns a zeroed plane. Negative dimensions are treated as 0.
func NewPlane[T Sample](rows, cols int) *Plane[T] {
	p := &Plane[T]{}
	p.Reshape(rows, cols)
	return p
}

// Dims returns the plane shape.
func (p *Plane[T]) Dims() (rows, cols int) {
	return p.rows, p.cols
}

// Samples returns all rows*cols samples.
func (p *Plane[T]) Samples() []T {
	return p.data
}

// Row returns row r as a subslice of Samples.
func (p *Plane[T]) Row(r int) []T {
	return p.data[r*p.cols : (r+1)*p.cols]
}

// Cap returns the number of samples the plane can hold without
// reallocating.
func (p *Plane[T]) Cap() int {
	return cap(p.data)
}

// Reshape sets the shape and zeroes every sample. Existing storage is
// reused when it is large enough.
func (p *Plane[T]) Reshape(rows, cols int) {
	rows, cols = max(rows, 0), max(cols, 0)
	n := rows * cols
	if n > cap(p.data) {
		p.data = make([]T, n)
	} else {
		p.data = p.data[:n]
		clear(p.data)
	}
	p.rows, p.cols = rows, cols
}
