package buffer

import "testing"

func TestNewPlaneZeroed(t *testing.T) {
	p := NewPlane[complex128](3, 4)
	rows, cols := p.Dims()
	if rows != 3 || cols != 4 || len(p.Samples()) != 12 {
		t.Fatalf("shape %dx%d with %d samples", rows, cols, len(p.Samples()))
	}
	for i, v := range p.Samples() {
		if v != 0 {
			t.Fatalf("sample[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewPlaneNegative(t *testing.T) {
	p := NewPlane[float64](-1, 5)
	if rows, cols := p.Dims(); rows != 0 || cols != 5 || len(p.Samples()) != 0 {
		t.Fatalf("got %dx%d, %d samples", rows, cols, len(p.Samples()))
	}
}

func TestPlaneRow(t *testing.T) {
	p := NewPlane[float32](2, 3)
	copy(p.Row(1), []float32{7, 8, 9})
	want := []float32{0, 0, 0, 7, 8, 9}
	for i, v := range p.Samples() {
		if v != want[i] {
			t.Fatalf("sample[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestReshapeReusesAndClears(t *testing.T) {
	p := NewPlane[complex128](4, 4)
	for i := range p.Samples() {
		p.Samples()[i] = complex(float64(i), 1)
	}
	before := &p.Samples()[0]

	p.Reshape(2, 8)
	if &p.Samples()[0] != before {
		t.Fatal("reshape within capacity reallocated")
	}
	for i, v := range p.Samples() {
		if v != 0 {
			t.Fatalf("sample[%d] = %v after reshape", i, v)
		}
	}

	p.Reshape(5, 5)
	if p.Cap() < 25 || len(p.Samples()) != 25 {
		t.Fatalf("grow: len %d cap %d", len(p.Samples()), p.Cap())
	}
}
