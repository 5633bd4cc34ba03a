package coherence

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-insar/dsp/buffer"
	"github.com/cwbudde/algo-insar/dsp/conv"
	"github.com/cwbudde/algo-insar/dsp/kernel"
	"github.com/cwbudde/algo-insar/raster"
)

// Errors returned by the estimator.
var (
	ErrNilKernel     = errors.New("coherence: nil kernel")
	ErrNilRaster     = errors.New("coherence: nil raster")
	ErrEmptyRaster   = errors.New("coherence: empty raster")
	ErrShapeMismatch = errors.New("coherence: raster shapes differ")
	ErrUnknownMethod = errors.New("coherence: unknown method")
)

// Method selects the normalization of the smoothed interferogram.
type Method int

const (
	// MethodMagnitude divides by the smoothed interferogram magnitude.
	MethodMagnitude Method = iota
	// MethodIntensity divides by the geometric mean of the smoothed intensities.
	MethodIntensity
)

// String returns the configuration name of the method.
func (m Method) String() string {
	switch m {
	case MethodMagnitude:
		return "magnitude"
	case MethodIntensity:
		return "intensity"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a configuration name to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "", "magnitude":
		return MethodMagnitude, nil
	case "intensity":
		return MethodIntensity, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithMethod selects the normalization.
func WithMethod(m Method) Option {
	return func(e *Estimator) {
		e.method = m
	}
}

// WithAlgorithm forces a convolution algorithm.
func WithAlgorithm(a conv.Algorithm) Option {
	return func(e *Estimator) {
		e.alg = a
	}
}

// WithPool shares a plane pool between estimators.
func WithPool(p *buffer.Pool[complex128]) Option {
	return func(e *Estimator) {
		if p != nil {
			e.planes = p
		}
	}
}

// Estimator computes coherence maps with a fixed kernel.
type Estimator struct {
	kernel *kernel.Kernel2D
	method Method
	alg    conv.Algorithm

	// masked is set on the FFT path, where rounding noise replaces exact
	// zeros and 0/0 pixels are found by counting nonzero input samples
	// under the kernel footprint instead.
	masked bool

	planes  *buffer.Pool[complex128]
	scratch *buffer.Pool[float64]
}

// New returns an Estimator for k.
func New(k *kernel.Kernel2D, opts ...Option) (*Estimator, error) {
	if k == nil {
		return nil, ErrNilKernel
	}

	e := &Estimator{
		kernel:  k,
		method:  MethodMagnitude,
		alg:     conv.AlgorithmAuto,
		planes:  buffer.NewPool[complex128](),
		scratch: buffer.NewPool[float64](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if e.method != MethodMagnitude && e.method != MethodIntensity {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, e.method)
	}
	e.alg = conv.Resolve(e.alg, k)
	switch e.alg {
	case conv.AlgorithmDirect:
	case conv.AlgorithmSeparable:
		if !k.Separable() {
			return nil, fmt.Errorf("coherence: %w", conv.ErrNotSeparable)
		}
	case conv.AlgorithmFFT:
		e.masked = true
	default:
		return nil, fmt.Errorf("coherence: %w: %v", conv.ErrUnknownAlgorithm, e.alg)
	}
	return e, nil
}

// Kernel returns the smoothing kernel.
func (e *Estimator) Kernel() *kernel.Kernel2D { return e.kernel }

// Method returns the normalization method.
func (e *Estimator) Method() Method { return e.method }

// Algorithm returns the resolved convolution algorithm.
func (e *Estimator) Algorithm() conv.Algorithm { return e.alg }

// Estimate returns the coherence map of ref and sec.
func (e *Estimator) Estimate(ref, sec *raster.Complex) (*raster.Real, error) {
	if err := checkPair(ref, sec); err != nil {
		return nil, err
	}
	out := raster.NewReal(ref.Rows, ref.Cols)
	if err := e.EstimateTo(out, ref, sec); err != nil {
		return nil, err
	}
	return out, nil
}

// EstimateTo writes the coherence map of ref and sec into dst, which must
// have the same shape as the inputs.
func (e *Estimator) EstimateTo(dst *raster.Real, ref, sec *raster.Complex) error {
	if err := checkPair(ref, sec); err != nil {
		return err
	}
	if dst == nil {
		return ErrNilRaster
	}
	if dst.Rows != ref.Rows || dst.Cols != ref.Cols || len(dst.Data) != len(ref.Data) {
		return fmt.Errorf("%w: output %dx%d, input %dx%d", ErrShapeMismatch, dst.Rows, dst.Cols, ref.Rows, ref.Cols)
	}

	rows, cols := ref.Rows, ref.Cols

	ifg := e.planes.Get(rows, cols)
	defer e.planes.Put(ifg)
	norm := e.planes.Get(rows, cols)
	defer e.planes.Put(norm)
	smooth := e.planes.Get(rows, cols)
	defer e.planes.Put(smooth)
	scratch := e.scratch.Get(4, cols)
	defer e.scratch.Put(scratch)

	e.products(ifg.Samples(), norm.Samples(), ref, sec, scratch.Samples())

	if err := conv.Convolve2DTo(smooth.Samples(), ifg.Samples(), rows, cols, e.kernel, conv.ModeSame, e.alg); err != nil {
		return fmt.Errorf("coherence: smooth interferogram: %w", err)
	}
	// The raw interferogram is no longer needed; its plane takes the
	// smoothed normalization terms.
	if err := conv.Convolve2DTo(ifg.Samples(), norm.Samples(), rows, cols, e.kernel, conv.ModeSame, e.alg); err != nil {
		return fmt.Errorf("coherence: smooth normalization: %w", err)
	}

	e.ratio(dst.Data, smooth.Samples(), ifg.Samples(), norm.Samples(), cols, scratch.Samples())
	return nil
}

// products fills ifg with r1·conj(r2) and norm with the terms to be smoothed
// for the denominator: |r1·conj(r2)| for MethodMagnitude, |r1|² + i·|r2|²
// for MethodIntensity. Both are real, so packing them into one complex plane
// costs a single convolution.
func (e *Estimator) products(ifg, norm []complex128, ref, sec *raster.Complex, scratch []float64) {
	cols := ref.Cols
	re, im := scratch[:cols], scratch[cols:2*cols]
	p1, p2 := scratch[2*cols:3*cols], scratch[3*cols:4*cols]

	for r := 0; r < ref.Rows; r++ {
		lo, hi := r*cols, (r+1)*cols
		x, y := ref.Data[lo:hi], sec.Data[lo:hi]
		c, d := ifg[lo:hi], norm[lo:hi]

		for i := range c {
			c[i] = x[i] * cmplx.Conj(y[i])
		}

		switch e.method {
		case MethodIntensity:
			split(re, im, x)
			vecmath.Power(p1, re, im)
			split(re, im, y)
			vecmath.Power(p2, re, im)
			for i := range d {
				d[i] = complex(p1[i], p2[i])
			}
		default:
			split(re, im, c)
			vecmath.Magnitude(p1, re, im)
			for i := range d {
				d[i] = complex(p1[i], 0)
			}
		}
	}
}

// ratio writes |smooth| / denominator(smoothed) into dst, mapping vanishing
// denominators and NaN to 0 and clamping to [0,1]. raw holds the unsmoothed
// denominator terms.
func (e *Estimator) ratio(dst []float32, smooth, smoothed, raw []complex128, cols int, scratch []float64) {
	var sup *support
	if e.masked {
		kr, kc := e.kernel.Dims()
		sup = newSupport(raw, len(dst)/cols, cols, kr, kc)
	}

	re, im, mag := scratch[:cols], scratch[cols:2*cols], scratch[2*cols:3*cols]
	for r, lo := 0, 0; lo < len(dst); r, lo = r+1, lo+cols {
		split(re, im, smooth[lo:lo+cols])
		vecmath.Magnitude(mag, re, im)
		if sup != nil {
			sup.advance(r)
		}

		out := dst[lo : lo+cols]
		for i := range out {
			if sup != nil && !sup.defined(i, e.method) {
				out[i] = 0
				continue
			}
			d := e.denominator(smoothed[lo+i])
			if !(d > 0) {
				out[i] = 0
				continue
			}
			g := mag[i] / d
			switch {
			case math.IsNaN(g) || g < 0:
				g = 0
			case g > 1:
				g = 1
			}
			out[i] = float32(g)
		}
	}
}

// support counts, for one output row at a time, the nonzero real and
// imaginary parts of raw that fall under the kernel footprint. Counting is
// exact, so pixels that only see zeros are recognized however small the
// surrounding values are.
type support struct {
	raw              []complex128
	rows, cols       int
	above, below     int // rows before and after the output row
	left, right      int // columns before and after the output column
	countRe, countIm []int32
	preRe, preIm     []int32
}

func newSupport(raw []complex128, rows, cols, kr, kc int) *support {
	s := &support{
		raw:     raw,
		rows:    rows,
		cols:    cols,
		countRe: make([]int32, cols),
		countIm: make([]int32, cols),
		preRe:   make([]int32, cols+1),
		preIm:   make([]int32, cols+1),
	}
	s.above, s.below = conv.SameExtent(kr)
	s.left, s.right = conv.SameExtent(kc)
	return s
}

// advance moves the window to output row r. Rows must be visited in order
// starting at 0.
func (s *support) advance(r int) {
	if r == 0 {
		for in := 0; in <= min(s.below, s.rows-1); in++ {
			s.add(in, 1)
		}
		return
	}
	if in := r + s.below; in < s.rows {
		s.add(in, 1)
	}
	if out := r - s.above - 1; out >= 0 {
		s.add(out, -1)
	}
}

// add adds sign times the horizontal window counts of input row in.
func (s *support) add(in int, sign int32) {
	row := s.raw[in*s.cols : (in+1)*s.cols]
	for c, v := range row {
		s.preRe[c+1] = s.preRe[c]
		s.preIm[c+1] = s.preIm[c]
		if real(v) != 0 {
			s.preRe[c+1]++
		}
		if imag(v) != 0 {
			s.preIm[c+1]++
		}
	}
	for c := range s.countRe {
		lo, hi := max(0, c-s.left), min(s.cols, c+s.right+1)
		s.countRe[c] += sign * (s.preRe[hi] - s.preRe[lo])
		s.countIm[c] += sign * (s.preIm[hi] - s.preIm[lo])
	}
}

// defined reports whether column c of the current row has data under the
// footprint: a nonzero |r1·conj(r2)| for MethodMagnitude, nonzero |r1|² and
// |r2|² for MethodIntensity.
func (s *support) defined(c int, m Method) bool {
	if m == MethodIntensity {
		return s.countRe[c] > 0 && s.countIm[c] > 0
	}
	return s.countRe[c] > 0
}

func (e *Estimator) denominator(v complex128) float64 {
	if e.method == MethodIntensity {
		a, b := real(v), imag(v)
		if a <= 0 || b <= 0 {
			return 0
		}
		return math.Sqrt(a * b)
	}
	return real(v)
}

func split(re, im []float64, z []complex128) {
	for i, v := range z {
		re[i] = real(v)
		im[i] = imag(v)
	}
}

func checkPair(ref, sec *raster.Complex) error {
	if ref == nil || sec == nil {
		return ErrNilRaster
	}
	if ref.Rows <= 0 || ref.Cols <= 0 || len(ref.Data) != ref.Rows*ref.Cols {
		return fmt.Errorf("%w: reference %dx%d with %d samples", ErrEmptyRaster, ref.Rows, ref.Cols, len(ref.Data))
	}
	if sec.Rows != ref.Rows || sec.Cols != ref.Cols || len(sec.Data) != len(ref.Data) {
		return fmt.Errorf("%w: reference %dx%d, secondary %dx%d", ErrShapeMismatch, ref.Rows, ref.Cols, sec.Rows, sec.Cols)
	}
	return nil
}
