package conv

import (
	"github.com/cwbudde/algo-insar/dsp/buffer"
	"github.com/cwbudde/algo-insar/dsp/kernel"
)

// passPool holds the intermediate plane of the separable row pass.
var passPool = buffer.NewPool[complex128]()

// Direct2D performs direct 2D convolution with zero padding, writing to a
// pre-allocated destination sized by OutputDims.
//
// This is an O(N*kr*kc) algorithm suitable for small kernels.
func Direct2D(dst, src []complex128, rows, cols int, k *kernel.Kernel2D, mode Mode) error {
	if k == nil {
		return ErrEmptyKernel
	}
	kr, kc := k.Dims()
	if err := validateInput(src, rows, cols, kr, kc, mode); err != nil {
		return err
	}
	if err := validateDst(dst, rows, cols, kr, kc, mode); err != nil {
		return err
	}

	outRows, outCols := OutputDims(rows, cols, kr, kc, mode)
	offR, offC := fullOffset(kr, kc, mode)
	w := k.Data()

	for i := 0; i < outRows; i++ {
		fi := i + offR
		pLo, pHi := max(0, fi-rows+1), min(kr-1, fi)

		for j := 0; j < outCols; j++ {
			fj := j + offC
			qLo, qHi := max(0, fj-cols+1), min(kc-1, fj)

			var re, im float64
			for p := pLo; p <= pHi; p++ {
				srow := src[(fi-p)*cols : (fi-p+1)*cols]
				krow := w[p*kc : (p+1)*kc]
				for q := qLo; q <= qHi; q++ {
					s := srow[fj-q]
					re += real(s) * krow[q]
					im += imag(s) * krow[q]
				}
			}
			dst[i*outCols+j] = complex(re, im)
		}
	}
	return nil
}

// Separable2D convolves with a factored kernel as a range (row) pass followed
// by an azimuth (column) pass.
func Separable2D(dst, src []complex128, rows, cols int, k *kernel.Kernel2D, mode Mode) error {
	if k == nil {
		return ErrEmptyKernel
	}
	if !k.Separable() {
		return ErrNotSeparable
	}
	kr, kc := k.Dims()
	if err := validateInput(src, rows, cols, kr, kc, mode); err != nil {
		return err
	}
	if err := validateDst(dst, rows, cols, kr, kc, mode); err != nil {
		return err
	}

	az, rg := k.Factors()
	outRows, outCols := OutputDims(rows, cols, kr, kc, mode)
	offR, offC := fullOffset(kr, kc, mode)

	tmp := passPool.Get(rows, outCols)
	defer passPool.Put(tmp)
	rowPass(tmp.Samples(), src, rows, cols, outCols, offC, rg)
	colPass(dst, tmp.Samples(), rows, outRows, outCols, offR, az)
	return nil
}

// rowPass convolves every row of src with rg into tmp (rows x outCols).
func rowPass(tmp, src []complex128, rows, cols, outCols, offC int, rg []float64) {
	kc := len(rg)
	for r := 0; r < rows; r++ {
		srow := src[r*cols : (r+1)*cols]
		trow := tmp[r*outCols : (r+1)*outCols]

		for j := range trow {
			fj := j + offC
			qLo, qHi := max(0, fj-cols+1), min(kc-1, fj)

			var re, im float64
			for q := qLo; q <= qHi; q++ {
				s := srow[fj-q]
				re += real(s) * rg[q]
				im += imag(s) * rg[q]
			}
			trow[j] = complex(re, im)
		}
	}
}

// colPass convolves every column of tmp (rows x outCols) with az into dst.
func colPass(dst, tmp []complex128, rows, outRows, outCols, offR int, az []float64) {
	kr := len(az)
	for i := 0; i < outRows; i++ {
		drow := dst[i*outCols : (i+1)*outCols]
		clear(drow)

		fi := i + offR
		pLo, pHi := max(0, fi-rows+1), min(kr-1, fi)
		for p := pLo; p <= pHi; p++ {
			wt := az[p]
			trow := tmp[(fi-p)*outCols : (fi-p+1)*outCols]
			for j, s := range trow {
				drow[j] += complex(real(s)*wt, imag(s)*wt)
			}
		}
	}
}
