package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-insar/dsp/kernel"
)

// OverlapAdd2D implements tiled FFT convolution using the overlap-add method.
//
// The algorithm:
// 1. Cut the input plane into non-overlapping blockRows x blockCols tiles
// 2. Zero-pad each tile and the kernel to the 2D FFT size
// 3. Convolve via multiplication in the 2D frequency domain
// 4. Add each tile result back at the tile origin, cropped to the output mode
//
// An OverlapAdd2D holds scratch buffers and is not safe for concurrent use.
type OverlapAdd2D struct {
	// Kernel in frequency domain, fftRows x fftCols
	kernelFFT []complex128

	kernelRows, kernelCols int
	blockRows, blockCols   int
	fftRows, fftCols       int

	// rowPlan transforms along a row (length fftCols), colPlan along a column.
	rowPlan *algofft.Plan[complex128]
	colPlan *algofft.Plan[complex128]

	// Scratch buffers
	tile   []complex128
	column []complex128
}

// NewOverlapAdd2D creates an overlap-add convolver for k. A block size of 0
// selects a size from the kernel dimension on that axis.
func NewOverlapAdd2D(k *kernel.Kernel2D, blockRows, blockCols int) (*OverlapAdd2D, error) {
	if k == nil {
		return nil, ErrEmptyKernel
	}
	if blockRows < 0 || blockCols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBlockSize, blockRows, blockCols)
	}

	kr, kc := k.Dims()
	if blockRows == 0 {
		blockRows = autoBlockSize(kr)
	}
	if blockCols == 0 {
		blockCols = autoBlockSize(kc)
	}

	// FFT size must accommodate block + kernel - 1 on each axis for linear convolution
	fftRows := nextPowerOf2(blockRows + kr - 1)
	fftCols := nextPowerOf2(blockCols + kc - 1)

	rowPlan, err := algofft.NewPlan64(fftCols)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create row FFT plan: %w", err)
	}
	colPlan, err := algofft.NewPlan64(fftRows)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create column FFT plan: %w", err)
	}

	oa := &OverlapAdd2D{
		kernelFFT:  make([]complex128, fftRows*fftCols),
		kernelRows: kr,
		kernelCols: kc,
		blockRows:  blockRows,
		blockCols:  blockCols,
		fftRows:    fftRows,
		fftCols:    fftCols,
		rowPlan:    rowPlan,
		colPlan:    colPlan,
		tile:       make([]complex128, fftRows*fftCols),
		column:     make([]complex128, fftRows),
	}

	for r := 0; r < kr; r++ {
		for c := 0; c < kc; c++ {
			oa.kernelFFT[r*fftCols+c] = complex(k.At(r, c), 0)
		}
	}
	if err := oa.forward2D(oa.kernelFFT); err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return oa, nil
}

// autoBlockSize picks a block so that block+kernel-1 fills a power-of-two FFT
// of at least 64 and at least four kernel lengths.
func autoBlockSize(kernelLen int) int {
	fftSize := nextPowerOf2(4 * kernelLen)
	if fftSize < 64 {
		fftSize = 64
	}
	return fftSize - kernelLen + 1
}

// BlockSize returns the input tile size as (rows, cols).
func (oa *OverlapAdd2D) BlockSize() (int, int) {
	return oa.blockRows, oa.blockCols
}

// FFTSize returns the 2D FFT size used internally as (rows, cols).
func (oa *OverlapAdd2D) FFTSize() (int, int) {
	return oa.fftRows, oa.fftCols
}

// Process convolves a rows x cols plane and writes the result, cropped to
// mode, into dst. dst must have the length given by OutputDims.
func (oa *OverlapAdd2D) Process(dst, src []complex128, rows, cols int, mode Mode) error {
	kr, kc := oa.kernelRows, oa.kernelCols
	if err := validateInput(src, rows, cols, kr, kc, mode); err != nil {
		return err
	}
	if err := validateDst(dst, rows, cols, kr, kc, mode); err != nil {
		return err
	}

	outRows, outCols := OutputDims(rows, cols, kr, kc, mode)
	offR, offC := fullOffset(kr, kc, mode)
	clear(dst)

	for r0 := 0; r0 < rows; r0 += oa.blockRows {
		tileRows := min(oa.blockRows, rows-r0)

		for c0 := 0; c0 < cols; c0 += oa.blockCols {
			tileCols := min(oa.blockCols, cols-c0)

			// Zero-pad the input tile to FFT size
			clear(oa.tile)
			for r := 0; r < tileRows; r++ {
				copy(oa.tile[r*oa.fftCols:r*oa.fftCols+tileCols], src[(r0+r)*cols+c0:(r0+r)*cols+c0+tileCols])
			}

			if err := oa.forward2D(oa.tile); err != nil {
				return fmt.Errorf("conv: forward FFT failed: %w", err)
			}
			for i := range oa.tile {
				oa.tile[i] *= oa.kernelFFT[i]
			}
			if err := oa.inverse2D(oa.tile); err != nil {
				return fmt.Errorf("conv: inverse FFT failed: %w", err)
			}

			// Overlap-add the tile result into the output window. Result
			// sample (u, v) belongs to full index (r0+u, c0+v).
			resRows := tileRows + kr - 1
			resCols := tileCols + kc - 1
			uLo, uHi := max(0, offR-r0), min(resRows, outRows+offR-r0)
			vLo, vHi := max(0, offC-c0), min(resCols, outCols+offC-c0)
			for u := uLo; u < uHi; u++ {
				drow := dst[(r0+u-offR)*outCols:]
				trow := oa.tile[u*oa.fftCols:]
				for v := vLo; v < vHi; v++ {
					drow[c0+v-offC] += trow[v]
				}
			}
		}
	}
	return nil
}

// forward2D transforms an fftRows x fftCols buffer in place.
func (oa *OverlapAdd2D) forward2D(buf []complex128) error {
	for r := 0; r < oa.fftRows; r++ {
		row := buf[r*oa.fftCols : (r+1)*oa.fftCols]
		if err := oa.rowPlan.Forward(row, row); err != nil {
			return err
		}
	}
	for c := 0; c < oa.fftCols; c++ {
		oa.gatherColumn(buf, c)
		if err := oa.colPlan.Forward(oa.column, oa.column); err != nil {
			return err
		}
		oa.scatterColumn(buf, c)
	}
	return nil
}

// inverse2D applies the normalized inverse transform in place.
func (oa *OverlapAdd2D) inverse2D(buf []complex128) error {
	for c := 0; c < oa.fftCols; c++ {
		oa.gatherColumn(buf, c)
		if err := oa.colPlan.Inverse(oa.column, oa.column); err != nil {
			return err
		}
		oa.scatterColumn(buf, c)
	}
	for r := 0; r < oa.fftRows; r++ {
		row := buf[r*oa.fftCols : (r+1)*oa.fftCols]
		if err := oa.rowPlan.Inverse(row, row); err != nil {
			return err
		}
	}
	return nil
}

func (oa *OverlapAdd2D) gatherColumn(buf []complex128, c int) {
	for r := range oa.column {
		oa.column[r] = buf[r*oa.fftCols+c]
	}
}

func (oa *OverlapAdd2D) scatterColumn(buf []complex128, c int) {
	for r, v := range oa.column {
		buf[r*oa.fftCols+c] = v
	}
}
