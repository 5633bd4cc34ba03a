package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
)

// ISCEReader reads CFLOAT SLC windows from ISCE flat binary files.
//
// The raster width is taken from the "<path>.xml" sidecar. Files without a
// sidecar are read as little-endian CFLOAT with the configured Width, and
// their length is derived from the file size.
type ISCEReader struct {
	Width int
}

// Read loads window w of the raster at path. Only the rows covered by the
// window are read from disk.
func (r ISCEReader) Read(path string, w Window) (*Complex, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: open: %w", err)
	}
	defer f.Close()

	meta, err := r.metadata(path, f)
	if err != nil {
		return nil, err
	}
	if meta.DataType != TypeCFloat {
		return nil, fmt.Errorf("%w: %s is %q, want %s", ErrUnsupportedType, path, meta.DataType, TypeCFloat)
	}
	if !w.Fits(meta.Width, meta.Length) {
		return nil, fmt.Errorf("%w: window %v, raster %dx%d", ErrWindowOutOfBounds, w, meta.Width, meta.Length)
	}

	out := NewComplex(w.Length, w.Width)
	row := make([]byte, 8*w.Width)
	for i := 0; i < w.Length; i++ {
		off := (int64(w.Azimuth0+i)*int64(meta.Width) + int64(w.Range0)) * 8
		if _, err := f.ReadAt(row, off); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %s row %d", ErrShortRead, path, w.Azimuth0+i)
			}
			return nil, fmt.Errorf("raster: read %s: %w", path, err)
		}
		decodeCFloat(out.Data[i*w.Width:(i+1)*w.Width], row, meta.ByteOrder)
	}
	return out, nil
}

func (r ISCEReader) metadata(path string, f *os.File) (Metadata, error) {
	meta, err := ReadMetadata(path + ".xml")
	if err == nil {
		if meta.DataType == "" {
			meta.DataType = TypeCFloat
		}
		if meta.Length > 0 {
			return meta, nil
		}
	} else {
		if !errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, err
		}
		if r.Width <= 0 {
			return Metadata{}, fmt.Errorf("%w: %s has no sidecar and no width is configured", ErrNoSize, path)
		}
		meta = Metadata{Width: r.Width, DataType: TypeCFloat, ByteOrder: binary.LittleEndian}
	}

	st, err := f.Stat()
	if err != nil {
		return Metadata{}, fmt.Errorf("raster: stat: %w", err)
	}
	meta.Length = int(st.Size() / (8 * int64(meta.Width)))
	return meta, nil
}

func decodeCFloat(dst []complex128, src []byte, order binary.ByteOrder) {
	for i := range dst {
		re := math.Float32frombits(order.Uint32(src[8*i:]))
		im := math.Float32frombits(order.Uint32(src[8*i+4:]))
		dst[i] = complex(float64(re), float64(im))
	}
}
