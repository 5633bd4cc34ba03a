package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// EncodeFloat32 writes x as little-endian float32 samples, row by row.
func EncodeFloat32(w io.Writer, x *Real) error {
	if len(x.Data) != x.Rows*x.Cols {
		return fmt.Errorf("%w: %d samples for %dx%d", ErrShapeMismatch, len(x.Data), x.Rows, x.Cols)
	}
	row := make([]byte, 4*x.Cols)
	for r := 0; r < x.Rows; r++ {
		for c, v := range x.Data[r*x.Cols : (r+1)*x.Cols] {
			binary.LittleEndian.PutUint32(row[4*c:], math.Float32bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteFloat32 writes x to path as an ISCE FLOAT image with its sidecar.
func WriteFloat32(path string, x *Real) error {
	if err := writeFile(path, func(w io.Writer) error { return EncodeFloat32(w, x) }); err != nil {
		return err
	}
	return WriteMetadata(path+".xml", MetadataFor(x))
}

// ReadFloat32 reads a complete ISCE FLOAT image described by "<path>.xml".
func ReadFloat32(path string) (*Real, error) {
	meta, err := ReadMetadata(path + ".xml")
	if err != nil {
		return nil, err
	}
	if meta.DataType != TypeFloat {
		return nil, fmt.Errorf("%w: %s is %q, want %s", ErrUnsupportedType, path, meta.DataType, TypeFloat)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: read: %w", err)
	}
	if len(raw) < 4*meta.Width*meta.Length {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrShortRead, path, len(raw))
	}

	x := NewReal(meta.Length, meta.Width)
	for i := range x.Data {
		x.Data[i] = math.Float32frombits(meta.ByteOrder.Uint32(raw[4*i:]))
	}
	return x, nil
}

// WriteCFloat writes z to path as an ISCE CFLOAT image with its sidecar.
func WriteCFloat(path string, z *Complex) error {
	err := writeFile(path, func(w io.Writer) error {
		row := make([]byte, 8*z.Cols)
		for r := 0; r < z.Rows; r++ {
			for c, v := range z.Data[r*z.Cols : (r+1)*z.Cols] {
				binary.LittleEndian.PutUint32(row[8*c:], math.Float32bits(float32(real(v))))
				binary.LittleEndian.PutUint32(row[8*c+4:], math.Float32bits(float32(imag(v))))
			}
			if _, err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return WriteMetadata(path+".xml", Metadata{
		Width:     z.Cols,
		Length:    z.Rows,
		DataType:  TypeCFloat,
		ByteOrder: binary.LittleEndian,
	})
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raster: create: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw); err != nil {
		f.Close()
		return fmt.Errorf("raster: write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("raster: write %s: %w", path, err)
	}
	return f.Close()
}
