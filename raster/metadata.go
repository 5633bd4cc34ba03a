package raster

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ISCE sample types handled here.
const (
	TypeCFloat = "CFLOAT"
	TypeFloat  = "FLOAT"
)

// Metadata is the subset of an ISCE image sidecar this package uses.
type Metadata struct {
	Width     int
	Length    int
	DataType  string
	ByteOrder binary.ByteOrder
}

// SampleSize returns the size in bytes of one sample of the data type.
func (m Metadata) SampleSize() (int, error) {
	switch strings.ToUpper(m.DataType) {
	case TypeCFloat:
		return 8, nil
	case TypeFloat:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, m.DataType)
	}
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type xmlImage struct {
	XMLName    xml.Name      `xml:"imageFile"`
	Properties []xmlProperty `xml:"property"`
}

// ReadMetadata parses an ISCE "<file>.xml" sidecar.
func ReadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}

	var img xmlImage
	if err := xml.Unmarshal(raw, &img); err != nil {
		return Metadata{}, fmt.Errorf("raster: parse %s: %w", path, err)
	}

	m := Metadata{ByteOrder: binary.LittleEndian}
	for _, p := range img.Properties {
		v := strings.TrimSpace(p.Value)
		switch strings.ToLower(p.Name) {
		case "width":
			m.Width, err = strconv.Atoi(v)
		case "length":
			m.Length, err = strconv.Atoi(v)
		case "data_type":
			m.DataType = strings.ToUpper(v)
		case "byte_order":
			if strings.HasPrefix(strings.ToLower(v), "b") {
				m.ByteOrder = binary.BigEndian
			}
		}
		if err != nil {
			return Metadata{}, fmt.Errorf("raster: %s: property %s: %w", path, p.Name, err)
		}
	}
	if m.Width <= 0 {
		return Metadata{}, fmt.Errorf("%w: %s has no width", ErrNoSize, path)
	}
	return m, nil
}

// EncodeMetadata writes an ISCE sidecar describing a single-band BIP image.
func EncodeMetadata(w io.Writer, m Metadata) error {
	order := "l"
	if m.ByteOrder == binary.BigEndian {
		order = "b"
	}
	img := xmlImage{Properties: []xmlProperty{
		{Name: "width", Value: strconv.Itoa(m.Width)},
		{Name: "length", Value: strconv.Itoa(m.Length)},
		{Name: "data_type", Value: m.DataType},
		{Name: "byte_order", Value: order},
		{Name: "number_bands", Value: "1"},
		{Name: "scheme", Value: "BIP"},
		{Name: "access_mode", Value: "read"},
	}}

	out, err := xml.MarshalIndent(img, "", "    ")
	if err != nil {
		return fmt.Errorf("raster: encode metadata: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

// WriteMetadata writes the sidecar for m to path.
func WriteMetadata(path string, m Metadata) error {
	return writeFile(path, func(w io.Writer) error { return EncodeMetadata(w, m) })
}

// MetadataFor returns the sidecar description of a FLOAT map.
func MetadataFor(x *Real) Metadata {
	return Metadata{
		Width:     x.Cols,
		Length:    x.Rows,
		DataType:  TypeFloat,
		ByteOrder: binary.LittleEndian,
	}
}
