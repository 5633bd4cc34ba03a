package raster

import "errors"

// Errors returned by raster readers and writers.
var (
	ErrInvalidWindow     = errors.New("raster: invalid window")
	ErrWindowOutOfBounds = errors.New("raster: window exceeds raster extent")
	ErrUnsupportedType   = errors.New("raster: unsupported data type")
	ErrShortRead         = errors.New("raster: file shorter than described")
	ErrNoSize            = errors.New("raster: raster width unknown")
	ErrShapeMismatch     = errors.New("raster: data length does not match dimensions")
)
