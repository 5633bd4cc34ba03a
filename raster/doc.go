// Package raster holds complex SLC and real-valued raster planes and reads and
// writes them in the ISCE flat binary layout.
//
// ISCE images are headerless, row-major, band-interleaved-by-pixel files. A
// sidecar "<file>.xml" describes width (range samples per row), length
// (azimuth rows) and sample type. SLCs are CFLOAT: interleaved float32 real
// and imaginary parts. Coherence maps are written as FLOAT.
//
// Rows run along azimuth and columns along range throughout this module.
package raster
