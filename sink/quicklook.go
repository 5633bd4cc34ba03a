package sink

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"golang.org/x/image/tiff"

	"github.com/cwbudde/algo-insar/raster"
)

// DefaultQuicklookDim is the default longest side of a quicklook in pixels.
const DefaultQuicklookDim = 1024

// QuicklookSink writes "<Dir>/<ref>_<sec>.coh.tif", an 8-bit grayscale
// preview with coherence 0..1 mapped to 0..255. Maps larger than MaxDim
// on either side are downsampled, keeping the aspect ratio.
type QuicklookSink struct {
	Dir    string
	MaxDim int
}

// Path returns the TIFF path written for res.
func (q QuicklookSink) Path(res Result) string {
	return filepath.Join(q.Dir, res.Name()+Extension+".tif")
}

// Write implements Sink.
func (q QuicklookSink) Write(ctx context.Context, res Result) error {
	if err := checkResult(res); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img := Quicklook(res.Map, q.MaxDim)

	if err := os.MkdirAll(q.Dir, 0o755); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	f, err := os.Create(q.Path(res))
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		f.Close()
		return fmt.Errorf("sink: encode %s: %w", q.Path(res), err)
	}
	return f.Close()
}

// Quicklook renders x as a grayscale image no larger than maxDim on either
// side. maxDim <= 0 selects DefaultQuicklookDim.
func Quicklook(x *raster.Real, maxDim int) image.Image {
	if maxDim <= 0 {
		maxDim = DefaultQuicklookDim
	}

	img := image.NewGray(image.Rect(0, 0, x.Cols, x.Rows))
	for r := 0; r < x.Rows; r++ {
		row := img.Pix[r*img.Stride : r*img.Stride+x.Cols]
		for c, v := range x.Data[r*x.Cols : (r+1)*x.Cols] {
			row[c] = grayLevel(v)
		}
	}

	if x.Cols <= maxDim && x.Rows <= maxDim {
		return img
	}
	return resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Bilinear)
}

func grayLevel(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
