// Package sink defines where coherence maps go once a pair is processed.
//
// A Sink receives one Result per pair. FileSink writes ISCE FLOAT rasters,
// QuicklookSink writes downsampled TIFF previews, S3Sink uploads the raster
// to a bucket, and Multi fans a result out to several sinks.
package sink

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-insar/raster"
	"github.com/cwbudde/algo-insar/stats/summary"
)

// Result is the output of one processed pair.
type Result struct {
	Ref, Sec string
	Map      *raster.Real
	Stats    summary.Stats
}

// Name returns "<ref>_<sec>", the base name of every file written for the pair.
func (r Result) Name() string {
	return PairName(r.Ref, r.Sec)
}

// PairName returns the output base name of a pair.
func PairName(ref, sec string) string {
	return ref + "_" + sec
}

// Sink consumes results. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, res Result) error
}

// Multi returns a Sink that writes each result to every non-nil sink in
// order and stops at the first error.
func Multi(sinks ...Sink) Sink {
	m := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

type multi []Sink

func (m multi) Write(ctx context.Context, res Result) error {
	for _, s := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Write(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

func checkResult(res Result) error {
	if res.Map == nil {
		return fmt.Errorf("sink: %s: nil map", res.Name())
	}
	return nil
}
