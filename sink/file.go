package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-insar/raster"
)

// Extension is appended to the pair name for coherence rasters.
const Extension = ".coh"

// FileSink writes "<Dir>/<ref>_<sec>.coh" with its ".xml" sidecar.
type FileSink struct {
	Dir string
}

// Path returns the raster path written for res.
func (f FileSink) Path(res Result) string {
	return filepath.Join(f.Dir, res.Name()+Extension)
}

// Write implements Sink.
func (f FileSink) Write(ctx context.Context, res Result) error {
	if err := checkResult(res); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return raster.WriteFloat32(f.Path(res), res.Map)
}
