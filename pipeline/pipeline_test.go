package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-insar/catalog"
	"github.com/cwbudde/algo-insar/dsp/kernel"
	"github.com/cwbudde/algo-insar/insar/coherence"
	"github.com/cwbudde/algo-insar/internal/testutil"
	"github.com/cwbudde/algo-insar/raster"
	"github.com/cwbudde/algo-insar/sink"
	"github.com/cwbudde/algo-insar/stack"
)

const (
	testRows = 16
	testCols = 24
	pol      = "SLC_vv"
)

// writeStack writes one CFLOAT SLC per id and returns the discovered stack.
func writeStack(t *testing.T, slcs map[string][]complex128) *stack.Stack {
	t.Helper()
	workdir := t.TempDir()
	for id, data := range slcs {
		path := stack.SLCPath(workdir, pol, id)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		z, err := raster.ComplexFrom(testRows, testCols, data)
		require.NoError(t, err)
		require.NoError(t, raster.WriteCFloat(path, z))
	}
	st, err := stack.Discover(workdir, pol)
	require.NoError(t, err)
	return st
}

func testEstimator(t *testing.T) *coherence.Estimator {
	t.Helper()
	k, err := kernel.NewUniform(3, 3)
	require.NoError(t, err)
	e, err := coherence.New(k)
	require.NoError(t, err)
	return e
}

func fullWindow() raster.Window {
	return raster.Window{Width: testCols, Length: testRows}
}

func threeAcquisitions() map[string][]complex128 {
	a := testutil.ComplexNoise(1, testRows*testCols)
	return map[string][]complex128{
		"20200101": a,
		"20200113": append([]complex128(nil), a...),
		"20200125": testutil.ComplexNoise(7, testRows*testCols),
	}
}

func TestRunConsecutive(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	out := t.TempDir()

	cat, err := catalog.Open(":memory:")
	require.NoError(t, err)
	defer cat.Close()

	var logs bytes.Buffer
	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      sink.FileSink{Dir: out},
		Catalog:   cat,
		Logger:    log.New(&logs, "", 0),
		Window:    fullWindow(),
	}

	pairs := st.Pairs(stack.PlanConsecutive)
	report, err := r.Run(context.Background(), st, pairs)
	require.NoError(t, err)
	require.Len(t, report.Pairs, 2)
	assert.Equal(t, 2, report.Processed())

	assert.Equal(t, "20200101_20200113", report.Pairs[0].Pair.Name())
	assert.InDelta(t, 1, report.Pairs[0].Stats.Mean, 1e-6)
	assert.Equal(t, "20200113_20200125", report.Pairs[1].Pair.Name())
	assert.Less(t, report.Pairs[1].Stats.Mean, 0.7)

	for _, p := range pairs {
		m, err := raster.ReadFloat32(filepath.Join(out, p.Name()+sink.Extension))
		require.NoError(t, err)
		assert.Equal(t, testRows, m.Rows)
		assert.Equal(t, testCols, m.Cols)
		testutil.RequireInRange(t, m.Data, 0, 1)
		assert.Contains(t, logs.String(), p.Name()+": mean coherence")
	}

	run, err := cat.Run(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusDone, run.Status)
	assert.Equal(t, st.Workdir, run.Workdir)

	recs, err := cat.Pairs(context.Background(), report.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for i, rec := range recs {
		assert.Equal(t, catalog.StatusDone, rec.Status)
		assert.InDelta(t, report.Pairs[i].Stats.Mean, rec.Mean, 1e-12)
	}
}

func TestRunWorkersKeepOrder(t *testing.T) {
	slcs := threeAcquisitions()
	slcs["20200206"] = testutil.ComplexNoise(11, testRows*testCols)
	st := writeStack(t, slcs)

	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      sink.FileSink{Dir: t.TempDir()},
		Workers:   4,
		Window:    fullWindow(),
	}
	pairs := st.Pairs(stack.PlanAll)
	require.Len(t, pairs, 6)

	report, err := r.Run(context.Background(), st, pairs)
	require.NoError(t, err)
	require.Len(t, report.Pairs, len(pairs))
	for i, p := range pairs {
		assert.Equal(t, p.Name(), report.Pairs[i].Pair.Name())
	}
}

func TestRunSubWindow(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	out := t.TempDir()

	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      sink.FileSink{Dir: out},
		Window:    raster.Window{Range0: 4, Azimuth0: 2, Width: 10, Length: 8},
	}
	pairs := st.Pairs(stack.PlanConsecutive)
	_, err := r.Run(context.Background(), st, pairs[:1])
	require.NoError(t, err)

	m, err := raster.ReadFloat32(filepath.Join(out, pairs[0].Name()+sink.Extension))
	require.NoError(t, err)
	assert.Equal(t, 8, m.Rows)
	assert.Equal(t, 10, m.Cols)
}

func TestRunMissingRaster(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	require.NoError(t, os.Remove(st.Acquisitions[2].Path))

	cat, err := catalog.Open(":memory:")
	require.NoError(t, err)
	defer cat.Close()

	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      sink.FileSink{Dir: t.TempDir()},
		Catalog:   cat,
		Window:    fullWindow(),
	}
	report, err := r.Run(context.Background(), st, st.Pairs(stack.PlanConsecutive))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "20200113_20200125")
	require.Len(t, report.Pairs, 1)

	run, err := cat.Run(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusFailed, run.Status)

	recs, err := cat.Pairs(context.Background(), report.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, catalog.StatusFailed, recs[1].Status)
	assert.NotEmpty(t, recs[1].Err)
}

func TestRunWindowOutOfBounds(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      sink.FileSink{Dir: t.TempDir()},
		Window:    raster.Window{Width: testCols + 1, Length: testRows},
	}
	_, err := r.Run(context.Background(), st, st.Pairs(stack.PlanConsecutive))
	require.ErrorIs(t, err, raster.ErrWindowOutOfBounds)
}

type countingSink struct {
	mu    sync.Mutex
	names []string
}

func (c *countingSink) Write(_ context.Context, res sink.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, res.Name())
	return nil
}

func TestRunSkip(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	s := &countingSink{}
	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      s,
		Window:    fullWindow(),
		Skip:      map[string]bool{"20200101_20200113": true},
	}
	report, err := r.Run(context.Background(), st, st.Pairs(stack.PlanConsecutive))
	require.NoError(t, err)
	require.Len(t, report.Pairs, 2)
	assert.True(t, report.Pairs[0].Skipped)
	assert.Equal(t, 1, report.Processed())
	assert.Equal(t, []string{"20200113_20200125"}, s.names)
}

type failingSink struct{ err error }

func (f failingSink) Write(context.Context, sink.Result) error { return f.err }

func TestRunSinkError(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	boom := errors.New("bucket gone")
	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      failingSink{err: boom},
		Window:    fullWindow(),
	}
	report, err := r.Run(context.Background(), st, st.Pairs(stack.PlanConsecutive))
	require.ErrorIs(t, err, boom)
	assert.Empty(t, report.Pairs)
}

// failOnSink rejects one pair and accepts the rest.
type failOnSink struct {
	countingSink
	name string
}

func (f *failOnSink) Write(ctx context.Context, res sink.Result) error {
	if res.Name() == f.name {
		return errors.New("disk full")
	}
	return f.countingSink.Write(ctx, res)
}

func TestRunResumeKeepsCompletedPairs(t *testing.T) {
	ctx := context.Background()
	a := testutil.ComplexNoise(1, testRows*testCols)
	st := writeStack(t, map[string][]complex128{
		"20200101": a,
		"20200113": a,
		"20200125": testutil.ComplexNoise(2, testRows*testCols),
		"20200206": testutil.ComplexNoise(3, testRows*testCols),
	})
	pairs := st.Pairs(stack.PlanConsecutive)
	require.Len(t, pairs, 3)
	names := []string{pairs[0].Name(), pairs[1].Name(), pairs[2].Name()}

	cat, err := catalog.Open(":memory:")
	require.NoError(t, err)
	defer cat.Close()

	newRunner := func(s sink.Sink, runID string) *Runner {
		return &Runner{
			Reader:    raster.ISCEReader{},
			Estimator: testEstimator(t),
			Sink:      s,
			Catalog:   cat,
			Window:    fullWindow(),
			RunID:     runID,
		}
	}

	first, err := newRunner(&failOnSink{name: names[1]}, "").Run(ctx, st, pairs)
	require.Error(t, err)
	runID := first.RunID
	require.NotEmpty(t, runID)
	done, err := cat.Completed(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{names[0]: true}, done)

	s := &failOnSink{name: names[2]}
	second, err := newRunner(s, runID).Run(ctx, st, pairs)
	require.Error(t, err)
	assert.Equal(t, runID, second.RunID)
	assert.Equal(t, []string{names[1]}, s.names)
	done, err = cat.Completed(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{names[0]: true, names[1]: true}, done)

	s = &failOnSink{}
	third, err := newRunner(s, runID).Run(ctx, st, pairs)
	require.NoError(t, err)
	assert.Equal(t, runID, third.RunID)
	assert.Equal(t, []string{names[2]}, s.names)
	assert.Equal(t, 1, third.Processed())
	require.Len(t, third.Pairs, 3)
	assert.True(t, third.Pairs[0].Skipped)
	assert.True(t, third.Pairs[1].Skipped)

	done, err = cat.Completed(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, done, 3)
	run, err := cat.Run(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusDone, run.Status)
}

func TestRunResumeUnknownRun(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	cat, err := catalog.Open(":memory:")
	require.NoError(t, err)
	defer cat.Close()

	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      &countingSink{},
		Catalog:   cat,
		Window:    fullWindow(),
		RunID:     "missing",
	}
	_, err = r.Run(context.Background(), st, st.Pairs(stack.PlanConsecutive))
	require.ErrorIs(t, err, catalog.ErrUnknownRun)
}

func TestRunCanceled(t *testing.T) {
	st := writeStack(t, threeAcquisitions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &countingSink{}
	r := &Runner{
		Reader:    raster.ISCEReader{},
		Estimator: testEstimator(t),
		Sink:      s,
		Window:    fullWindow(),
	}
	_, err := r.Run(ctx, st, st.Pairs(stack.PlanConsecutive))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.names)
}

func TestRunRequiresParts(t *testing.T) {
	st, err := stack.FromIDs("/w", pol, []string{"20200101", "20200113"})
	require.NoError(t, err)
	e := testEstimator(t)

	tests := []struct {
		name string
		r    Runner
		want error
	}{
		{"reader", Runner{Estimator: e, Sink: &countingSink{}, Window: fullWindow()}, ErrNoReader},
		{"estimator", Runner{Reader: raster.ISCEReader{}, Sink: &countingSink{}, Window: fullWindow()}, ErrNoEstimator},
		{"sink", Runner{Reader: raster.ISCEReader{}, Estimator: e, Window: fullWindow()}, ErrNoSink},
		{"window", Runner{Reader: raster.ISCEReader{}, Estimator: e, Sink: &countingSink{}}, raster.ErrInvalidWindow},
		{"catalog", Runner{Reader: raster.ISCEReader{}, Estimator: e, Sink: &countingSink{}, Window: fullWindow(), RunID: "r"}, ErrNoCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.r.Run(context.Background(), st, st.Pairs(stack.PlanConsecutive))
			require.ErrorIs(t, err, tt.want)
		})
	}
}
