package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return c
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	info := RunInfo{
		Workdir:      "/data/stack",
		Polarization: "SLC_vv",
		Window:       "rg 0+30000, az 0+3500",
		Kernel:       "gaussian 13x37",
	}
	id, err := c.BeginRun(ctx, info)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	run, err := c.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, info, run.RunInfo)
	assert.Equal(t, StatusRunning, run.Status)
	assert.True(t, run.Finished.IsZero())

	require.NoError(t, c.FinishRun(ctx, id, StatusDone))
	run, err = c.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, run.Status)
	assert.True(t, run.Finished.After(run.Started))
}

func TestPairsRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	id, err := c.BeginRun(ctx, RunInfo{Workdir: "w", Polarization: "p", Window: "x", Kernel: "k"})
	require.NoError(t, err)

	recs := []PairRecord{
		{Reference: "20200113", Secondary: "20200125", Status: StatusFailed, Err: "short read"},
		{Reference: "20200101", Secondary: "20200113", Status: StatusDone, Mean: 0.42, StdDev: 0.1, Valid: 0.9, Elapsed: 1500 * time.Millisecond},
	}
	for _, r := range recs {
		require.NoError(t, c.RecordPair(ctx, id, r))
	}

	got, err := c.Pairs(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[1], got[0])
	assert.Equal(t, recs[0], got[1])

	done, err := c.Completed(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"20200101_20200113": true}, done)
}

func TestRecordPairReplaces(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	id, err := c.BeginRun(ctx, RunInfo{})
	require.NoError(t, err)

	p := PairRecord{Reference: "a", Secondary: "b", Status: StatusFailed, Err: "boom"}
	require.NoError(t, c.RecordPair(ctx, id, p))
	p.Status, p.Err, p.Mean = StatusDone, "", 0.7
	require.NoError(t, c.RecordPair(ctx, id, p))

	got, err := c.Pairs(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusDone, got[0].Status)
	assert.InDelta(t, 0.7, got[0].Mean, 1e-12)
}

func TestUnknownRun(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	_, err := c.Run(ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownRun)
	require.ErrorIs(t, c.FinishRun(ctx, "missing", StatusDone), ErrUnknownRun)

	got, err := c.Pairs(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResumeRun(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)
	id, err := c.BeginRun(ctx, RunInfo{Workdir: "w"})
	require.NoError(t, err)
	require.NoError(t, c.RecordPair(ctx, id, PairRecord{Reference: "a", Secondary: "b", Status: StatusDone}))
	require.NoError(t, c.FinishRun(ctx, id, StatusFailed))

	require.NoError(t, c.ResumeRun(ctx, id))
	run, err := c.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.True(t, run.Finished.IsZero())

	done, err := c.Completed(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a_b": true}, done)

	require.ErrorIs(t, c.ResumeRun(ctx, "missing"), ErrUnknownRun)
}

func TestReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	c, err := Open(path)
	require.NoError(t, err)
	id, err := c.BeginRun(ctx, RunInfo{Workdir: "w"})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	run, err := c.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "w", run.Workdir)
}
