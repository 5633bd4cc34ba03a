// Package pipeline runs the coherence estimator over the pairs of a stack.
//
// For every pair the runner reads the reference and secondary windows,
// estimates the coherence map, summarizes it, hands it to a sink and
// records the outcome in an optional catalog. Pairs are independent and
// processed by a bounded pool of workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/cwbudde/algo-insar/catalog"
	"github.com/cwbudde/algo-insar/insar/coherence"
	"github.com/cwbudde/algo-insar/raster"
	"github.com/cwbudde/algo-insar/sink"
	"github.com/cwbudde/algo-insar/stack"
	"github.com/cwbudde/algo-insar/stats/summary"
)

// Errors returned by Run for an incomplete Runner.
var (
	ErrNoReader    = errors.New("pipeline: nil reader")
	ErrNoEstimator = errors.New("pipeline: nil estimator")
	ErrNoSink      = errors.New("pipeline: nil sink")
	ErrNoCatalog   = errors.New("pipeline: resuming a run needs a catalog")
)

// Runner processes pairs. The zero value is not usable; Reader, Estimator
// and Sink are required.
type Runner struct {
	Reader    raster.Reader
	Estimator *coherence.Estimator
	Sink      sink.Sink
	Catalog   *catalog.Catalog // nil disables bookkeeping
	Logger    *log.Logger      // nil discards
	Workers   int              // <= 1 processes pairs sequentially
	Window    raster.Window

	// Skip holds pair names ("<ref>_<sec>") that are not processed again.
	Skip map[string]bool

	// RunID continues an existing catalog run instead of starting a new
	// one. Pairs the run already completed are skipped and new outcomes
	// are added to it. Requires Catalog.
	RunID string
}

// PairResult is the outcome of one successfully processed or skipped pair.
type PairResult struct {
	Pair    stack.Pair
	Stats   summary.Stats
	Elapsed time.Duration
	Skipped bool
}

// Report summarizes a run. Pairs is ordered like the input pairs and only
// holds entries for pairs that completed or were skipped.
type Report struct {
	RunID   string
	Pairs   []PairResult
	Elapsed time.Duration
}

// Processed returns the number of pairs that were estimated.
func (r Report) Processed() int {
	n := 0
	for _, p := range r.Pairs {
		if !p.Skipped {
			n++
		}
	}
	return n
}

// Run processes pairs of st. The first failing pair cancels the remaining
// work and its error is returned together with the partial report.
func (r *Runner) Run(ctx context.Context, st *stack.Stack, pairs []stack.Pair) (Report, error) {
	switch {
	case r.Reader == nil:
		return Report{}, ErrNoReader
	case r.Estimator == nil:
		return Report{}, ErrNoEstimator
	case r.Sink == nil:
		return Report{}, ErrNoSink
	}
	if err := r.Window.Validate(); err != nil {
		return Report{}, err
	}

	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	start := time.Now()
	var report Report
	skip := r.Skip
	switch {
	case r.RunID != "" && r.Catalog == nil:
		return Report{}, ErrNoCatalog
	case r.RunID != "":
		if err := r.Catalog.ResumeRun(ctx, r.RunID); err != nil {
			return Report{}, err
		}
		done, err := r.Catalog.Completed(ctx, r.RunID)
		if err != nil {
			return Report{}, err
		}
		for name, ok := range r.Skip {
			if ok {
				done[name] = true
			}
		}
		skip = done
		report.RunID = r.RunID
		logger.Printf("resuming run %s: %d pairs already done", r.RunID, len(done))
	case r.Catalog != nil:
		rows, cols := r.Estimator.Kernel().Dims()
		id, err := r.Catalog.BeginRun(ctx, catalog.RunInfo{
			Workdir:      st.Workdir,
			Polarization: st.Polarization,
			Window:       r.Window.String(),
			Kernel:       fmt.Sprintf("%dx%d %s", rows, cols, r.Estimator.Method()),
		})
		if err != nil {
			return Report{}, err
		}
		report.RunID = id
	}
	logger.Printf("processing %d pairs of %d acquisitions, window %v, %d workers",
		len(pairs), st.Len(), r.Window, r.workers())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results = make([]*PairResult, len(pairs))
		jobs    = make(chan int)
		wg      sync.WaitGroup
		once    sync.Once
		runErr  error
	)
	fail := func(err error) {
		once.Do(func() {
			runErr = err
			cancel()
		})
	}

	for w := 0; w < r.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := r.process(ctx, report.RunID, pairs[i], skip, logger)
				if err != nil {
					fail(err)
					continue
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := range pairs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if runErr == nil {
		runErr = ctx.Err()
	}
	for _, res := range results {
		if res != nil {
			report.Pairs = append(report.Pairs, *res)
		}
	}
	report.Elapsed = time.Since(start)

	if r.Catalog != nil {
		status := catalog.StatusDone
		if runErr != nil {
			status = catalog.StatusFailed
		}
		if err := r.Catalog.FinishRun(context.WithoutCancel(ctx), report.RunID, status); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		logger.Printf("run failed after %d pairs: %v", len(report.Pairs), runErr)
		return report, runErr
	}
	logger.Printf("done: %d pairs in %s", len(report.Pairs), report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

func (r *Runner) process(ctx context.Context, runID string, p stack.Pair, skip map[string]bool, logger *log.Logger) (*PairResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := p.Name()
	if skip[name] {
		logger.Printf("%s: skipped", name)
		return &PairResult{Pair: p, Skipped: true}, nil
	}

	start := time.Now()
	stats, err := r.estimate(ctx, p)
	elapsed := time.Since(start)

	if err != nil {
		err = fmt.Errorf("pair %s: %w", name, err)
		if !errors.Is(err, context.Canceled) {
			r.record(ctx, runID, catalog.PairRecord{
				Reference: p.Ref.ID,
				Secondary: p.Sec.ID,
				Status:    catalog.StatusFailed,
				Elapsed:   elapsed,
				Err:       err.Error(),
			}, logger)
		}
		return nil, err
	}

	logger.Printf("%s: mean coherence %.4f, valid %.1f%%, %s",
		name, stats.Mean, 100*stats.ValidFraction(), elapsed.Round(time.Millisecond))
	r.record(ctx, runID, catalog.PairRecord{
		Reference: p.Ref.ID,
		Secondary: p.Sec.ID,
		Status:    catalog.StatusDone,
		Mean:      stats.Mean,
		StdDev:    stats.StdDev,
		Valid:     stats.ValidFraction(),
		Elapsed:   elapsed,
	}, logger)

	return &PairResult{Pair: p, Stats: stats, Elapsed: elapsed}, nil
}

func (r *Runner) estimate(ctx context.Context, p stack.Pair) (summary.Stats, error) {
	ref, err := r.Reader.Read(p.Ref.Path, r.Window)
	if err != nil {
		return summary.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return summary.Stats{}, err
	}
	sec, err := r.Reader.Read(p.Sec.Path, r.Window)
	if err != nil {
		return summary.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return summary.Stats{}, err
	}

	coh, err := r.Estimator.Estimate(ref, sec)
	if err != nil {
		return summary.Stats{}, err
	}

	stats := summary.Calculate(coh.Data)
	err = r.Sink.Write(ctx, sink.Result{
		Ref:   p.Ref.ID,
		Sec:   p.Sec.ID,
		Map:   coh,
		Stats: stats,
	})
	if err != nil {
		return summary.Stats{}, err
	}
	return stats, nil
}

// record stores a pair outcome. Catalog failures are logged, not fatal:
// the map itself has already been written.
func (r *Runner) record(ctx context.Context, runID string, rec catalog.PairRecord, logger *log.Logger) {
	if r.Catalog == nil {
		return
	}
	if err := r.Catalog.RecordPair(context.WithoutCancel(ctx), runID, rec); err != nil {
		logger.Printf("%s_%s: %v", rec.Reference, rec.Secondary, err)
	}
}
