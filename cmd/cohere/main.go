// Command cohere computes coherence maps for the pairs of an SLC stack.
//
// Usage:
//
//	cohere [flags]
//
// Settings come from cohere.toml (see -config), COHERE_* environment
// variables and the flags below, in increasing priority.
//
// Examples:
//
//	cohere -workdir /data/krd86/cropped -out coherence
//	cohere -pairs all -workers 4
//	cohere -list
//	cohere -config run.toml -resume 3f1c...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-insar/catalog"
	"github.com/cwbudde/algo-insar/internal/config"
	"github.com/cwbudde/algo-insar/pipeline"
	"github.com/cwbudde/algo-insar/raster"
	"github.com/cwbudde/algo-insar/sink"
	"github.com/cwbudde/algo-insar/stack"
)

type options struct {
	config  string
	workdir string
	out     string
	workers int
	pairs   string
	resume  string
	list    bool
	dryRun  bool
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "config file (default: search ./cohere.toml and ~/.config/cohere)")
	flag.StringVar(&o.workdir, "workdir", "", "stack directory containing <polarization>/<date>/")
	flag.StringVar(&o.out, "out", "", "output directory for coherence maps")
	flag.IntVar(&o.workers, "workers", 0, "number of pairs processed concurrently")
	flag.StringVar(&o.pairs, "pairs", "", "pair plan: consecutive or all")
	flag.StringVar(&o.resume, "resume", "", "continue this catalog run, skipping the pairs it completed")
	flag.BoolVar(&o.list, "list", false, "list acquisitions and planned pairs, then exit")
	flag.BoolVar(&o.dryRun, "dry-run", false, "validate configuration and inputs without processing")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cohere [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Computes windowed interferometric coherence for pairs of an SLC stack.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr, "cohere: ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, logger *log.Logger) error {
	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	applyFlags(cfg, o)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.File != "" {
		logger.Printf("config %s", cfg.File)
	}

	st, err := stack.Discover(cfg.Workdir, cfg.Polarization)
	if err != nil {
		return err
	}
	pairs, err := cfg.SelectPairs(st)
	if err != nil {
		return err
	}

	if o.list {
		printPlan(st, pairs)
		return nil
	}

	est, err := cfg.BuildEstimator()
	if err != nil {
		return err
	}
	rows, cols := est.Kernel().Dims()
	logger.Printf("%d acquisitions, %d %s pairs, kernel %dx%d, %s, %s convolution",
		st.Len(), len(pairs), cfg.Pairs, rows, cols, est.Method(), est.Algorithm())

	if o.dryRun {
		return checkInputs(cfg.BuildReader(), st, cfg.Window)
	}

	out, err := buildSink(ctx, cfg)
	if err != nil {
		return err
	}

	r := &pipeline.Runner{
		Reader:    cfg.BuildReader(),
		Estimator: est,
		Sink:      out,
		Logger:    logger,
		Workers:   cfg.Workers,
		Window:    cfg.Window,
	}

	if cfg.Catalog != "" {
		cat, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		defer cat.Close()
		r.Catalog = cat

		r.RunID = o.resume
	} else if o.resume != "" {
		return errors.New("-resume needs a catalog")
	}

	report, err := r.Run(ctx, st, pairs)
	if report.RunID != "" {
		logger.Printf("catalog run %s", report.RunID)
	}
	return err
}

func applyFlags(cfg *config.Config, o options) {
	if o.workdir != "" {
		cfg.Workdir = o.workdir
	}
	if o.out != "" {
		cfg.Output = o.out
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.pairs != "" {
		cfg.Pairs = o.pairs
	}
}

func buildSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	sinks := []sink.Sink{sink.FileSink{Dir: cfg.Output}}
	if cfg.Quicklook.Enabled {
		sinks = append(sinks, sink.QuicklookSink{Dir: cfg.Output, MaxDim: cfg.Quicklook.MaxDim})
	}
	if cfg.S3.Bucket != "" {
		s3, err := sink.NewS3Sink(ctx, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3)
	}
	return sink.Multi(sinks...), nil
}

// checkInputs reads a single row of every acquisition to verify the files
// exist and cover the window.
func checkInputs(reader raster.Reader, st *stack.Stack, w raster.Window) error {
	last := w
	last.Azimuth0 = w.Azimuth0 + w.Length - 1
	last.Length = 1
	for _, a := range st.Acquisitions {
		if _, err := reader.Read(a.Path, last); err != nil {
			return fmt.Errorf("%s: %w", a.ID, err)
		}
	}
	return nil
}

func printPlan(st *stack.Stack, pairs []stack.Pair) {
	fmt.Printf("%d acquisitions in %s/%s\n", st.Len(), st.Workdir, st.Polarization)
	for _, a := range st.Acquisitions {
		fmt.Printf("  %s  %s\n", a.ID, a.Path)
	}
	fmt.Printf("%d pairs\n", len(pairs))
	for _, p := range pairs {
		fmt.Printf("  %s  %4d days\n", p.Name(), p.BaselineDays())
	}
}
