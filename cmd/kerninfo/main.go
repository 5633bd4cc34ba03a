// Command kerninfo prints properties of coherence smoothing kernels.
//
// Usage:
//
//	kerninfo [flags] [kernel ...]
//
// A kernel is written "gauss:<std_azimuth>:<std_range>" or
// "box:<rows>:<cols>". Without arguments it prints the default Gaussian
// kernel and a few common alternatives.
//
// Examples:
//
//	kerninfo
//	kerninfo gauss:4:12 gauss:2:6
//	kerninfo box:5:15
//	kerninfo -config cohere.toml
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-insar/dsp/conv"
	"github.com/cwbudde/algo-insar/dsp/kernel"
	"github.com/cwbudde/algo-insar/internal/config"
)

var defaults = []string{
	"gauss:4:12",
	"gauss:2:6",
	"gauss:8:24",
	"box:5:15",
	"box:9:27",
}

type entry struct {
	label string
	k     *kernel.Kernel2D
}

func main() {
	cfgPath := flag.String("config", "", "print the kernel of this cohere.toml")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kerninfo [flags] [kernel ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints properties of coherence smoothing kernels.\n")
		fmt.Fprintf(os.Stderr, "Kernels are gauss:<std_azimuth>:<std_range> or box:<rows>:<cols>.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  kerninfo gauss:4:12 gauss:2:6\n")
		fmt.Fprintf(os.Stderr, "  kerninfo box:5:15\n")
		fmt.Fprintf(os.Stderr, "  kerninfo -config cohere.toml\n")
	}
	flag.Parse()

	var entries []entry
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		k, err := cfg.BuildKernel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		label := fmt.Sprintf("gauss:%g:%g", cfg.Kernel.StdAzimuth, cfg.Kernel.StdRange)
		entries = append(entries, entry{label, k})
	}

	names := flag.Args()
	if len(names) == 0 && len(entries) == 0 {
		names = defaults
	}
	for _, name := range names {
		k, err := parseKernel(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		entries = append(entries, entry{name, k})
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "error: no valid kernels\n")
		os.Exit(1)
	}

	printAnalysis(entries)
}

func parseKernel(arg string) (*kernel.Kernel2D, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(arg)), ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("bad kernel %q, want <type>:<a>:<b>", arg)
	}
	a, errA := strconv.ParseFloat(parts[1], 64)
	b, errB := strconv.ParseFloat(parts[2], 64)
	if errA != nil || errB != nil {
		return nil, fmt.Errorf("bad kernel %q: parameters must be numbers", arg)
	}

	switch parts[0] {
	case "gauss", "gaussian":
		k, err := kernel.NewGaussian2D(a, b)
		if err != nil {
			return nil, fmt.Errorf("kernel %q: %w", arg, err)
		}
		return k, nil
	case "box", "uniform":
		k, err := kernel.NewUniform(int(a), int(b))
		if err != nil {
			return nil, fmt.Errorf("kernel %q: %w", arg, err)
		}
		return k, nil
	default:
		return nil, fmt.Errorf("unknown kernel type %q", parts[0])
	}
}

func printAnalysis(entries []entry) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Kernel\tRows\tCols\tSum\tPeak\tEquiv. Looks\tAlgorithm\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "------\t----\t----\t---\t----\t------------\t---------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, e := range entries {
		rows, cols := e.k.Dims()
		peak := 0.0
		for _, w := range e.k.Data() {
			peak = max(peak, w)
		}

		if _, err := fmt.Fprintf(tw, "%s\t%d\t%d\t%.9f\t%.6f\t%.2f\t%s\n",
			e.label,
			rows,
			cols,
			e.k.Sum(),
			peak,
			e.k.EquivalentLooks(),
			conv.Resolve(conv.AlgorithmAuto, e.k),
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
