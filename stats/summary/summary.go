// Package summary computes per-map statistics of coherence rasters.
package summary

import "math"

// Bins is the number of histogram bins over [0, 1].
const Bins = 10

// Stats holds statistics of a coherence map. Values outside [0,1] are
// counted in the nearest edge bin.
type Stats struct {
	Count     int
	Valid     int     // pixels with coherence > 0
	Mean      float64 // over all pixels
	ValidMean float64 // over valid pixels
	StdDev    float64
	Min       float64
	Max       float64
	Histogram [Bins]int
}

// ValidFraction returns Valid/Count, or 0 for an empty map.
func (s Stats) ValidFraction() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Valid) / float64(s.Count)
}

// Calculate computes Stats for a complete map.
func Calculate(values []float32) Stats {
	a := NewAccumulator()
	a.Update(values)
	return a.Result()
}

// Accumulator computes Stats incrementally, row block by row block.
type Accumulator struct {
	n        int
	valid    int
	mean     float64
	m2       float64
	validSum float64
	minVal   float64
	maxVal   float64
	hist     [Bins]int
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Update adds samples.
func (a *Accumulator) Update(values []float32) {
	for _, v := range values {
		x := float64(v)
		a.n++

		// Welford update.
		delta := x - a.mean
		a.mean += delta / float64(a.n)
		a.m2 += delta * (x - a.mean)

		if a.n == 1 {
			a.minVal, a.maxVal = x, x
		} else {
			a.minVal = math.Min(a.minVal, x)
			a.maxVal = math.Max(a.maxVal, x)
		}

		if x > 0 {
			a.valid++
			a.validSum += x
		}

		bin := int(x * Bins)
		switch {
		case bin < 0:
			bin = 0
		case bin >= Bins:
			bin = Bins - 1
		}
		a.hist[bin]++
	}
}

// Result returns the statistics of all samples seen so far.
func (a *Accumulator) Result() Stats {
	if a.n == 0 {
		return Stats{}
	}
	s := Stats{
		Count:     a.n,
		Valid:     a.valid,
		Mean:      a.mean,
		StdDev:    math.Sqrt(a.m2 / float64(a.n)),
		Min:       a.minVal,
		Max:       a.maxVal,
		Histogram: a.hist,
	}
	if a.valid > 0 {
		s.ValidMean = a.validSum / float64(a.valid)
	}
	return s
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
