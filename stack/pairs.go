package stack

import (
	"errors"
	"fmt"
)

// ErrUnknownPlan is returned by ParsePlan.
var ErrUnknownPlan = errors.New("stack: unknown pair plan")

// Pair is an ordered (reference, secondary) acquisition pair; the reference
// is always the earlier date.
type Pair struct {
	Ref, Sec       Acquisition
	RefIdx, SecIdx int
}

// Name returns "<ref>_<sec>".
func (p Pair) Name() string {
	return p.Ref.ID + "_" + p.Sec.ID
}

// BaselineDays returns the temporal baseline in whole days.
func (p Pair) BaselineDays() int {
	return int(p.Sec.Date.Sub(p.Ref.Date).Hours() / 24)
}

// Plan selects the pairs to process.
type Plan int

const (
	// PlanConsecutive pairs each acquisition with the next one.
	PlanConsecutive Plan = iota
	// PlanAll pairs every acquisition with every later one.
	PlanAll
)

// String returns the configuration name of the plan.
func (p Plan) String() string {
	switch p {
	case PlanConsecutive:
		return "consecutive"
	case PlanAll:
		return "all"
	default:
		return fmt.Sprintf("Plan(%d)", int(p))
	}
}

// ParsePlan maps a configuration name to a Plan.
func ParsePlan(name string) (Plan, error) {
	switch name {
	case "", "consecutive":
		return PlanConsecutive, nil
	case "all":
		return PlanAll, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, name)
	}
}

// PairOption restricts pair selection.
type PairOption func(*pairConfig)

type pairConfig struct {
	maxSpan     int
	maxBaseline int
}

// WithMaxSpan keeps pairs whose index distance is at most n (0 = no limit).
func WithMaxSpan(n int) PairOption {
	return func(c *pairConfig) {
		if n >= 0 {
			c.maxSpan = n
		}
	}
}

// WithMaxBaseline keeps pairs at most days apart (0 = no limit).
func WithMaxBaseline(days int) PairOption {
	return func(c *pairConfig) {
		if days >= 0 {
			c.maxBaseline = days
		}
	}
}

// Pairs returns the pairs selected by plan, ordered by reference then
// secondary index.
func (s *Stack) Pairs(plan Plan, opts ...PairOption) []Pair {
	var cfg pairConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := len(s.Acquisitions)
	var out []Pair
	for i := 0; i < n-1; i++ {
		last := i + 1
		if plan == PlanAll {
			last = n - 1
		}
		for j := i + 1; j <= last; j++ {
			p := Pair{Ref: s.Acquisitions[i], Sec: s.Acquisitions[j], RefIdx: i, SecIdx: j}
			if cfg.maxSpan > 0 && j-i > cfg.maxSpan {
				continue
			}
			if cfg.maxBaseline > 0 && p.BaselineDays() > cfg.maxBaseline {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
