// Package stack locates the acquisitions of an SLC time series on disk and
// plans which pairs of them to process.
//
// The expected layout is
//
//	<workdir>/<pol>/<YYYYMMDD>/<YYYYMMDD>.slc.full
//
// with one directory per acquisition date.
package stack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateLayout is the time layout of acquisition directory names.
const DateLayout = "20060102"

// Errors returned by Discover.
var (
	ErrInvalidDate        = errors.New("stack: invalid acquisition date")
	ErrTooFewAcquisitions = errors.New("stack: fewer than two acquisitions")
)

// Acquisition is one SLC of the series.
type Acquisition struct {
	ID   string
	Date time.Time
	Path string
}

// Stack is a date-ordered list of acquisitions.
type Stack struct {
	Workdir      string
	Polarization string
	Acquisitions []Acquisition
}

// Discover lists the acquisition directories of <workdir>/<pol> whose names
// start with "2", sorted by date.
func Discover(workdir, pol string) (*Stack, error) {
	root := filepath.Join(workdir, pol)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "2") {
			ids = append(ids, e.Name())
		}
	}
	return FromIDs(workdir, pol, ids)
}

// FromIDs builds a stack from explicit date identifiers. The identifiers are
// sorted; duplicates are rejected.
func FromIDs(workdir, pol string, ids []string) (*Stack, error) {
	s := &Stack{Workdir: workdir, Polarization: pol}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		d, err := time.Parse(DateLayout, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate %q", ErrInvalidDate, id)
		}
		seen[id] = true
		s.Acquisitions = append(s.Acquisitions, Acquisition{
			ID:   id,
			Date: d,
			Path: SLCPath(workdir, pol, id),
		})
	}
	if len(s.Acquisitions) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrTooFewAcquisitions, len(s.Acquisitions))
	}

	sort.Slice(s.Acquisitions, func(i, j int) bool {
		return s.Acquisitions[i].Date.Before(s.Acquisitions[j].Date)
	})
	return s, nil
}

// SLCPath returns the SLC file path of acquisition id.
func SLCPath(workdir, pol, id string) string {
	return filepath.Join(workdir, pol, id, id+".slc.full")
}

// Len returns the number of acquisitions.
func (s *Stack) Len() int {
	return len(s.Acquisitions)
}

// IDs returns the ordered date identifiers.
func (s *Stack) IDs() []string {
	ids := make([]string, len(s.Acquisitions))
	for i, a := range s.Acquisitions {
		ids[i] = a.ID
	}
	return ids
}
