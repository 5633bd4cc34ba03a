package stack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0o755))
	}
}

func TestDiscoverSortsAndFilters(t *testing.T) {
	workdir := t.TempDir()
	pol := filepath.Join(workdir, "SLC_vv")
	makeDirs(t, pol, "20200113", "20200101", "20200107", "geom_reference", "baselines")
	require.NoError(t, os.WriteFile(filepath.Join(pol, "20991231"), nil, 0o644)) // file, not dir

	s, err := Discover(workdir, "SLC_vv")
	require.NoError(t, err)
	assert.Equal(t, []string{"20200101", "20200107", "20200113"}, s.IDs())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, filepath.Join(workdir, "SLC_vv", "20200107", "20200107.slc.full"), s.Acquisitions[1].Path)
}

func TestDiscoverErrors(t *testing.T) {
	workdir := t.TempDir()
	_, err := Discover(workdir, "SLC_vv")
	require.Error(t, err)

	makeDirs(t, filepath.Join(workdir, "SLC_vv"), "20200101")
	_, err = Discover(workdir, "SLC_vv")
	require.ErrorIs(t, err, ErrTooFewAcquisitions)

	makeDirs(t, filepath.Join(workdir, "SLC_vv"), "2020-bad")
	_, err = Discover(workdir, "SLC_vv")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestFromIDsRejectsDuplicates(t *testing.T) {
	_, err := FromIDs("/w", "SLC_vv", []string{"20200101", "20200101"})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestPairs(t *testing.T) {
	s, err := FromIDs("/w", "SLC_vv", []string{"20200113", "20200101", "20200107", "20200201"})
	require.NoError(t, err)

	names := func(ps []Pair) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name()
		}
		return out
	}

	tests := []struct {
		name string
		plan Plan
		opts []PairOption
		want []string
	}{
		{
			name: "consecutive",
			plan: PlanConsecutive,
			want: []string{"20200101_20200107", "20200107_20200113", "20200113_20200201"},
		},
		{
			name: "all",
			plan: PlanAll,
			want: []string{
				"20200101_20200107", "20200101_20200113", "20200101_20200201",
				"20200107_20200113", "20200107_20200201",
				"20200113_20200201",
			},
		},
		{
			name: "all max span 2",
			plan: PlanAll,
			opts: []PairOption{WithMaxSpan(2)},
			want: []string{
				"20200101_20200107", "20200101_20200113",
				"20200107_20200113", "20200107_20200201",
				"20200113_20200201",
			},
		},
		{
			name: "all max baseline 12 days",
			plan: PlanAll,
			opts: []PairOption{WithMaxBaseline(12)},
			want: []string{"20200101_20200107", "20200101_20200113", "20200107_20200113"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(s.Pairs(tt.plan, tt.opts...)))
		})
	}
}

func TestPairBaseline(t *testing.T) {
	s, err := FromIDs("/w", "SLC_vv", []string{"20200101", "20200301"})
	require.NoError(t, err)
	p := s.Pairs(PlanConsecutive)[0]
	assert.Equal(t, 60, p.BaselineDays())
	assert.Equal(t, 0, p.RefIdx)
	assert.Equal(t, 1, p.SecIdx)
}

func TestParsePlan(t *testing.T) {
	for _, p := range []Plan{PlanConsecutive, PlanAll} {
		got, err := ParsePlan(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePlan("star")
	require.ErrorIs(t, err, ErrUnknownPlan)
}
