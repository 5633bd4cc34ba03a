package testutil

import (
	"cmp"
	"math/cmplx"
	"testing"
)

// maxReports bounds the per-call failure messages.
const maxReports = 5

// RequireComplexNearlyEqual fails t unless got and want have equal length
// and |got[i]-want[i]| <= eps everywhere. Up to five offending indices are
// reported.
func RequireComplexNearlyEqual(t testing.TB, got, want []complex128, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	bad := 0
	for i, g := range got {
		if d := cmplx.Abs(g - want[i]); d > eps {
			if bad < maxReports {
				t.Errorf("sample %d: got %v, want %v (|diff| %.3g > %.3g)", i, g, want[i], d, eps)
			}
			bad++
		}
	}
	if bad > 0 {
		t.Fatalf("%d of %d samples outside tolerance", bad, len(got))
	}
}

// RequireInRange fails t if any value is outside [lo, hi]. NaN is always
// out of range.
func RequireInRange[T cmp.Ordered](t testing.TB, data []T, lo, hi T) {
	t.Helper()
	bad := 0
	for i, v := range data {
		if v >= lo && v <= hi {
			continue
		}
		if bad < maxReports {
			t.Errorf("sample %d = %v not in [%v, %v]", i, v, lo, hi)
		}
		bad++
	}
	if bad > 0 {
		t.Fatalf("%d of %d samples out of range", bad, len(data))
	}
}

// Mean returns the average of data as float64; 0 for no data.
func Mean[T float32 | float64](data []T) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	return sum / float64(len(data))
}
