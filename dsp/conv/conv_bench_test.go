package conv

import (
	"testing"

	"github.com/cwbudde/algo-insar/dsp/kernel"
	"github.com/cwbudde/algo-insar/internal/testutil"
)

func BenchmarkConvolve2D(b *testing.B) {
	const rows, cols = 128, 512
	src := testutil.ComplexNoise(1, rows*cols)
	k, err := kernel.NewGaussian2D(4, 12)
	if err != nil {
		b.Fatal(err)
	}
	dst := make([]complex128, rows*cols)

	for _, alg := range []Algorithm{AlgorithmDirect, AlgorithmSeparable, AlgorithmFFT} {
		b.Run(alg.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := Convolve2DTo(dst, src, rows, cols, k, ModeSame, alg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
