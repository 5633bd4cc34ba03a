// Package testutil holds synthetic SLC generators and tolerance checks
// shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// ComplexNoise returns length samples of circular complex Gaussian noise
// with E|z|² = 1, reproducible for a given seed. It models fully
// decorrelated speckle.
func ComplexNoise(seed int64, length int) []complex128 {
	rng := rand.New(rand.NewSource(seed))
	sigma := 1 / math.Sqrt2
	out := make([]complex128, length)
	for i := range out {
		re := rng.NormFloat64()
		im := rng.NormFloat64()
		out[i] = complex(sigma*re, sigma*im)
	}
	return out
}

// CorrelatedPair returns two unit-power speckle planes whose true
// coherence is gamma, for 0 <= gamma <= 1:
//
//	b = gamma·a + sqrt(1-gamma²)·n
//
// with a and n independent.
func CorrelatedPair(seed int64, gamma float64, length int) (a, b []complex128) {
	a = ComplexNoise(seed, length)
	noise := ComplexNoise(seed+1, length)
	w := math.Sqrt(1 - gamma*gamma)
	b = make([]complex128, length)
	for i, s := range a {
		n := noise[i]
		b[i] = complex(gamma*real(s)+w*real(n), gamma*imag(s)+w*imag(n))
	}
	return a, b
}

// ComplexConstant returns length copies of v.
func ComplexConstant(v complex128, length int) []complex128 {
	out := make([]complex128, length)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ones returns n weights of 1, e.g. an unnormalized boxcar kernel.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
