package kernel

import "math"

// Gaussian returns a symmetric Gaussian window of the given length with peak 1.
// Sample i equals exp(-((i-c)/std)^2 / 2) with c = (length-1)/2.
func Gaussian(length int, std float64) ([]float64, error) {
	if err := validateLength(length); err != nil {
		return nil, err
	}
	if err := validateStd(std); err != nil {
		return nil, err
	}
	if length == 1 {
		return []float64{1}, nil
	}
	return GaussianAlpha(length, AlphaForStd(length, std))
}

// GaussianAlpha returns the symmetric Gauss window exp(-ln2*((2x-1)*alpha)^2)
// sampled at x = i/(length-1). The window falls to one half at
// |2x-1| = 1/alpha.
func GaussianAlpha(length int, alpha float64) ([]float64, error) {
	if err := validateLength(length); err != nil {
		return nil, err
	}
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}

	out := make([]float64, length)
	if length == 1 {
		out[0] = 1
		return out, nil
	}
	last := float64(length - 1)
	for i := range out {
		v := (2*float64(i) - last) / last * alpha
		out[i] = math.Exp(-math.Ln2 * v * v)
	}
	return out, nil
}

// AlphaForStd converts a standard deviation in samples to the GaussianAlpha
// parameter of a window of the given length: alpha = c/(std*sqrt(2*ln2)),
// c = (length-1)/2.
func AlphaForStd(length int, std float64) float64 {
	c := float64(length-1) / 2
	return c / (std * math.Sqrt(2*math.Ln2))
}

// LengthForStd returns the window length used for a Gaussian of the given
// standard deviation: 3*std+1, with std truncated to an integer.
func LengthForStd(std float64) int {
	return 3*int(std) + 1
}
