package kernel

import (
	"errors"
	"fmt"
)

// Errors returned by kernel constructors.
var (
	ErrInvalidLength  = errors.New("kernel: length must be > 0")
	ErrInvalidStd     = errors.New("kernel: standard deviation must be > 0")
	ErrInvalidAlpha   = errors.New("kernel: gauss alpha must be > 0")
	ErrNegativeWeight = errors.New("kernel: weights must be non-negative")
	ErrZeroSum        = errors.New("kernel: weights sum to zero")
	ErrDataLength     = errors.New("kernel: data length does not match dimensions")
)

func validateLength(length int) error {
	if length <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	return nil
}

func validateStd(std float64) error {
	if !(std > 0) {
		return fmt.Errorf("%w: %f", ErrInvalidStd, std)
	}
	return nil
}

func validateAlpha(alpha float64) error {
	if !(alpha > 0) {
		return fmt.Errorf("%w: %f", ErrInvalidAlpha, alpha)
	}
	return nil
}

func validateWeights(w []float64) error {
	for i, v := range w {
		if v < 0 {
			return fmt.Errorf("%w: index %d is %f", ErrNegativeWeight, i, v)
		}
	}
	return nil
}
