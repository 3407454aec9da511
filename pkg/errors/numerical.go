package errors

import (
	"math"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !isFinite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if !isFinite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckMatrix checks all values in a matrix for numerical instability.
// Only the offending values of the first bad row are reported.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	var unstableValues []float64

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if !isFinite(v) {
				unstableValues = append(unstableValues, v)
				if len(unstableValues) >= 10 {
					break
				}
			}
		}
		if len(unstableValues) > 0 {
			break
		}
	}

	if len(unstableValues) > 0 {
		return NewNumericalInstabilityError(operation, unstableValues, iteration)
	}

	return nil
}

// FirstNonFinite returns the index of the first NaN or Inf in values, or -1.
func FirstNonFinite(values []float64) int {
	for i, v := range values {
		if !isFinite(v) {
			return i
		}
	}
	return -1
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
