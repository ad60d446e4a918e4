package ml

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold is the probability above which a classifier reports label 1.
const DefaultThreshold = 0.5

var (
	ErrWidthMismatch = errors.New("vector width mismatch")
	ErrNonFinite     = errors.New("vector contains non-finite value")
)

// Classifier is a trained binary model. Width is the number of input columns
// it was fitted on.
type Classifier interface {
	Width() int
	Predict(vector []float64) (int, error)
	PredictProbability(vector []float64) (float64, error)
}

// Scaler transforms a fixed-width row of numeric values with statistics
// captured at training time.
type Scaler interface {
	Width() int
	Transform(values []float64) ([]float64, error)
}

func checkVector(vector []float64, width int) error {
	if len(vector) != width {
		return fmt.Errorf("%w: got %d, want %d", ErrWidthMismatch, len(vector), width)
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}

func labelFor(probability, threshold float64) int {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	if probability > threshold {
		return 1
	}
	return 0
}
