package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold,omitempty"`
}

func (lr *LogisticRegression) Width() int {
	return len(lr.Coefficients)
}

func (lr *LogisticRegression) PredictProbability(vector []float64) (float64, error) {
	if len(lr.Coefficients) == 0 {
		return 0, errors.New("model not fitted")
	}
	if err := checkVector(vector, lr.Width()); err != nil {
		return 0, err
	}
	z := lr.Intercept
	for i, w := range lr.Coefficients {
		z += w * vector[i]
	}
	return sigmoid(z), nil
}

func (lr *LogisticRegression) Predict(vector []float64) (int, error) {
	p, err := lr.PredictProbability(vector)
	if err != nil {
		return 0, err
	}
	return labelFor(p, lr.Threshold), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func decodeLogisticRegression(raw json.RawMessage, width int) (Classifier, error) {
	var lr LogisticRegression
	if err := json.Unmarshal(raw, &lr); err != nil {
		return nil, err
	}
	if lr.Width() != width {
		return nil, fmt.Errorf("logistic regression has %d coefficients for %d features", lr.Width(), width)
	}
	for i, w := range lr.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if lr.Threshold < 0 || lr.Threshold >= 1 {
		return nil, fmt.Errorf("threshold %v out of range", lr.Threshold)
	}
	return &lr, nil
}
