package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// StandardScaler centers and scales each column: (x - mean) / scale.
// A zero scale is treated as 1, so constant training columns pass through
// centered instead of dividing by zero.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Width() int {
	return len(s.Mean)
}

func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if err := checkVector(values, s.Width()); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// MinMaxScaler maps each column onto [0, 1] using the training range.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

func (s *MinMaxScaler) Width() int {
	return len(s.Min)
}

func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if err := checkVector(values, s.Width()); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = normalize(v, s.Min[i], s.Max[i])
	}
	return out, nil
}

func normalize(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func decodeStandardScaler(raw json.RawMessage) (Scaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if len(s.Mean) == 0 {
		return nil, errors.New("standard scaler has no columns")
	}
	if len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("standard scaler mean/scale length mismatch: %d != %d", len(s.Mean), len(s.Scale))
	}
	if err := checkFinite(s.Mean, s.Scale); err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeMinMaxScaler(raw json.RawMessage) (Scaler, error) {
	var s MinMaxScaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if len(s.Min) == 0 {
		return nil, errors.New("minmax scaler has no columns")
	}
	if len(s.Min) != len(s.Max) {
		return nil, fmt.Errorf("minmax scaler min/max length mismatch: %d != %d", len(s.Min), len(s.Max))
	}
	if err := checkFinite(s.Min, s.Max); err != nil {
		return nil, err
	}
	return &s, nil
}

func checkFinite(columns ...[]float64) error {
	for _, col := range columns {
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("scaler statistic %d is not finite", i)
			}
		}
	}
	return nil
}
