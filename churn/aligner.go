package churn

import (
	"fmt"
	"math"

	"telcochurn/ml"
)

// Scale runs the numeric columns through the fitted scaler as a single row.
// It fails with ErrScalingFailure unless exactly len(NumericColumns) finite
// values come back.
func Scale(rec Record, scaler ml.Scaler) ([]float64, error) {
	if scaler == nil {
		return nil, fmt.Errorf("%w: no scaler", ErrScalingFailure)
	}
	scaled, err := scaler.Transform(rec.Numeric())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScalingFailure, err)
	}
	if len(scaled) != len(NumericColumns) {
		return nil, fmt.Errorf("%w: scaler returned %d values, want %d", ErrScalingFailure, len(scaled), len(NumericColumns))
	}
	for i, v := range scaled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s scaled to %v", ErrScalingFailure, NumericColumns[i], v)
		}
	}
	return scaled, nil
}

// Encode builds the named columns of one record: the scaled numeric columns,
// SeniorCitizen as 0/1 and one indicator per categorical field. Every
// category keeps its indicator; dropping a reference category would leave a
// single record's baseline value with no hot column at all.
func Encode(rec Record, scaled []float64) map[string]float64 {
	encoded := make(map[string]float64, len(NumericColumns)+len(Fields))
	for i, name := range NumericColumns {
		encoded[name] = scaled[i]
	}
	encoded[FieldSeniorCitizen] = float64(rec.SeniorCitizen)
	for _, f := range EncodedFields() {
		encoded[IndicatorName(f.Name, rec.Categorical[f.Name])] = 1
	}
	return encoded
}

// Reindex lays encoded values out in column order. Columns the record never
// produced are 0; encoded columns not in the order are dropped.
func Reindex(encoded map[string]float64, columns []string) []float64 {
	vector := make([]float64, len(columns))
	for i, name := range columns {
		vector[i] = encoded[name]
	}
	return vector
}

// Align converts a validated record into the vector the bundle's classifier
// expects. The bundle's feature order is the only source of output shape.
func Align(rec Record, bundle *ml.Bundle) ([]float64, error) {
	if bundle == nil {
		return nil, fmt.Errorf("%w: no bundle", ml.ErrArtifactMissing)
	}
	scaled, err := Scale(rec, bundle.Scaler)
	if err != nil {
		return nil, err
	}
	return Reindex(Encode(rec, scaled), bundle.Features), nil
}
