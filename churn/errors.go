package churn

import (
	"errors"
	"fmt"
	"strings"

	"telcochurn/ml"
)

var (
	ErrInvalidFieldValue = errors.New("invalid field value")
	ErrScalingFailure    = errors.New("scaling failure")
	ErrPredictionFailure = errors.New("prediction failure")
)

// Error kinds as reported to callers and metrics.
const (
	KindArtifactMissing   = "artifact_missing"
	KindInvalidFieldValue = "invalid_field_value"
	KindScalingFailure    = "scaling_failure"
	KindPredictionFailure = "prediction_failure"
	KindUnknown           = "unknown"
)

// FieldError is a single field outside its declared domain.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Reason, e.Value)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidFieldValue
}

// FieldErrors collects every invalid field of one record.
type FieldErrors []*FieldError

func (errs FieldErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return ErrInvalidFieldValue.Error() + ": " + strings.Join(parts, "; ")
}

func (errs FieldErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// ErrorKind classifies err into one of the reported kinds.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ml.ErrArtifactMissing):
		return KindArtifactMissing
	case errors.Is(err, ErrInvalidFieldValue):
		return KindInvalidFieldValue
	case errors.Is(err, ErrScalingFailure):
		return KindScalingFailure
	case errors.Is(err, ErrPredictionFailure):
		return KindPredictionFailure
	default:
		return KindUnknown
	}
}
