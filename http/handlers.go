package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"telcochurn/churn"
	"telcochurn/monitoring"
)

// Predictor runs one prediction. *churn.Predictor implements it.
type Predictor interface {
	Predict(ctx context.Context, raw churn.RawRecord) (churn.Result, error)
	Defaults() map[string]string
}

// MetricsSource exposes collected metrics. *monitoring.Collector implements it.
type MetricsSource interface {
	Snapshot() monitoring.Snapshot
}

// Handlers serves the form and the JSON API.
type Handlers struct {
	predictor Predictor
	artifacts churn.ArtifactSource
	metrics   MetricsSource
	logger    *zap.Logger
	language  language.Tag
}

// NewHandlers wires the serving surface. metrics may be nil. lang is the
// form language when the request does not ask for one.
func NewHandlers(predictor Predictor, artifacts churn.ArtifactSource, metrics MetricsSource, logger *zap.Logger, lang string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		predictor: predictor,
		artifacts: artifacts,
		metrics:   metrics,
		logger:    logger,
		language:  parseLanguage(lang),
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handleFormSubmit)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind string, err error) {
	writeJSON(w, status, errorResponse{
		Error:     kind,
		Message:   err.Error(),
		RequestID: GetRequestID(r.Context()),
	})
}

// mapPredictError maps an error kind to its HTTP status.
func mapPredictError(err error) (int, string) {
	kind := churn.ErrorKind(err)
	switch kind {
	case churn.KindInvalidFieldValue:
		return http.StatusUnprocessableEntity, kind
	case churn.KindArtifactMissing:
		return http.StatusServiceUnavailable, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.artifacts.Get()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"features": len(bundle.Features),
	})
}

type schemaField struct {
	Name    string   `json:"name"`
	Domain  []string `json:"domain"`
	Default string   `json:"default"`
}

type schemaResponse struct {
	Categorical    []schemaField `json:"categorical"`
	Numeric        []string      `json:"numeric"`
	FeatureColumns []string      `json:"feature_columns,omitempty"`
}

func (h *Handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	defaults := h.predictor.Defaults()
	resp := schemaResponse{Numeric: churn.NumericColumns}
	for _, f := range churn.Fields {
		resp.Categorical = append(resp.Categorical, schemaField{
			Name:    f.Name,
			Domain:  f.Domain,
			Default: defaults[f.Name],
		})
	}
	if bundle, err := h.artifacts.Get(); err == nil {
		resp.FeatureColumns = bundle.Features
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	if _, err := h.artifacts.Get(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, churn.KindArtifactMissing, err)
		return
	}

	raw, err := churn.DecodeRecord(r.Body)
	if err != nil {
		if errors.Is(err, churn.ErrInvalidFieldValue) {
			writeError(w, r, http.StatusUnprocessableEntity, churn.KindInvalidFieldValue, err)
			return
		}
		writeError(w, r, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.predictor.Predict(r.Context(), raw)
	if err != nil {
		status, kind := mapPredictError(err)
		writeError(w, r, status, kind, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "metrics disabled"})
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}
