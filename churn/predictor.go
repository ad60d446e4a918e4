package churn

import (
	"context"
	"fmt"
	"maps"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"telcochurn/ml"
)

const (
	VerdictChurn    = "CHURN"
	VerdictNotChurn = "NOT CHURN"
)

// Result is the outcome of one prediction. Probability is the model's
// estimate for label 1 (churn) whatever the label.
type Result struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
	Verdict     string  `json:"verdict"`
}

func newResult(label int, probability float64) Result {
	verdict := VerdictNotChurn
	if label == 1 {
		verdict = VerdictChurn
	}
	return Result{Label: label, Probability: probability, Verdict: verdict}
}

// Churn reports whether the customer is predicted to churn.
func (r Result) Churn() bool {
	return r.Label == 1
}

// Summary renders the result the way the form shows it.
func (r Result) Summary() string {
	if r.Churn() {
		return fmt.Sprintf("CHURN DETECTED (Probability: %.2f%%)", r.Probability*100)
	}
	return fmt.Sprintf("NOT CHURN (Probability: %.2f%%)", r.Probability*100)
}

// ArtifactSource hands out the loaded bundle. *ml.Loader implements it.
type ArtifactSource interface {
	Get() (*ml.Bundle, error)
}

// Recorder receives prediction outcomes.
type Recorder interface {
	ObservePrediction(verdict string, latency time.Duration, cached bool)
	ObserveFailure(kind string)
}

type Option func(*Predictor)

// WithDefaults sets values for fields a form does not collect. They are
// merged over DefaultValues.
func WithDefaults(defaults map[string]string) Option {
	return func(p *Predictor) {
		maps.Copy(p.defaults, defaults)
	}
}

// WithCacheSize memoises up to size results; 0 disables the cache.
func WithCacheSize(size int) Option {
	return func(p *Predictor) {
		p.cacheSize = size
	}
}

// WithTimeout bounds the classifier call; 0 means no bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Predictor) {
		p.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Predictor) {
		p.logger = logger
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Predictor) {
		p.recorder = r
	}
}

// Predictor runs the whole pipeline for one record at a time. It holds no
// per-request state, so one Predictor serves concurrent requests.
type Predictor struct {
	artifacts ArtifactSource
	defaults  map[string]string
	cacheSize int
	cache     *lru.Cache[string, Result]
	timeout   time.Duration
	logger    *zap.Logger
	recorder  Recorder
}

func NewPredictor(artifacts ArtifactSource, opts ...Option) (*Predictor, error) {
	p := &Predictor{
		artifacts: artifacts,
		defaults:  DefaultValues(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := CheckDefaults(p.defaults); err != nil {
		return nil, fmt.Errorf("form defaults: %w", err)
	}
	if p.cacheSize > 0 {
		cache, err := lru.New[string, Result](p.cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Defaults returns a copy of the values used for uncollected fields.
func (p *Predictor) Defaults() map[string]string {
	return maps.Clone(p.defaults)
}

// Predict validates raw, aligns it to the bundle's columns and asks the
// classifier. Failures are never retried and never cached.
func (p *Predictor) Predict(ctx context.Context, raw RawRecord) (Result, error) {
	start := time.Now()
	result, cached, err := p.predict(ctx, raw)
	if err != nil {
		kind := ErrorKind(err)
		p.logger.Warn("prediction failed", zap.String("kind", kind), zap.Error(err))
		if p.recorder != nil {
			p.recorder.ObserveFailure(kind)
		}
		return Result{}, err
	}
	latency := time.Since(start)
	p.logger.Info("prediction",
		zap.Int("label", result.Label),
		zap.Float64("probability", result.Probability),
		zap.Bool("cached", cached),
		zap.Duration("latency", latency))
	if p.recorder != nil {
		p.recorder.ObservePrediction(result.Verdict, latency, cached)
	}
	return result, nil
}

func (p *Predictor) predict(ctx context.Context, raw RawRecord) (Result, bool, error) {
	raw.ApplyDefaults(p.defaults)
	rec, err := Validate(raw)
	if err != nil {
		return Result{}, false, err
	}

	bundle, err := p.artifacts.Get()
	if err != nil {
		return Result{}, false, err
	}

	key := rec.Key()
	if p.cache != nil {
		if result, ok := p.cache.Get(key); ok {
			return result, true, nil
		}
	}

	vector, err := Align(rec, bundle)
	if err != nil {
		return Result{}, false, err
	}
	result, err := p.classify(ctx, bundle.Classifier, vector)
	if err != nil {
		return Result{}, false, err
	}
	if p.cache != nil {
		p.cache.Add(key, result)
	}
	return result, false, nil
}

func (p *Predictor) classify(ctx context.Context, classifier ml.Classifier, vector []float64) (Result, error) {
	if classifier == nil {
		return Result{}, fmt.Errorf("%w: no classifier", ErrPredictionFailure)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := Classify(classifier, vector)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w: %w", ErrPredictionFailure, ctx.Err())
	}
}

// Classify asks the classifier for a label and the churn probability of an
// aligned vector.
func Classify(classifier ml.Classifier, vector []float64) (Result, error) {
	label, err := classifier.Predict(vector)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}
	if label != 0 && label != 1 {
		return Result{}, fmt.Errorf("%w: label %d is not binary", ErrPredictionFailure, label)
	}
	probability, err := classifier.PredictProbability(vector)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return Result{}, fmt.Errorf("%w: probability %v out of range", ErrPredictionFailure, probability)
	}
	return newResult(label, probability), nil
}
