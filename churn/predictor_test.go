package churn

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telcochurn/ml"
)

type staticSource struct {
	bundle *ml.Bundle
	err    error
	calls  int
}

func (s *staticSource) Get() (*ml.Bundle, error) {
	s.calls++
	return s.bundle, s.err
}

type countingClassifier struct {
	ml.Classifier
	mu    sync.Mutex
	calls int
}

func (c *countingClassifier) Predict(vector []float64) (int, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Classifier.Predict(vector)
}

type slowClassifier struct {
	width int
	delay time.Duration
}

func (s slowClassifier) Width() int { return s.width }

func (s slowClassifier) Predict([]float64) (int, error) {
	time.Sleep(s.delay)
	return 0, nil
}

func (s slowClassifier) PredictProbability([]float64) (float64, error) { return 0.2, nil }

type badClassifier struct {
	label       int
	probability float64
}

func (b badClassifier) Width() int { return 45 }

func (b badClassifier) Predict([]float64) (int, error) { return b.label, nil }

func (b badClassifier) PredictProbability([]float64) (float64, error) { return b.probability, nil }

type fakeRecorder struct {
	verdicts []string
	cached   []bool
	failures []string
}

func (r *fakeRecorder) ObservePrediction(verdict string, _ time.Duration, cached bool) {
	r.verdicts = append(r.verdicts, verdict)
	r.cached = append(r.cached, cached)
}

func (r *fakeRecorder) ObserveFailure(kind string) {
	r.failures = append(r.failures, kind)
}

func TestPredictScenarioA(t *testing.T) {
	p, err := NewPredictor(ml.NewLoader(filepath.Join("..", "ml", "testdata", "churn_model.json")))
	require.NoError(t, err)

	result, err := p.Predict(context.Background(), RawRecord{
		Tenure:          12,
		MonthlyCharges:  50.0,
		TotalCharges:    500.0,
		Contract:        "Month-to-month",
		InternetService: "Fiber optic",
		Gender:          "Male",
		SeniorCitizen:   "No",
	})
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, result.Label)
	assert.GreaterOrEqual(t, result.Probability, 0.0)
	assert.LessOrEqual(t, result.Probability, 1.0)
	assert.Equal(t, result.Label == 1, result.Churn())
	assert.Equal(t, result.Label == 1, result.Probability > 0.5)
}

func TestPredictIsDeterministic(t *testing.T) {
	p, err := NewPredictor(&staticSource{bundle: loadBundle(t)})
	require.NoError(t, err)

	first, err := p.Predict(context.Background(), scenarioA())
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), scenarioA())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictBoundaryNumerics(t *testing.T) {
	p, err := NewPredictor(&staticSource{bundle: loadBundle(t)})
	require.NoError(t, err)

	raw := scenarioA()
	raw.Tenure, raw.MonthlyCharges, raw.TotalCharges = 0, 0, 0
	result, err := p.Predict(context.Background(), raw)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Probability, 0.0)
	assert.LessOrEqual(t, result.Probability, 1.0)
}

func TestPredictMissingArtifact(t *testing.T) {
	recorder := &fakeRecorder{}
	p, err := NewPredictor(ml.NewLoader(filepath.Join(t.TempDir(), "churn_model.json")), WithRecorder(recorder))
	require.NoError(t, err)

	_, err = p.Predict(context.Background(), scenarioA())
	require.ErrorIs(t, err, ml.ErrArtifactMissing)
	assert.Equal(t, KindArtifactMissing, ErrorKind(err))
	assert.Equal(t, []string{KindArtifactMissing}, recorder.failures)
}

func TestPredictRejectsBeforeLoadingArtifacts(t *testing.T) {
	source := &staticSource{bundle: loadBundle(t)}
	p, err := NewPredictor(source)
	require.NoError(t, err)

	raw := scenarioA()
	raw.InternetService = "Satellite"
	_, err = p.Predict(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidFieldValue)
	assert.Zero(t, source.calls)
}

func TestPredictUsesConfiguredDefaults(t *testing.T) {
	bundle := loadBundle(t)
	p, err := NewPredictor(&staticSource{bundle: bundle}, WithDefaults(map[string]string{
		FieldOnlineBackup: "Yes",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Yes", p.Defaults()[FieldOnlineBackup])
	assert.Equal(t, "Male", p.Defaults()[FieldGender])

	explicit := scenarioA()
	explicit.OnlineBackup = "Yes"
	want, err := p.Predict(context.Background(), explicit)
	require.NoError(t, err)

	omitted := scenarioA()
	omitted.OnlineBackup = ""
	got, err := p.Predict(context.Background(), omitted)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewPredictorRejectsBadDefaults(t *testing.T) {
	_, err := NewPredictor(&staticSource{}, WithDefaults(map[string]string{FieldContract: "Forever"}))
	assert.ErrorIs(t, err, ErrInvalidFieldValue)
}

func TestPredictCachesResults(t *testing.T) {
	bundle := loadBundle(t)
	classifier := &countingClassifier{Classifier: bundle.Classifier}
	recorder := &fakeRecorder{}
	p, err := NewPredictor(&staticSource{bundle: &ml.Bundle{
		Classifier: classifier,
		Scaler:     bundle.Scaler,
		Features:   bundle.Features,
	}}, WithCacheSize(8), WithRecorder(recorder))
	require.NoError(t, err)

	first, err := p.Predict(context.Background(), scenarioA())
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), scenarioA())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, classifier.calls)
	assert.Equal(t, []bool{false, true}, recorder.cached)
}

func TestPredictionFailures(t *testing.T) {
	bundle := loadBundle(t)
	cases := map[string]ml.Classifier{
		"wrong width":       &ml.LogisticRegression{Coefficients: []float64{1, 2, 3}},
		"non binary label":  badClassifier{label: 2, probability: 0.5},
		"probability range": badClassifier{label: 1, probability: 1.5},
		"no classifier":     nil,
	}
	for name, classifier := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := NewPredictor(&staticSource{bundle: &ml.Bundle{
				Classifier: classifier,
				Scaler:     bundle.Scaler,
				Features:   bundle.Features,
			}})
			require.NoError(t, err)
			_, err = p.Predict(context.Background(), scenarioA())
			require.ErrorIs(t, err, ErrPredictionFailure)
			assert.Equal(t, KindPredictionFailure, ErrorKind(err))
		})
	}
}

func TestPredictScalingFailure(t *testing.T) {
	bundle := loadBundle(t)
	p, err := NewPredictor(&staticSource{bundle: &ml.Bundle{
		Classifier: bundle.Classifier,
		Scaler:     &ml.MinMaxScaler{Min: []float64{0}, Max: []float64{1}},
		Features:   bundle.Features,
	}})
	require.NoError(t, err)
	_, err = p.Predict(context.Background(), scenarioA())
	require.ErrorIs(t, err, ErrScalingFailure)
	assert.Equal(t, KindScalingFailure, ErrorKind(err))
}

func TestPredictTimeout(t *testing.T) {
	bundle := loadBundle(t)
	p, err := NewPredictor(&staticSource{bundle: &ml.Bundle{
		Classifier: slowClassifier{width: len(bundle.Features), delay: 200 * time.Millisecond},
		Scaler:     bundle.Scaler,
		Features:   bundle.Features,
	}}, WithTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = p.Predict(context.Background(), scenarioA())
	require.ErrorIs(t, err, ErrPredictionFailure)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPredictCancelledContext(t *testing.T) {
	p, err := NewPredictor(&staticSource{bundle: loadBundle(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Predict(ctx, scenarioA())
	require.ErrorIs(t, err, ErrPredictionFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultSummary(t *testing.T) {
	assert.Equal(t, "CHURN DETECTED (Probability: 73.10%)", newResult(1, 0.731).Summary())
	assert.Equal(t, "NOT CHURN (Probability: 12.00%)", newResult(0, 0.12).Summary())
	assert.Equal(t, VerdictChurn, newResult(1, 0.9).Verdict)
	assert.Equal(t, VerdictNotChurn, newResult(0, 0.1).Verdict)
}

func TestErrorKindUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, ErrorKind(errors.New("boom")))
}
