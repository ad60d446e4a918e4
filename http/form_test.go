package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"telcochurn/churn"
	"telcochurn/monitoring"
)

func formValues() url.Values {
	values := url.Values{}
	values.Set(churn.FieldTenure, "12")
	values.Set(churn.FieldMonthlyCharges, "50.0")
	values.Set(churn.FieldTotalCharges, "500.0")
	values.Set(churn.FieldContract, "Month-to-month")
	values.Set(churn.FieldInternetService, "Fiber optic")
	values.Set(churn.FieldGender, "Male")
	return values
}

func postForm(h *Handlers, target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(h, req)
}

func TestFormRendersEveryField(t *testing.T) {
	h, _ := newTestHandlers(t, fixtureBundle)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range churn.NumericColumns {
		if !strings.Contains(body, `name="`+name+`"`) {
			t.Errorf("missing numeric input %s", name)
		}
	}
	for _, f := range churn.Fields {
		if !strings.Contains(body, `<select id="`+f.Name+`" name="`+f.Name+`">`) {
			t.Errorf("missing select %s", f.Name)
		}
	}
	if !strings.Contains(body, `value="12"`) {
		t.Error("expected initial tenure of 12")
	}
	if !strings.Contains(body, "Telco Customer Churn Prediction") {
		t.Error("expected english title")
	}
}

func TestFormLanguageNegotiation(t *testing.T) {
	h, _ := newTestHandlers(t, fixtureBundle)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.5")
	if body := serve(h, req).Body.String(); !strings.Contains(body, "Prediksi Churn Pelanggan Telco") {
		t.Error("expected indonesian page for Accept-Language id")
	}

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "id")
	if body := serve(h, req).Body.String(); !strings.Contains(body, "Telco Customer Churn Prediction") {
		t.Error("expected query parameter to override Accept-Language")
	}
}

func TestNegotiateLanguageFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := negotiateLanguage(req, language.Indonesian); got != language.Indonesian {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := parseLanguage("not a language"); got != language.English {
		t.Fatalf("expected english for unparseable name, got %v", got)
	}
}

func TestFormMissingArtifact(t *testing.T) {
	h, _ := newTestHandlers(t, filepath.Join(t.TempDir(), "churn_model.json"))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Predictions are unavailable") {
		t.Error("expected unavailable notice")
	}
	if strings.Contains(body, "<form") {
		t.Error("form must not be offered without an artifact")
	}

	if w := postForm(h, "/predict", formValues()); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on submit, got %d", w.Code)
	}
}

func TestFormSubmit(t *testing.T) {
	h, metrics := newTestHandlers(t, fixtureBundle)
	w := postForm(h, "/predict", formValues())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Prediction Result") {
		t.Fatal("expected a result section")
	}
	if !strings.Contains(body, "CHURN DETECTED") && !strings.Contains(body, "NOT CHURN") {
		t.Fatal("expected a verdict headline")
	}
	if !strings.Contains(body, `<option value="Month-to-month" selected>`) {
		t.Error("expected submitted contract to stay selected")
	}
	if metrics.Snapshot().Counters[monitoring.PredictionsTotal] != 1 {
		t.Error("expected the submission to be recorded")
	}
}

func TestFormSubmitMatchesAPI(t *testing.T) {
	predictor := &fakePredictor{result: churn.Result{Label: 1, Probability: 0.731, Verdict: churn.VerdictChurn}}
	h := NewHandlers(predictor, newTestLoader(), nil, nil, "en")

	values := formValues()
	values.Del(churn.FieldPaymentMethod)
	w := postForm(h, "/predict", values)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CHURN DETECTED") || !strings.Contains(w.Body.String(), "73.10%") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if predictor.got.Contract != "Month-to-month" || predictor.got.Tenure != 12 {
		t.Fatalf("form values not forwarded: %+v", predictor.got)
	}
	if predictor.got.PaymentMethod != "" {
		t.Fatal("unsubmitted select must be left for the predictor defaults")
	}
}

func TestFormSubmitErrors(t *testing.T) {
	h, _ := newTestHandlers(t, fixtureBundle)

	missing := formValues()
	missing.Del(churn.FieldTenure)
	w := postForm(h, "/predict", missing)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing tenure, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "is required") {
		t.Error("expected required message")
	}

	outside := formValues()
	outside.Set(churn.FieldGender, "Other")
	w = postForm(h, "/predict", outside)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for out-of-domain gender, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "Prediction Result") {
		t.Error("no result may be shown for an invalid submission")
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(language.English, 0.731); got != "73.10%" {
		t.Fatalf("unexpected english percent %q", got)
	}
	if got := formatPercent(language.Indonesian, 0.731); !strings.HasSuffix(got, "%") {
		t.Fatalf("unexpected indonesian percent %q", got)
	}
}
