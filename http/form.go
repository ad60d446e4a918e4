package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"telcochurn/churn"
)

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

// Initial numeric inputs of the form.
var numericInitial = map[string]string{
	churn.FieldTenure:         "12",
	churn.FieldMonthlyCharges: "50.0",
	churn.FieldTotalCharges:   "500.0",
}

// The first fields describe the customer; the rest are subscribed services.
const demographicFields = 4

type option struct {
	Value    string
	Selected bool
}

type selectField struct {
	Name    string
	Label   string
	Options []option
}

type numericField struct {
	Name  string
	Label string
	Value string
	Step  string
	Max   int
}

type resultView struct {
	Churn   bool
	Percent string
}

type formPage struct {
	Lang         string
	Text         catalog
	Numeric      []numericField
	Demographics []selectField
	Services     []selectField
	Result       *resultView
	Error        string
	Unavailable  string
}

func (h *Handlers) newPage(tag language.Tag, submitted url.Values) *formPage {
	text := catalogFor(tag)
	page := &formPage{Lang: tag.String(), Text: text}

	for _, name := range churn.NumericColumns {
		field := numericField{Name: name, Label: text.Labels[name], Value: numericInitial[name], Step: "0.01"}
		if name == churn.FieldTenure {
			field.Step = "1"
			field.Max = 100
		}
		if v := strings.TrimSpace(submitted.Get(name)); v != "" {
			field.Value = v
		}
		page.Numeric = append(page.Numeric, field)
	}

	selected := h.predictor.Defaults()
	for i, f := range churn.Fields {
		current := selected[f.Name]
		if v := submitted.Get(f.Name); f.Allows(v) {
			current = v
		}
		sel := selectField{Name: f.Name, Label: text.Labels[f.Name]}
		for _, value := range f.Domain {
			sel.Options = append(sel.Options, option{Value: value, Selected: value == current})
		}
		if i < demographicFields {
			page.Demographics = append(page.Demographics, sel)
		} else {
			page.Services = append(page.Services, sel)
		}
	}
	return page
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	page := h.newPage(negotiateLanguage(r, h.language), nil)
	status := http.StatusOK
	if _, err := h.artifacts.Get(); err != nil {
		page.Unavailable = err.Error()
		status = http.StatusServiceUnavailable
	}
	h.render(w, status, page)
}

func (h *Handlers) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	tag := negotiateLanguage(r, h.language)
	if err := r.ParseForm(); err != nil {
		page := h.newPage(tag, nil)
		page.Error = "invalid form submission"
		h.render(w, http.StatusBadRequest, page)
		return
	}
	page := h.newPage(tag, r.PostForm)

	if _, err := h.artifacts.Get(); err != nil {
		page.Unavailable = err.Error()
		h.render(w, http.StatusServiceUnavailable, page)
		return
	}

	raw, err := rawFromForm(r.PostForm)
	if err != nil {
		page.Error = err.Error()
		h.render(w, http.StatusUnprocessableEntity, page)
		return
	}
	result, err := h.predictor.Predict(r.Context(), raw)
	if err != nil {
		status, _ := mapPredictError(err)
		page.Error = err.Error()
		h.render(w, status, page)
		return
	}
	page.Result = &resultView{Churn: result.Churn(), Percent: formatPercent(tag, result.Probability)}
	h.render(w, http.StatusOK, page)
}

// rawFromForm reads submitted values. Missing selects are left empty for
// the predictor's defaults; missing numbers are an error.
func rawFromForm(values url.Values) (churn.RawRecord, error) {
	var raw churn.RawRecord
	var errs churn.FieldErrors
	for _, name := range churn.NumericColumns {
		v := strings.TrimSpace(values.Get(name))
		if v == "" {
			errs = append(errs, &churn.FieldError{Field: name, Reason: "is required"})
			continue
		}
		if err := raw.Set(name, v); err != nil {
			var fe *churn.FieldError
			if errors.As(err, &fe) {
				errs = append(errs, fe)
			}
		}
	}
	for _, f := range churn.Fields {
		if v := values.Get(f.Name); v != "" {
			_ = raw.Set(f.Name, v)
		}
	}
	if len(errs) > 0 {
		return raw, errs
	}
	return raw, nil
}

func (h *Handlers) render(w http.ResponseWriter, status int, page *formPage) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, page); err != nil {
		h.logger.Error("render form", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
