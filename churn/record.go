package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RawRecord is one customer as submitted by the form or the JSON API.
// SeniorCitizen arrives as Yes/No.
type RawRecord struct {
	Gender           string  `json:"gender" validate:"domain"`
	SeniorCitizen    string  `json:"SeniorCitizen" validate:"domain"`
	Partner          string  `json:"Partner" validate:"domain"`
	Dependents       string  `json:"Dependents" validate:"domain"`
	Tenure           int     `json:"tenure" validate:"gte=0"`
	PhoneService     string  `json:"PhoneService" validate:"domain"`
	MultipleLines    string  `json:"MultipleLines" validate:"domain"`
	InternetService  string  `json:"InternetService" validate:"domain"`
	OnlineSecurity   string  `json:"OnlineSecurity" validate:"domain"`
	OnlineBackup     string  `json:"OnlineBackup" validate:"domain"`
	DeviceProtection string  `json:"DeviceProtection" validate:"domain"`
	TechSupport      string  `json:"TechSupport" validate:"domain"`
	StreamingTV      string  `json:"StreamingTV" validate:"domain"`
	StreamingMovies  string  `json:"StreamingMovies" validate:"domain"`
	Contract         string  `json:"Contract" validate:"domain"`
	PaperlessBilling string  `json:"PaperlessBilling" validate:"domain"`
	PaymentMethod    string  `json:"PaymentMethod" validate:"domain"`
	MonthlyCharges   float64 `json:"MonthlyCharges" validate:"finite,gte=0"`
	TotalCharges     float64 `json:"TotalCharges" validate:"finite,gte=0"`
}

// Record is a validated RawRecord with SeniorCitizen derived to 0/1.
type Record struct {
	SeniorCitizen  int
	Tenure         int
	MonthlyCharges float64
	TotalCharges   float64
	// Categorical holds every encoded field's value by field name.
	Categorical map[string]string
}

func (r *RawRecord) categorical() map[string]*string {
	return map[string]*string{
		FieldGender:           &r.Gender,
		FieldSeniorCitizen:    &r.SeniorCitizen,
		FieldPartner:          &r.Partner,
		FieldDependents:       &r.Dependents,
		FieldPhoneService:     &r.PhoneService,
		FieldMultipleLines:    &r.MultipleLines,
		FieldInternetService:  &r.InternetService,
		FieldOnlineSecurity:   &r.OnlineSecurity,
		FieldOnlineBackup:     &r.OnlineBackup,
		FieldDeviceProtection: &r.DeviceProtection,
		FieldTechSupport:      &r.TechSupport,
		FieldStreamingTV:      &r.StreamingTV,
		FieldStreamingMovies:  &r.StreamingMovies,
		FieldContract:         &r.Contract,
		FieldPaperlessBilling: &r.PaperlessBilling,
		FieldPaymentMethod:    &r.PaymentMethod,
	}
}

// Get returns a categorical field's value.
func (r *RawRecord) Get(name string) (string, bool) {
	ref, ok := r.categorical()[name]
	if !ok {
		return "", false
	}
	return *ref, true
}

// Set assigns a field from its textual form value.
func (r *RawRecord) Set(name, value string) error {
	value = strings.TrimSpace(value)
	switch name {
	case FieldTenure:
		n, err := strconv.Atoi(value)
		if err != nil {
			return &FieldError{Field: name, Value: value, Reason: "must be a whole number"}
		}
		r.Tenure = n
		return nil
	case FieldMonthlyCharges, FieldTotalCharges:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &FieldError{Field: name, Value: value, Reason: "must be a number"}
		}
		if name == FieldMonthlyCharges {
			r.MonthlyCharges = f
		} else {
			r.TotalCharges = f
		}
		return nil
	}
	ref, ok := r.categorical()[name]
	if !ok {
		return &FieldError{Field: name, Value: value, Reason: "unknown field"}
	}
	*ref = value
	return nil
}

// ApplyDefaults fills every empty categorical field that has a default.
// Fields a form does not ask for are resolved here, never inside encoding.
func (r *RawRecord) ApplyDefaults(defaults map[string]string) {
	for name, ref := range r.categorical() {
		if *ref != "" {
			continue
		}
		if value, ok := defaults[name]; ok {
			*ref = value
		}
	}
}

// CheckDefaults verifies that every default names a categorical field and
// lies in its domain.
func CheckDefaults(defaults map[string]string) error {
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs FieldErrors
	for _, name := range names {
		value := defaults[name]
		field, ok := LookupField(name)
		if !ok {
			errs = append(errs, &FieldError{Field: name, Value: value, Reason: "unknown field"})
			continue
		}
		if !field.Allows(value) {
			errs = append(errs, &FieldError{Field: name, Value: value, Reason: domainReason(field)})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
		field, ok := LookupField(fl.FieldName())
		return ok && field.Allows(fl.Field().String())
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validate rejects any field outside its declared domain and derives the
// model-facing record.
func Validate(raw RawRecord) (Record, error) {
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Record{}, fmt.Errorf("%w: %w", ErrInvalidFieldValue, err)
		}
		errs := make(FieldErrors, 0, len(verrs))
		for _, fe := range verrs {
			errs = append(errs, fieldErrorFrom(fe))
		}
		return Record{}, errs
	}

	rec := Record{
		Tenure:         raw.Tenure,
		MonthlyCharges: raw.MonthlyCharges,
		TotalCharges:   raw.TotalCharges,
		Categorical:    make(map[string]string, len(Fields)-1),
	}
	for name, ref := range raw.categorical() {
		if name == FieldSeniorCitizen {
			if *ref == "Yes" {
				rec.SeniorCitizen = 1
			}
			continue
		}
		rec.Categorical[name] = *ref
	}
	return rec, nil
}

func fieldErrorFrom(fe validator.FieldError) *FieldError {
	out := &FieldError{Field: fe.Field(), Value: fmt.Sprint(fe.Value())}
	switch fe.Tag() {
	case "domain":
		if out.Value == "" {
			out.Reason = "is required"
		} else if field, ok := LookupField(fe.Field()); ok {
			out.Reason = domainReason(field)
		} else {
			out.Reason = "unknown field"
		}
	case "gte":
		out.Reason = "must not be negative"
	case "finite":
		out.Reason = "must be a finite number"
	default:
		out.Reason = "failed " + fe.Tag()
	}
	return out
}

func domainReason(field Field) string {
	return "must be one of " + strings.Join(field.Domain, ", ")
}

// Numeric returns the columns fed to the scaler, in NumericColumns order.
func (r Record) Numeric() []float64 {
	return []float64{float64(r.Tenure), r.MonthlyCharges, r.TotalCharges}
}

// Key identifies the record for caching. Equal keys mean equal model input.
func (r Record) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.SeniorCitizen))
	for _, v := range r.Numeric() {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, f := range EncodedFields() {
		b.WriteByte('|')
		b.WriteString(r.Categorical[f.Name])
	}
	return b.String()
}

// DecodeRecord reads one JSON record. A value of the wrong JSON type is a
// field error; unknown fields and malformed JSON are not.
func DecodeRecord(body io.Reader) (RawRecord, error) {
	var raw RawRecord
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return raw, &FieldError{Field: typeErr.Field, Value: typeErr.Value, Reason: "must be a JSON " + typeErr.Type.Kind().String()}
		}
		return raw, fmt.Errorf("invalid json body: %w", err)
	}
	return raw, nil
}
