// Package churn turns a raw customer record into the feature vector a
// trained churn classifier expects, and runs the prediction.
package churn

import "slices"

// Raw record field names. They double as the prefixes of the one-hot
// indicator columns, so they must match the training data exactly.
const (
	FieldGender           = "gender"
	FieldSeniorCitizen    = "SeniorCitizen"
	FieldPartner          = "Partner"
	FieldDependents       = "Dependents"
	FieldTenure           = "tenure"
	FieldPhoneService     = "PhoneService"
	FieldMultipleLines    = "MultipleLines"
	FieldInternetService  = "InternetService"
	FieldOnlineSecurity   = "OnlineSecurity"
	FieldOnlineBackup     = "OnlineBackup"
	FieldDeviceProtection = "DeviceProtection"
	FieldTechSupport      = "TechSupport"
	FieldStreamingTV      = "StreamingTV"
	FieldStreamingMovies  = "StreamingMovies"
	FieldContract         = "Contract"
	FieldPaperlessBilling = "PaperlessBilling"
	FieldPaymentMethod    = "PaymentMethod"
	FieldMonthlyCharges   = "MonthlyCharges"
	FieldTotalCharges     = "TotalCharges"
)

// NumericColumns are scaled together, in this order, as one row.
var NumericColumns = []string{FieldTenure, FieldMonthlyCharges, FieldTotalCharges}

var (
	yesNo           = []string{"Yes", "No"}
	internetAddOn   = []string{"No", "Yes", "No internet service"}
	multipleLines   = []string{"No", "Yes", "No phone service"}
	internetService = []string{"DSL", "Fiber optic", "No"}
	contract        = []string{"Month-to-month", "One year", "Two year"}
	paymentMethod   = []string{"Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)"}
)

// Field is a closed-option field of the raw record. The first domain value
// is the form's initial selection.
type Field struct {
	Name   string
	Domain []string
	// Derived fields are collected as Yes/No but enter the model as a 0/1
	// column instead of indicator columns.
	Derived bool
}

// Fields lists every categorical field in form order.
var Fields = []Field{
	{Name: FieldGender, Domain: []string{"Male", "Female"}},
	{Name: FieldSeniorCitizen, Domain: []string{"No", "Yes"}, Derived: true},
	{Name: FieldPartner, Domain: yesNo},
	{Name: FieldDependents, Domain: yesNo},
	{Name: FieldPhoneService, Domain: yesNo},
	{Name: FieldMultipleLines, Domain: multipleLines},
	{Name: FieldInternetService, Domain: internetService},
	{Name: FieldOnlineSecurity, Domain: internetAddOn},
	{Name: FieldOnlineBackup, Domain: internetAddOn},
	{Name: FieldDeviceProtection, Domain: internetAddOn},
	{Name: FieldTechSupport, Domain: internetAddOn},
	{Name: FieldStreamingTV, Domain: internetAddOn},
	{Name: FieldStreamingMovies, Domain: internetAddOn},
	{Name: FieldContract, Domain: contract},
	{Name: FieldPaperlessBilling, Domain: yesNo},
	{Name: FieldPaymentMethod, Domain: paymentMethod},
}

// LookupField finds a categorical field by name.
func LookupField(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Allows reports whether value is in the field's domain.
func (f Field) Allows(value string) bool {
	return slices.Contains(f.Domain, value)
}

// EncodedFields are the categorical fields that become indicator columns.
func EncodedFields() []Field {
	out := make([]Field, 0, len(Fields))
	for _, f := range Fields {
		if !f.Derived {
			out = append(out, f)
		}
	}
	return out
}

// IndicatorName is the one-hot column for a field value.
func IndicatorName(field, value string) string {
	return field + "_" + value
}

// EncodableColumns lists every column Encode can produce: the numeric
// columns, SeniorCitizen, then each indicator in field and domain order.
func EncodableColumns() []string {
	columns := append([]string{}, NumericColumns...)
	columns = append(columns, FieldSeniorCitizen)
	for _, f := range EncodedFields() {
		for _, value := range f.Domain {
			columns = append(columns, IndicatorName(f.Name, value))
		}
	}
	return columns
}

// DefaultValues returns the initial selection of every categorical field.
func DefaultValues() map[string]string {
	defaults := make(map[string]string, len(Fields))
	for _, f := range Fields {
		defaults[f.Name] = f.Domain[0]
	}
	return defaults
}
