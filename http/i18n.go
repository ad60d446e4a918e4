package http

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"telcochurn/churn"
)

var (
	supportedLanguages = []language.Tag{language.English, language.Indonesian}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// parseLanguage maps a configured language name onto a supported tag.
func parseLanguage(name string) language.Tag {
	tag, err := language.Parse(name)
	if err != nil {
		return language.English
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supportedLanguages[idx]
}

// negotiateLanguage picks the page language: ?lang= first, then
// Accept-Language, then fallback.
func negotiateLanguage(r *http.Request, fallback language.Tag) language.Tag {
	if q := r.URL.Query().Get("lang"); q != "" {
		if tag, err := language.Parse(q); err == nil {
			if _, idx, conf := languageMatcher.Match(tag); conf != language.No {
				return supportedLanguages[idx]
			}
		}
	}
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return supportedLanguages[idx]
}

type catalog struct {
	Title       string
	Intro       string
	Customer    string
	Submit      string
	ResultTitle string
	ChurnHead   string
	ChurnBody   string
	SafeHead    string
	SafeBody    string
	Probability string
	Unavailable string
	Labels      map[string]string
}

var catalogs = map[language.Tag]catalog{
	language.English: {
		Title:       "Telco Customer Churn Prediction",
		Intro:       "Predicts whether a customer will churn (stop subscribing). Fill in the customer parameters below.",
		Customer:    "Customer Data",
		Submit:      "Predict Now",
		ResultTitle: "Prediction Result",
		ChurnHead:   "CHURN DETECTED",
		ChurnBody:   "The customer is at risk of churning.",
		SafeHead:    "NOT CHURN",
		SafeBody:    "The customer is predicted to stay.",
		Probability: "Probability",
		Unavailable: "Predictions are unavailable",
		Labels: map[string]string{
			churn.FieldTenure:           "Tenure (Months)",
			churn.FieldMonthlyCharges:   "Monthly Charges ($)",
			churn.FieldTotalCharges:     "Total Charges ($)",
			churn.FieldGender:           "Gender",
			churn.FieldSeniorCitizen:    "Senior Citizen",
			churn.FieldPartner:          "Has Partner",
			churn.FieldDependents:       "Has Dependents",
			churn.FieldPhoneService:     "Phone Service",
			churn.FieldMultipleLines:    "Multiple Lines",
			churn.FieldInternetService:  "Internet Service",
			churn.FieldOnlineSecurity:   "Online Security",
			churn.FieldOnlineBackup:     "Online Backup",
			churn.FieldDeviceProtection: "Device Protection",
			churn.FieldTechSupport:      "Tech Support",
			churn.FieldStreamingTV:      "Streaming TV",
			churn.FieldStreamingMovies:  "Streaming Movies",
			churn.FieldContract:         "Contract",
			churn.FieldPaperlessBilling: "Paperless Billing",
			churn.FieldPaymentMethod:    "Payment Method",
		},
	},
	language.Indonesian: {
		Title:       "Prediksi Churn Pelanggan Telco",
		Intro:       "Memprediksi apakah pelanggan akan churn (berhenti berlangganan). Silakan isi parameter pelanggan di bawah.",
		Customer:    "Data Pelanggan",
		Submit:      "Prediksi Sekarang",
		ResultTitle: "Hasil Prediksi",
		ChurnHead:   "CHURN TERDETEKSI",
		ChurnBody:   "Pelanggan berisiko churn.",
		SafeHead:    "TIDAK CHURN",
		SafeBody:    "Pelanggan diprediksi aman.",
		Probability: "Probabilitas",
		Unavailable: "Prediksi tidak tersedia",
		Labels: map[string]string{
			churn.FieldTenure:           "Lama Berlangganan (Bulan)",
			churn.FieldMonthlyCharges:   "Biaya Bulanan ($)",
			churn.FieldTotalCharges:     "Total Biaya ($)",
			churn.FieldGender:           "Gender",
			churn.FieldSeniorCitizen:    "Lansia",
			churn.FieldPartner:          "Memiliki Partner",
			churn.FieldDependents:       "Memiliki Tanggungan",
			churn.FieldPhoneService:     "Layanan Telepon",
			churn.FieldMultipleLines:    "Multiple Lines",
			churn.FieldInternetService:  "Layanan Internet",
			churn.FieldOnlineSecurity:   "Keamanan Online",
			churn.FieldOnlineBackup:     "Cadangan Online",
			churn.FieldDeviceProtection: "Perlindungan Perangkat",
			churn.FieldTechSupport:      "Dukungan Teknis",
			churn.FieldStreamingTV:      "Streaming TV",
			churn.FieldStreamingMovies:  "Streaming Film",
			churn.FieldContract:         "Kontrak",
			churn.FieldPaperlessBilling: "Tagihan Tanpa Kertas",
			churn.FieldPaymentMethod:    "Metode Pembayaran",
		},
	},
}

func catalogFor(tag language.Tag) catalog {
	if c, ok := catalogs[tag]; ok {
		return c
	}
	return catalogs[language.English]
}

// formatPercent renders a probability with the language's decimal separator.
func formatPercent(tag language.Tag, probability float64) string {
	return message.NewPrinter(tag).Sprintf("%.2f%%", probability*100)
}
