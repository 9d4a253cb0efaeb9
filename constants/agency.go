package constants

import (
	"strings"
)

// Agency is a canonical rating agency name. Factsheets spell these a dozen
// different ways; load-side uniqueness depends on one spelling per agency.
type Agency string

const (
	FitchRatings  Agency = "Fitch Ratings Colombia"
	BRCRatings    Agency = "BRC Ratings S&P Global"
	MoodysLocal   Agency = "Moody's Local"
	ValueAndRisk  Agency = "Value & Risk Rating"
	UnknownAgency Agency = "Desconocida"
)

var allAgencies = []Agency{
	FitchRatings,
	BRCRatings,
	MoodysLocal,
	ValueAndRisk,
	UnknownAgency,
}

func AgencyNames() []string {
	result := make([]string, len(allAgencies))
	for i, a := range allAgencies {
		result[i] = string(a)
	}
	return result
}

// CanonicalizeAgency maps a free-form agency label to its canonical name.
func CanonicalizeAgency(input string) (Agency, bool) {
	if input == "" {
		return UnknownAgency, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Agency{
		"fitch":                   FitchRatings,
		"fitch ratings":           FitchRatings,
		"fitch ratings colombia":  FitchRatings,
		"brc":                     BRCRatings,
		"brc standard & poor's":   BRCRatings,
		"brc s&p":                 BRCRatings,
		"brc ratings":             BRCRatings,
		"brc investor services":   BRCRatings,
		"moody's":                 MoodysLocal,
		"moodys":                  MoodysLocal,
		"moody's local":           MoodysLocal,
		"value and risk":          ValueAndRisk,
		"value & risk":            ValueAndRisk,
		"value & risk rating":     ValueAndRisk,
		"value and risk rating":   ValueAndRisk,
		"sociedad calificadora de valores value & risk": ValueAndRisk,
	}

	if a, ok := synonyms[normalized]; ok {
		return a, true
	}

	for _, a := range allAgencies {
		if strings.ToLower(string(a)) == normalized {
			return a, true
		}
	}
	return UnknownAgency, false
}
