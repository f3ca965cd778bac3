package models

import "strings"

// CantonCode is the two-letter abbreviation of a Swiss canton (e.g. "ZH").
type CantonCode string

// cantonCodes maps the German canton names used in the postal table to their codes.
var cantonCodes = map[string]CantonCode{
	"Aargau":                 "AG",
	"Appenzell Ausserrhoden": "AR",
	"Appenzell Innerrhoden":  "AI",
	"Basel-Landschaft":       "BL",
	"Basel-Stadt":            "BS",
	"Bern":                   "BE",
	"Freiburg":               "FR",
	"Genf":                   "GE",
	"Glarus":                 "GL",
	"Graubünden":             "GR",
	"Jura":                   "JU",
	"Luzern":                 "LU",
	"Neuenburg":              "NE",
	"Nidwalden":              "NW",
	"Obwalden":               "OW",
	"Schaffhausen":           "SH",
	"Schwyz":                 "SZ",
	"Solothurn":              "SO",
	"St. Gallen":             "SG",
	"Tessin":                 "TI",
	"Thurgau":                "TG",
	"Uri":                    "UR",
	"Waadt":                  "VD",
	"Wallis":                 "VS",
	"Zug":                    "ZG",
	"Zürich":                 "ZH",
}

var knownCodes = func() map[CantonCode]string {
	m := make(map[CantonCode]string, len(cantonCodes))
	for name, code := range cantonCodes {
		m[code] = name
	}
	return m
}()

// LookupCantonCode converts a canton name or an already abbreviated code into
// its canonical two-letter code. Codes match case-insensitively, names exactly
// (after trimming).
func LookupCantonCode(value string) (CantonCode, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if code, ok := cantonCodes[value]; ok {
		return code, true
	}
	code := CantonCode(strings.ToUpper(value))
	if _, ok := knownCodes[code]; ok {
		return code, true
	}
	return "", false
}

// CantonName returns the German name of a canton code.
func (c CantonCode) CantonName() string {
	return knownCodes[c]
}
