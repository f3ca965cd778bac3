package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AgeBracket is the premium age class used by the tariff table.
type AgeBracket string

const (
	AgeBracketChild      AgeBracket = "AKL-KIN" // 0-18
	AgeBracketYoungAdult AgeBracket = "AKL-JUG" // 19-25
	AgeBracketAdult      AgeBracket = "AKL-ERW" // 26+
)

// ParseAgeBracket accepts the table codes case-insensitively.
func ParseAgeBracket(s string) (AgeBracket, error) {
	switch b := AgeBracket(strings.ToUpper(strings.TrimSpace(s))); b {
	case AgeBracketChild, AgeBracketYoungAdult, AgeBracketAdult:
		return b, nil
	}
	return "", fmt.Errorf("unknown age bracket %q", s)
}

// Label returns a human readable name for the bracket.
func (b AgeBracket) Label() string {
	switch b {
	case AgeBracketChild:
		return "Kinder (0-18)"
	case AgeBracketYoungAdult:
		return "Junge Erwachsene (19-25)"
	case AgeBracketAdult:
		return "Erwachsene (26+)"
	}
	return string(b)
}

// Deductible is a franchise tier as stored in the tariff table, e.g. "FRA-1000".
// Codes of other shapes are kept as they are; only FRA codes carry an amount.
type Deductible string

var deductiblePattern = regexp.MustCompile(`^FRA-(\d+)$`)

// ParseDeductible normalises a tier code to upper case. A bare amount ("1000")
// is accepted and prefixed with "FRA-". Any other non-blank code is accepted.
func ParseDeductible(s string) (Deductible, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty deductible")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", fmt.Errorf("invalid deductible %q", s)
	}
	if _, err := strconv.Atoi(s); err == nil {
		s = "FRA-" + s
	}
	return Deductible(s), nil
}

// Less orders FRA tiers by amount, followed by other codes alphabetically.
func (d Deductible) Less(o Deductible) bool {
	a, b := d.Amount(), o.Amount()
	switch {
	case a >= 0 && b >= 0:
		return a < b
	case a >= 0 || b >= 0:
		return a >= 0
	}
	return d < o
}

// Amount returns the CHF amount of the tier, or -1 if the code is not an FRA code.
func (d Deductible) Amount() int {
	m := deductiblePattern.FindStringSubmatch(string(d))
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}

// TariffRecord is one row of the tariff export.
type TariffRecord struct {
	Canton     CantonCode      `json:"canton" db:"canton"`
	Deductible Deductible      `json:"deductible" db:"deductible"`
	AgeBracket AgeBracket      `json:"ageBracket" db:"age_bracket"`
	TariffName string          `json:"tariffName" db:"tariff_name"`
	Premium    decimal.Decimal `json:"premium" db:"premium"`
}

// TariffKey identifies the filter applied to the tariff table.
type TariffKey struct {
	Canton     CantonCode
	Deductible Deductible
	AgeBracket AgeBracket
}

// Key returns the filter key the record matches.
func (r TariffRecord) Key() TariffKey {
	return TariffKey{Canton: r.Canton, Deductible: r.Deductible, AgeBracket: r.AgeBracket}
}

// TariffResult is the presentation view of a TariffRecord: name and premium only.
type TariffResult struct {
	TariffName string `json:"tariffName"`
	Premium    string `json:"premium"`
	Currency   string `json:"currency"`
}

// Result converts the record into its presentation view.
func (r TariffRecord) Result() TariffResult {
	return TariffResult{
		TariffName: r.TariffName,
		Premium:    r.Premium.StringFixed(2),
		Currency:   "CHF",
	}
}

// DeductibleResponse represents the API response for an available tier
type DeductibleResponse struct {
	Code   string `json:"code"`
	Amount *int   `json:"amount,omitempty"`
	Label  string `json:"label"`
}
