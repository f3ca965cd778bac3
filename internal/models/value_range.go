package models

// ValueRange is one row of the value-range metadata table (Wertebereiche).
// It is descriptive only and never consulted by the tariff filter.
type ValueRange struct {
	Domain string `json:"domain" db:"domain"`
	Code   string `json:"code" db:"code"`
	Label  string `json:"label" db:"label"`
}
