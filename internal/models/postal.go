package models

// PostalCantonEntry is one row of the postal-code-to-canton table.
// CantonCode is empty when CantonName has no known abbreviation.
type PostalCantonEntry struct {
	PostalCode string     `json:"postalCode" db:"postal_code"`
	CantonName string     `json:"cantonName" db:"canton"`
	CantonCode CantonCode `json:"cantonCode,omitempty"`
}

// Resolved reports whether the entry's canton could be mapped to a code.
func (e PostalCantonEntry) Resolved() bool {
	return e.CantonCode != ""
}

// CantonCandidateResponse represents the API response for a resolver candidate
type CantonCandidateResponse struct {
	PostalCode string `json:"postalCode"`
	CantonName string `json:"cantonName"`
	CantonCode string `json:"cantonCode,omitempty"`
	Label      string `json:"label"`
}
