package models

import "time"

// Sex is collected by the form but not used for filtering: the tariff table
// has no sex column.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// UserQuery is the transient input of one eligibility search.
type UserQuery struct {
	BirthDate  time.Time
	PostalCode string
	CantonName string
	Canton     string
	Deductible string
	Sex        Sex
}

// SearchRequest is the JSON body of POST /v1/tariffs/search.
type SearchRequest struct {
	BirthDate  string `json:"birthDate"`
	PostalCode string `json:"postalCode"`
	CantonName string `json:"cantonName"`
	Canton     string `json:"canton"`
	Deductible string `json:"deductible"`
	Sex        string `json:"sex" binding:"omitempty,oneof=male female"`
}

// SearchResult is the outcome of a successful eligibility search.
// NoMatch is set when the combination exists but no product is offered.
type SearchResult struct {
	Age        int
	AgeBracket AgeBracket
	PostalCode string
	CantonName string
	Canton     CantonCode
	Deductible Deductible
	Tariffs    []TariffRecord
	NoMatch    bool
}

// SearchResponse represents the API response of a tariff search
type SearchResponse struct {
	Age        int            `json:"age"`
	AgeBracket string         `json:"ageBracket"`
	AgeLabel   string         `json:"ageLabel"`
	PostalCode string         `json:"postalCode,omitempty"`
	CantonName string         `json:"cantonName"`
	Canton     string         `json:"canton"`
	Deductible string         `json:"deductible"`
	Tariffs    []TariffResult `json:"tariffs"`
}

// AgeBracketResponse represents the API response of the age bracket calculator
type AgeBracketResponse struct {
	BirthDate  string `json:"birthDate"`
	AsOf       string `json:"asOf"`
	Age        int    `json:"age"`
	AgeBracket string `json:"ageBracket"`
	Label      string `json:"label"`
}
