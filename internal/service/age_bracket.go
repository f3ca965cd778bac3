package service

import (
	"time"

	"github.com/GTDGit/tariff_api/internal/models"
)

// Age returns the completed years between birth and asOf, comparing calendar
// dates only.
func Age(birth, asOf time.Time) int {
	by, bm, bd := birth.Date()
	ay, am, ad := asOf.Date()

	age := ay - by
	if am < bm || (am == bm && ad < bd) {
		age--
	}
	return age
}

// BracketFor maps the age at asOf to its premium age class:
// up to 18 child, 19 to 25 young adult, 26 and older adult.
func BracketFor(birth, asOf time.Time) models.AgeBracket {
	return bracketForAge(Age(birth, asOf))
}

func bracketForAge(age int) models.AgeBracket {
	switch {
	case age <= 18:
		return models.AgeBracketChild
	case age <= 25:
		return models.AgeBracketYoungAdult
	default:
		return models.AgeBracketAdult
	}
}
