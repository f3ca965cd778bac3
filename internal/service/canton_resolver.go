package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/models"
	"github.com/GTDGit/tariff_api/internal/utils"
)

// MinPrefixLength is the number of digits needed before the resolver searches.
const MinPrefixLength = 2

// CantonResolver maps partial postal codes to (postal code, canton) candidates.
type CantonResolver struct {
	catalog *catalog.Catalog
}

// NewCantonResolver creates a CantonResolver over cat.
func NewCantonResolver(cat *catalog.Catalog) *CantonResolver {
	return &CantonResolver{catalog: cat}
}

// Resolve returns every distinct (postal code, canton) pair whose postal code
// starts with prefix, in table order. Prefixes shorter than MinPrefixLength
// characters (after trimming) return an empty result; non-digit prefixes fail with ErrInvalidPostalPrefix.
func (r *CantonResolver) Resolve(prefix string) ([]models.PostalCantonEntry, error) {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < MinPrefixLength {
		return []models.PostalCantonEntry{}, nil
	}
	for _, ch := range prefix {
		if ch < '0' || ch > '9' {
			return nil, fmt.Errorf("%w: %q", utils.ErrInvalidPostalPrefix, prefix)
		}
	}

	type pair struct{ code, canton string }
	seen := make(map[pair]bool)
	out := []models.PostalCantonEntry{}
	for e := range r.catalog.PostalEntries() {
		if !strings.HasPrefix(e.PostalCode, prefix) {
			continue
		}
		p := pair{e.PostalCode, e.CantonName}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, e)
	}
	return out, nil
}

// Candidates returns the distinct entries of one exact postal code.
func (r *CantonResolver) Candidates(postalCode string) []models.PostalCantonEntry {
	seen := make(map[string]bool)
	var out []models.PostalCantonEntry
	for e := range r.catalog.PostalEntries() {
		if e.PostalCode == postalCode && !seen[e.CantonName] {
			seen[e.CantonName] = true
			out = append(out, e)
		}
	}
	return out
}
