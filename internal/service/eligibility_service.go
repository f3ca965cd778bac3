package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/models"
	"github.com/GTDGit/tariff_api/internal/utils"
)

var postalCodePattern = regexp.MustCompile(`^\d{4}$`)

// TariffCache caches query results per catalog version.
type TariffCache interface {
	Get(ctx context.Context, version string, key models.TariffKey) ([]models.TariffRecord, bool, error)
	Set(ctx context.Context, version string, key models.TariffKey, records []models.TariffRecord) error
}

// AmbiguousCantonError is returned when a postal code spans several cantons
// and the request did not say which one.
type AmbiguousCantonError struct {
	PostalCode string
	Candidates []models.PostalCantonEntry
}

func (e *AmbiguousCantonError) Error() string {
	return fmt.Sprintf("postal code %s belongs to %d cantons", e.PostalCode, len(e.Candidates))
}

// Is matches utils.ErrAmbiguousCanton.
func (e *AmbiguousCantonError) Is(target error) bool {
	return target == utils.ErrAmbiguousCanton
}

// EligibilityService runs one full search: validation, canton selection,
// age bracket, and tariff filter.
type EligibilityService struct {
	catalog  *catalog.Catalog
	resolver *CantonResolver
	engine   *TariffQueryEngine
	cache    TariffCache
	now      func() time.Time
}

// NewEligibilityService constructs an EligibilityService. cache may be nil.
func NewEligibilityService(cat *catalog.Catalog, resolver *CantonResolver, engine *TariffQueryEngine, cache TariffCache) *EligibilityService {
	return &EligibilityService{
		catalog:  cat,
		resolver: resolver,
		engine:   engine,
		cache:    cache,
		now:      utils.NowSwiss,
	}
}

// SetClock replaces the reference clock used for age calculation.
func (s *EligibilityService) SetClock(now func() time.Time) {
	s.now = now
}

// Search validates q and returns the matching tariffs. An empty tariff list is
// reported through SearchResult.NoMatch, not as an error.
func (s *EligibilityService) Search(ctx context.Context, q models.UserQuery) (*models.SearchResult, error) {
	today := s.now()

	if q.BirthDate.IsZero() {
		return nil, utils.NewValidationError("birthDate", "birth date is required")
	}
	if Age(q.BirthDate, today) < 0 {
		return nil, utils.NewValidationError("birthDate", "birth date lies in the future")
	}
	if q.Sex != "" && q.Sex != models.SexMale && q.Sex != models.SexFemale {
		return nil, utils.NewValidationError("sex", "must be male or female")
	}

	entry, err := s.selectCanton(q)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(q.Deductible) == "" {
		return nil, utils.NewValidationError("deductible", "deductible is required")
	}
	deductible, err := models.ParseDeductible(q.Deductible)
	if err != nil || !s.catalog.HasDeductible(deductible) {
		return nil, utils.NewValidationError("deductible", "unknown deductible %q", q.Deductible)
	}

	age := Age(q.BirthDate, today)
	bracket := bracketForAge(age)
	tariffs := s.lookup(ctx, models.TariffKey{Canton: entry.CantonCode, Deductible: deductible, AgeBracket: bracket})

	log.Debug().
		Str("canton", string(entry.CantonCode)).
		Str("deductible", string(deductible)).
		Str("age_bracket", string(bracket)).
		Int("results", len(tariffs)).
		Msg("tariff search")

	return &models.SearchResult{
		Age:        age,
		AgeBracket: bracket,
		PostalCode: entry.PostalCode,
		CantonName: entry.CantonName,
		Canton:     entry.CantonCode,
		Deductible: deductible,
		Tariffs:    tariffs,
		NoMatch:    len(tariffs) == 0,
	}, nil
}

// selectCanton turns the form's canton selection into a resolved entry.
func (s *EligibilityService) selectCanton(q models.UserQuery) (models.PostalCantonEntry, error) {
	if canton := strings.TrimSpace(q.Canton); canton != "" {
		code, ok := models.LookupCantonCode(canton)
		if !ok {
			return models.PostalCantonEntry{}, fmt.Errorf("%w: %q", utils.ErrUnresolvedCanton, canton)
		}
		return models.PostalCantonEntry{CantonName: code.CantonName(), CantonCode: code}, nil
	}

	postalCode := strings.TrimSpace(q.PostalCode)
	if postalCode == "" {
		return models.PostalCantonEntry{}, utils.NewValidationError("postalCode", "select a postal code and canton")
	}
	if !postalCodePattern.MatchString(postalCode) {
		return models.PostalCantonEntry{}, utils.NewValidationError("postalCode", "postal code must be 4 digits")
	}

	candidates := s.resolver.Candidates(postalCode)
	if len(candidates) == 0 {
		return models.PostalCantonEntry{}, utils.NewValidationError("postalCode", "unknown postal code %s", postalCode)
	}

	var entry models.PostalCantonEntry
	if name := strings.TrimSpace(q.CantonName); name != "" {
		found := false
		for _, c := range candidates {
			if c.CantonName == name {
				entry, found = c, true
				break
			}
		}
		if !found {
			return models.PostalCantonEntry{}, utils.NewValidationError("cantonName", "canton %q does not match postal code %s", name, postalCode)
		}
	} else {
		if len(candidates) > 1 {
			return models.PostalCantonEntry{}, &AmbiguousCantonError{PostalCode: postalCode, Candidates: candidates}
		}
		entry = candidates[0]
	}

	if !entry.Resolved() {
		return models.PostalCantonEntry{}, fmt.Errorf("%w: %q", utils.ErrUnresolvedCanton, entry.CantonName)
	}
	return entry, nil
}

// lookup consults the cache before filtering. Cache failures only cost the
// in-memory filter.
func (s *EligibilityService) lookup(ctx context.Context, key models.TariffKey) []models.TariffRecord {
	if s.cache == nil {
		return s.engine.Query(key.Canton, key.Deductible, key.AgeBracket)
	}

	version := s.catalog.Version()
	if records, ok, err := s.cache.Get(ctx, version, key); err != nil {
		log.Warn().Err(err).Msg("tariff cache read failed")
	} else if ok {
		return records
	}

	records := s.engine.Query(key.Canton, key.Deductible, key.AgeBracket)
	if err := s.cache.Set(ctx, version, key, records); err != nil {
		log.Warn().Err(err).Msg("tariff cache write failed")
	}
	return records
}
