package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"iter"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/tariff_api/internal/models"
)

var postalCodePattern = regexp.MustCompile(`^\d{4}$`)

// Catalog is the immutable, typed reference data of one process lifetime.
// Every canton is stored as its two-letter code. A Catalog is safe for
// concurrent readers.
type Catalog struct {
	tariffs     []models.TariffRecord
	postal      []models.PostalCantonEntry
	valueRanges []models.ValueRange
	deductibles []models.Deductible
	version     string
	loadedAt    time.Time
}

// Load reads the raw tables from src and builds a Catalog. Any failure is
// returned as a *LoadError; a nil Catalog must block further queries.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	tables, err := src.Load(ctx)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &LoadError{Err: err}
	}
	return New(tables)
}

// New parses raw tables into a Catalog. Blank rows are skipped; every other
// malformed row rejects the whole load.
func New(t *Tables) (*Catalog, error) {
	if t == nil {
		return nil, &LoadError{Err: errors.New("no tables")}
	}
	h := sha256.New()

	tariffs, err := parseTariffs(t.Tariffs, h)
	if err != nil {
		return nil, err
	}
	postal, err := parsePostal(t.Postal, h)
	if err != nil {
		return nil, err
	}
	ranges, err := parseValueRanges(t.ValueRanges, h)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		tariffs:     tariffs,
		postal:      postal,
		valueRanges: ranges,
		deductibles: distinctDeductibles(tariffs),
		version:     hex.EncodeToString(h.Sum(nil))[:12],
		loadedAt:    time.Now(),
	}, nil
}

func parseTariffs(t Table, h hash.Hash) ([]models.TariffRecord, error) {
	cols := newColumns(t)
	iCanton, err := cols.find(colCanton)
	if err != nil {
		return nil, err
	}
	iDeductible, err := cols.find(colDeductible)
	if err != nil {
		return nil, err
	}
	iBracket, err := cols.find(colAgeBracket)
	if err != nil {
		return nil, err
	}
	iName, err := cols.find(colTariffName)
	if err != nil {
		return nil, err
	}
	iPremium, err := cols.find(colPremium)
	if err != nil {
		return nil, err
	}

	records := make([]models.TariffRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		line := i + 2
		rowErr := func(col []string, err error) error {
			return &LoadError{Table: t.Name, Row: line, Column: col[0], Err: err}
		}

		canton, ok := models.LookupCantonCode(cell(row, iCanton))
		if !ok {
			return nil, rowErr(colCanton, fmt.Errorf("unknown canton %q", cell(row, iCanton)))
		}
		deductible, err := models.ParseDeductible(cell(row, iDeductible))
		if err != nil {
			return nil, rowErr(colDeductible, err)
		}
		bracket, err := models.ParseAgeBracket(cell(row, iBracket))
		if err != nil {
			return nil, rowErr(colAgeBracket, err)
		}
		name := cell(row, iName)
		if name == "" {
			return nil, rowErr(colTariffName, errors.New("empty tariff name"))
		}
		premium, err := parsePremium(cell(row, iPremium))
		if err != nil {
			return nil, rowErr(colPremium, err)
		}

		rec := models.TariffRecord{
			Canton:     canton,
			Deductible: deductible,
			AgeBracket: bracket,
			TariffName: name,
			Premium:    premium,
		}
		fmt.Fprintf(h, "T\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\n", rec.Canton, rec.Deductible, rec.AgeBracket, rec.TariffName, rec.Premium)
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &LoadError{Table: t.Name, Err: errors.New("table has no rows")}
	}
	return records, nil
}

// parsePremium accepts plain decimals as well as Swiss formatting such as
// "1'234.50" or "350,00 CHF".
func parsePremium(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "CHF"))
	s = strings.NewReplacer("'", "", "’", "", " ", "", ",", ".").Replace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("empty premium")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid premium %q", raw)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative premium %q", raw)
	}
	return d, nil
}

func parsePostal(t Table, h hash.Hash) ([]models.PostalCantonEntry, error) {
	cols := newColumns(t)
	iCode, err := cols.find(colPostalCode)
	if err != nil {
		return nil, err
	}
	iCanton, err := cols.find(colCanton)
	if err != nil {
		return nil, err
	}

	entries := make([]models.PostalCantonEntry, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		line := i + 2

		code := strings.TrimSuffix(cell(row, iCode), ".0")
		if !postalCodePattern.MatchString(code) {
			return nil, &LoadError{Table: t.Name, Row: line, Column: colPostalCode[0], Err: fmt.Errorf("postal code %q is not 4 digits", cell(row, iCode))}
		}
		name := cell(row, iCanton)
		if name == "" {
			return nil, &LoadError{Table: t.Name, Row: line, Column: colCanton[0], Err: errors.New("empty canton")}
		}

		// Unknown names are kept; selecting them reports an unresolved canton.
		canton, _ := models.LookupCantonCode(name)
		fmt.Fprintf(h, "P\x1f%s\x1f%s\n", code, name)
		entries = append(entries, models.PostalCantonEntry{
			PostalCode: code,
			CantonName: name,
			CantonCode: canton,
		})
	}
	if len(entries) == 0 {
		return nil, &LoadError{Table: t.Name, Err: errors.New("table has no rows")}
	}
	return entries, nil
}

func parseValueRanges(t Table, h hash.Hash) ([]models.ValueRange, error) {
	if len(t.Header) == 0 && len(t.Rows) == 0 {
		return nil, nil
	}
	cols := newColumns(t)
	iDomain, err := cols.find(colDomain)
	if err != nil {
		return nil, err
	}
	iCode, err := cols.find(colCode)
	if err != nil {
		return nil, err
	}
	iLabel, err := cols.find(colLabel)
	if err != nil {
		return nil, err
	}

	ranges := make([]models.ValueRange, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blank(row) {
			continue
		}
		vr := models.ValueRange{
			Domain: cell(row, iDomain),
			Code:   cell(row, iCode),
			Label:  cell(row, iLabel),
		}
		if vr.Domain == "" || vr.Code == "" {
			return nil, &LoadError{Table: t.Name, Row: i + 2, Err: errors.New("domain and code are required")}
		}
		fmt.Fprintf(h, "V\x1f%s\x1f%s\x1f%s\n", vr.Domain, vr.Code, vr.Label)
		ranges = append(ranges, vr)
	}
	return ranges, nil
}

func distinctDeductibles(records []models.TariffRecord) []models.Deductible {
	seen := make(map[models.Deductible]bool)
	var out []models.Deductible
	for _, r := range records {
		if !seen[r.Deductible] {
			seen[r.Deductible] = true
			out = append(out, r.Deductible)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Tariffs iterates the tariff table in stored order.
func (c *Catalog) Tariffs() iter.Seq[models.TariffRecord] {
	return func(yield func(models.TariffRecord) bool) {
		for _, r := range c.tariffs {
			if !yield(r) {
				return
			}
		}
	}
}

// PostalEntries iterates the postal table in stored order.
func (c *Catalog) PostalEntries() iter.Seq[models.PostalCantonEntry] {
	return func(yield func(models.PostalCantonEntry) bool) {
		for _, e := range c.postal {
			if !yield(e) {
				return
			}
		}
	}
}

// ValueRanges returns the value-range rows whose domain matches (case-insensitive);
// an empty domain returns all rows.
func (c *Catalog) ValueRanges(domain string) []models.ValueRange {
	out := make([]models.ValueRange, 0, len(c.valueRanges))
	for _, vr := range c.valueRanges {
		if domain == "" || strings.EqualFold(vr.Domain, domain) {
			out = append(out, vr)
		}
	}
	return out
}

// Label returns the value-range label for code, if any domain defines one.
func (c *Catalog) Label(code string) (string, bool) {
	for _, vr := range c.valueRanges {
		if strings.EqualFold(vr.Code, code) && vr.Label != "" {
			return vr.Label, true
		}
	}
	return "", false
}

// Deductibles returns the tiers present in the tariff table ordered by amount.
// Codes without an amount follow alphabetically.
func (c *Catalog) Deductibles() []models.Deductible {
	return append([]models.Deductible(nil), c.deductibles...)
}

// HasDeductible reports whether d occurs in the tariff table.
func (c *Catalog) HasDeductible(d models.Deductible) bool {
	for _, x := range c.deductibles {
		if x == d {
			return true
		}
	}
	return false
}

// Stats summarises the loaded tables.
type Stats struct {
	Version     string    `json:"version"`
	LoadedAt    time.Time `json:"loadedAt"`
	Tariffs     int       `json:"tariffs"`
	PostalCodes int       `json:"postalCodes"`
	ValueRanges int       `json:"valueRanges"`
	Deductibles int       `json:"deductibles"`
}

// Stats returns row counts and the content version.
func (c *Catalog) Stats() Stats {
	return Stats{
		Version:     c.version,
		LoadedAt:    c.loadedAt,
		Tariffs:     len(c.tariffs),
		PostalCodes: len(c.postal),
		ValueRanges: len(c.valueRanges),
		Deductibles: len(c.deductibles),
	}
}

// Version is a short content hash; identical tables yield the same version.
func (c *Catalog) Version() string {
	return c.version
}
