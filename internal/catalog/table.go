package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Table is an untyped sheet as read from a source: a header row followed by
// data rows. Rows may be shorter than the header.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Tables groups the three reference tables a Catalog is built from.
type Tables struct {
	Tariffs     Table
	ValueRanges Table
	Postal      Table
}

// Source produces the raw reference tables.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
}

// Header aliases, compared after normalizeHeader.
var (
	colCanton     = []string{"kanton", "canton"}
	colDeductible = []string{"franchise", "deductible"}
	colAgeBracket = []string{"altersklasse", "age_bracket"}
	colTariffName = []string{"tarifbezeichnung", "tariff_name"}
	colPremium    = []string{"prämie", "praemie", "premium"}
	colPostalCode = []string{"plz", "postal_code"}
	colDomain     = []string{"wertebereich", "domain"}
	colCode       = []string{"code"}
	colLabel      = []string{"bezeichnung", "label"}
)

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}

// columns resolves header aliases to column indexes for one table.
type columns struct {
	table string
	index map[string]int
}

func newColumns(t Table) columns {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return columns{table: t.Name, index: idx}
}

func (c columns) find(aliases []string) (int, error) {
	for _, a := range aliases {
		if i, ok := c.index[a]; ok {
			return i, nil
		}
	}
	return 0, &LoadError{Table: c.table, Column: aliases[0], Err: fmt.Errorf("missing column (accepted headers: %s)", strings.Join(aliases, ", "))}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
