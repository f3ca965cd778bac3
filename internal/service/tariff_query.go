package service

import (
	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/models"
)

// TariffQueryEngine filters the tariff table.
type TariffQueryEngine struct {
	catalog *catalog.Catalog
}

// NewTariffQueryEngine creates a TariffQueryEngine over cat.
func NewTariffQueryEngine(cat *catalog.Catalog) *TariffQueryEngine {
	return &TariffQueryEngine{catalog: cat}
}

// Query returns every record matching canton, deductible, and bracket exactly,
// in stored order. An empty result means no product is offered.
func (e *TariffQueryEngine) Query(canton models.CantonCode, deductible models.Deductible, bracket models.AgeBracket) []models.TariffRecord {
	key := models.TariffKey{Canton: canton, Deductible: deductible, AgeBracket: bracket}

	out := []models.TariffRecord{}
	for r := range e.catalog.Tariffs() {
		if r.Key() == key {
			out = append(out, r)
		}
	}
	return out
}
