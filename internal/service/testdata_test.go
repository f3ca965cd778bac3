package service

import (
	"testing"

	"github.com/GTDGit/tariff_api/internal/catalog"
)

// newTestCatalog builds a small catalog covering Zürich, Bern, and a postal
// code shared by two cantons.
func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(&catalog.Tables{
		Tariffs: catalog.Table{
			Name:   catalog.TableTariffs,
			Header: []string{"Kanton", "Franchise", "Altersklasse", "Tarifbezeichnung", "Prämie"},
			Rows: [][]string{
				{"ZH", "FRA-1000", "AKL-ERW", "Basis", "350"},
				{"ZH", "FRA-1000", "AKL-ERW", "Telmed", "310.40"},
				{"ZH", "FRA-300", "AKL-JUG", "Basis", "280.55"},
				{"ZH", "FRA-1000", "AKL-KIN", "Basis", "95"},
				{"BE", "FRA-1000", "AKL-ERW", "Hausarzt", "365.20"},
				{"BE", "FRA-2500", "AKL-ERW", "Basis", "290"},
			},
		},
		ValueRanges: catalog.Table{
			Name:   catalog.TableValueRanges,
			Header: []string{"Wertebereich", "Code", "Bezeichnung"},
			Rows: [][]string{
				{"Franchise", "FRA-1000", "Franchise CHF 1000"},
			},
		},
		Postal: catalog.Table{
			Name:   catalog.TablePostal,
			Header: []string{"PLZ", "Kanton"},
			Rows: [][]string{
				{"8001", "Zürich"},
				{"8050", "Zürich"},
				{"8090", "Zürich"},
				{"8001", "Zürich"},
				{"3000", "Bern"},
				{"3011", "Bern"},
				{"8866", "St. Gallen"},
				{"8866", "Glarus"},
				{"9999", "Atlantis"},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New() failed: %v", err)
	}
	return cat
}
