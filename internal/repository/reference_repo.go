package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/tariff_api/internal/catalog"
)

// ReferenceRepository reads the reference tables from PostgreSQL. It
// implements catalog.Source; rows are handed over untyped so the catalog
// applies the same validation as for workbook files.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a new ReferenceRepository
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

type tariffRow struct {
	Canton     string `db:"canton"`
	Deductible string `db:"deductible"`
	AgeBracket string `db:"age_bracket"`
	TariffName string `db:"tariff_name"`
	Premium    string `db:"premium"`
}

type postalRow struct {
	PostalCode string `db:"postal_code"`
	Canton     string `db:"canton"`
}

type valueRangeRow struct {
	Domain string `db:"domain"`
	Code   string `db:"code"`
	Label  string `db:"label"`
}

// GetAllTariffs returns the tariff export in insertion order
func (r *ReferenceRepository) GetAllTariffs(ctx context.Context) (catalog.Table, error) {
	query := `SELECT canton, deductible, age_bracket, tariff_name, premium::text AS premium
	          FROM tariffs ORDER BY id`

	var rows []tariffRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return catalog.Table{}, err
	}

	t := catalog.Table{
		Name:   catalog.TableTariffs,
		Header: []string{"canton", "deductible", "age_bracket", "tariff_name", "premium"},
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.Canton, row.Deductible, row.AgeBracket, row.TariffName, row.Premium})
	}
	return t, nil
}

// GetAllPostalCodes returns the postal-code-to-canton table in insertion order
func (r *ReferenceRepository) GetAllPostalCodes(ctx context.Context) (catalog.Table, error) {
	query := `SELECT postal_code, canton FROM postal_codes ORDER BY id`

	var rows []postalRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return catalog.Table{}, err
	}

	t := catalog.Table{
		Name:   catalog.TablePostal,
		Header: []string{"postal_code", "canton"},
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.PostalCode, row.Canton})
	}
	return t, nil
}

// GetAllValueRanges returns the value-range metadata
func (r *ReferenceRepository) GetAllValueRanges(ctx context.Context) (catalog.Table, error) {
	query := `SELECT domain, code, label FROM value_ranges ORDER BY id`

	var rows []valueRangeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return catalog.Table{}, err
	}

	t := catalog.Table{
		Name:   catalog.TableValueRanges,
		Header: []string{"domain", "code", "label"},
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.Domain, row.Code, row.Label})
	}
	return t, nil
}

// Load implements catalog.Source.
func (r *ReferenceRepository) Load(ctx context.Context) (*catalog.Tables, error) {
	tariffs, err := r.GetAllTariffs(ctx)
	if err != nil {
		return nil, &catalog.LoadError{Table: catalog.TableTariffs, Err: fmt.Errorf("query: %w", err)}
	}
	ranges, err := r.GetAllValueRanges(ctx)
	if err != nil {
		return nil, &catalog.LoadError{Table: catalog.TableValueRanges, Err: fmt.Errorf("query: %w", err)}
	}
	postal, err := r.GetAllPostalCodes(ctx)
	if err != nil {
		return nil, &catalog.LoadError{Table: catalog.TablePostal, Err: fmt.Errorf("query: %w", err)}
	}
	return &catalog.Tables{Tariffs: tariffs, ValueRanges: ranges, Postal: postal}, nil
}
