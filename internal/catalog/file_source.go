package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Table names used in load errors and logs.
const (
	TableTariffs     = "tariffs"
	TableValueRanges = "value_ranges"
	TablePostal      = "postal_codes"
)

// FileSpec points at one table: a workbook path (or object key) and, for
// .xlsx files, the sheet to read. An empty sheet means the first sheet.
type FileSpec struct {
	Path  string
	Sheet string
}

// FileSource reads the reference tables from local .xlsx or .csv files.
type FileSource struct {
	Tariffs     FileSpec
	ValueRanges FileSpec
	Postal      FileSpec
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (*Tables, error) {
	return loadAll(ctx, func(_ context.Context, spec FileSpec) (io.ReadCloser, error) {
		return os.Open(spec.Path)
	}, s.Tariffs, s.ValueRanges, s.Postal)
}

type openFunc func(ctx context.Context, spec FileSpec) (io.ReadCloser, error)

func loadAll(ctx context.Context, open openFunc, tariffs, ranges, postal FileSpec) (*Tables, error) {
	out := &Tables{}
	specs := []struct {
		name string
		spec FileSpec
		dst  *Table
	}{
		{TableTariffs, tariffs, &out.Tariffs},
		{TableValueRanges, ranges, &out.ValueRanges},
		{TablePostal, postal, &out.Postal},
	}

	for _, s := range specs {
		if err := ctx.Err(); err != nil {
			return nil, &LoadError{Table: s.name, Err: err}
		}
		t, err := readSpec(ctx, open, s.name, s.spec)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("table", s.name).Str("path", s.spec.Path).Int("rows", len(t.Rows)).Msg("reference table read")
		*s.dst = t
	}
	return out, nil
}

func readSpec(ctx context.Context, open openFunc, name string, spec FileSpec) (Table, error) {
	rc, err := open(ctx, spec)
	if err != nil {
		return Table{}, &LoadError{Table: name, Err: fmt.Errorf("open %s: %w", spec.Path, err)}
	}
	defer rc.Close()

	var t Table
	switch ext := strings.ToLower(filepath.Ext(spec.Path)); ext {
	case ".xlsx", ".xlsm":
		t, err = ReadWorkbook(rc, name, spec.Sheet)
	case ".csv":
		t, err = ReadCSV(rc, name)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return Table{}, &LoadError{Table: name, Err: fmt.Errorf("read %s: %w", spec.Path, err)}
	}
	return t, nil
}

// ReadWorkbook reads one sheet of an Excel workbook into a Table.
func ReadWorkbook(r io.Reader, name, sheet string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	// Raw values: a formatted premium like "1,234.50" would not parse.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return fromRows(name, rows)
}

// ReadCSV reads a comma or semicolon separated file into a Table. The
// delimiter is taken from the header line.
func ReadCSV(r io.Reader, name string) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	headerLine, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(headerLine, []byte(";")) > bytes.Count(headerLine, []byte(",")) {
		cr.Comma = ';'
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, err
	}
	return fromRows(name, rows)
}

func fromRows(name string, rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("no header row")
	}
	return Table{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}
