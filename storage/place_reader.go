package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"naver-map-bookmarker/models"
)

// LoadOptions selects the sheet and the two required columns.
type LoadOptions struct {
	Sheet         string // empty means the first sheet; ignored for CSV
	NameColumn    string
	AddressColumn string
}

// Table is the parsed input: its header and one RawPlace per data row.
type Table struct {
	Columns []string
	Places  []*models.RawPlace
}

// LoadPlaces reads an .xlsx or .csv file and returns its rows in file order.
// A file that cannot be read yields *InputReadError; a header without the
// required columns yields *SchemaError. No rows are returned in either case.
func LoadPlaces(path string, opts LoadOptions) (*Table, error) {
	rows, err := readRows(path, opts.Sheet)
	if err != nil {
		return nil, &InputReadError{Path: path, Err: err}
	}

	var header []string
	if len(rows) > 0 {
		header = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		}
	}

	nameIdx := indexOf(header, opts.NameColumn)
	addrIdx := indexOf(header, opts.AddressColumn)

	var missing []string
	if nameIdx < 0 {
		missing = append(missing, opts.NameColumn)
	}
	if addrIdx < 0 {
		missing = append(missing, opts.AddressColumn)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Present: nonEmpty(header)}
	}

	table := &Table{Columns: header, Places: make([]*models.RawPlace, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		table.Places = append(table.Places, &models.RawPlace{
			Row:     i + 2,
			Name:    cell(row, nameIdx),
			Address: cell(row, addrIdx),
		})
	}
	return table, nil
}

func readRows(path, sheet string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	default:
		return readExcel(path, sheet)
	}
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, errors.New("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (sheets: %s)",
			sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func indexOf(header []string, name string) int {
	want := strings.TrimSpace(name)
	for i, h := range header {
		if h == want {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func nonEmpty(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
