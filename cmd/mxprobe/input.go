package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"
)

var errNoColumn = errors.New("address column not found")

// readAddresses loads the named column from a .csv or .xlsx file. The
// first row is the header; the column name matches case-insensitively.
func readAddresses(path, column string) ([]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	case ".csv", ".txt":
		rows, err = readCSVFile(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return extractColumn(rows, column)
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// readXLSX reads the first sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		record := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			record = append(record, cell.String())
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func extractColumn(rows [][]string, column string) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (file is empty)", errNoColumn, column)
	}
	idx := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", errNoColumn, column)
	}

	var out []string
	for _, row := range rows[1:] {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// dedupe drops repeated addresses, keeping the first occurrence. Addresses
// differing only in domain case count as the same.
func dedupe(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		key := a
		if at := strings.LastIndex(a, "@"); at >= 0 {
			key = a[:at] + strings.ToLower(a[at:])
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
