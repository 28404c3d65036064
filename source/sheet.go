// Package source reads developer spreadsheets into a header row plus data rows.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles.
var ErrUnsupportedFormat = errors.New("source: unsupported file format")

// Sheet is the first (active) table of a spreadsheet. Cells are nil when empty.
type Sheet struct {
	Path    string
	Headers []string
	Rows    [][]any
}

// Cell returns the value at the given data row and column, or nil when the
// column is out of range for that row.
func (s *Sheet) Cell(row, col int) any {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return nil
	}
	return s.Rows[row][col]
}

// SheetRow converts a data row index into the 1-based spreadsheet row number.
func SheetRow(row int) int {
	return row + 2
}

// Supported reports whether path has an extension Open can read.
// Office lock files ("~$name.xlsx") are never supported.
func Supported(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// Open reads the spreadsheet at path, choosing the reader by extension.
func Open(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

func newSheet(path string, records [][]string) *Sheet {
	s := &Sheet{Path: path}
	if len(records) == 0 {
		return s
	}

	s.Headers = make([]string, len(records[0]))
	for i, h := range records[0] {
		s.Headers[i] = strings.TrimSpace(h)
	}

	s.Rows = make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, v := range rec {
			if v != "" {
				row[i] = v
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
