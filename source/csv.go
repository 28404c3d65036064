package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

func readCSV(path string) (*Sheet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	// Excel with a Russian locale saves "CSV" as Windows-1251.
	if !utf8.Valid(b) {
		if b, err = charmap.Windows1251.NewDecoder().Bytes(b); err != nil {
			return nil, fmt.Errorf("csv: decode %q: %w", path, err)
		}
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.Comma = detectDelimiter(b)

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: parse %q: %w", path, err)
		}
		records = append(records, rec)
	}
	return newSheet(path, records), nil
}

// detectDelimiter picks ';' when the header line has more semicolons than
// commas, which is what spreadsheet exports with a Russian locale produce.
func detectDelimiter(b []byte) rune {
	header := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		header = b[:i]
	}
	if bytes.Count(header, []byte{';'}) > bytes.Count(header, []byte{','}) {
		return ';'
	}
	return ','
}
