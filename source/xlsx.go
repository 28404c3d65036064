package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Built-in number formats that render a calendar date.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var (
	// elapsedTimeRegexp matches elapsed-time tokens such as [h] or [mm].
	elapsedTimeRegexp = regexp.MustCompile(`(?i)\[(h+|m+|s+)\]`)
	// formatLiteralRegexp matches quoted text, escaped characters and [..]
	// sections (colors, locales) that carry no date tokens.
	formatLiteralRegexp = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)
)

func readXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %q: %w", path, err)
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		return nil, fmt.Errorf("xlsx: %q has no active sheet", path)
	}

	// Raw values keep numbers unformatted ("41203240" rather than "41 203 240").
	records, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", name, err)
	}

	s := newSheet(path, records)
	d := newDateDetector(f, name)
	for r, row := range s.Rows {
		for c, v := range row {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			// Data rows start on sheet row 2.
			if t, ok := d.cellDate(c+1, r+2, raw); ok {
				row[c] = t
			}
		}
	}
	return s, nil
}

// dateDetector turns raw serial numbers of date-formatted cells back into dates.
type dateDetector struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateDetector(f *excelize.File, sheet string) *dateDetector {
	d := &dateDetector{f: f, sheet: sheet, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateDetector) cellDate(col, row int, raw string) (any, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, false
	}
	styleID, err := d.f.GetCellStyle(d.sheet, axis)
	if err != nil || styleID == 0 || !d.isDateStyle(styleID) {
		return nil, false
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return nil, false
	}
	return t, true
}

func (d *dateDetector) isDateStyle(styleID int) bool {
	if isDate, ok := d.styles[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.f.GetStyle(styleID); err == nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = builtinDateFormats[style.NumFmt]
		}
	}
	d.styles[styleID] = isDate
	return isDate
}

// isDateFormatCode reports whether a custom number format prints a day,
// month or year. A lone "m" next to hours or seconds means minutes.
func isDateFormatCode(code string) bool {
	code = elapsedTimeRegexp.ReplaceAllString(code, "h")
	code = strings.ToLower(formatLiteralRegexp.ReplaceAllString(code, ""))
	if strings.ContainsAny(code, "dy") {
		return true
	}
	return strings.Contains(code, "m") && !strings.ContainsAny(code, "hs")
}
