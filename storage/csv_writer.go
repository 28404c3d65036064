package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"psnhub/models"
)

var csvHeader = []string{
	"id", "jk", "developer", "type", "deal", "price", "area", "floor", "finishing",
	"delivery", "district", "city", "metro", "address", "url_developer", "has_3d",
	"url_3d", "commission", "comment",
}

// CSVWriter exports each catalog as a flat CSV next to its JSON file, for
// people who review the data in a spreadsheet.
type CSVWriter struct {
	root string
}

// NewCSVWriter returns a writer rooted at the developers directory.
func NewCSVWriter(root string) *CSVWriter {
	return &CSVWriter{root: root}
}

// Path returns where the CSV export for slug and deal lives.
func (w *CSVWriter) Path(slug string, deal models.Deal) string {
	return filepath.Join(w.root, slug, fmt.Sprintf("%s_%s.csv", slug, deal))
}

// Write creates (or truncates) the export file and writes every unit.
func (w *CSVWriter) Write(c *models.Catalog) error {
	path := w.Path(c.Slug, c.Deal)
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("csv: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	// BOM so that Excel detects UTF-8.
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("csv: write bom: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, u := range c.Units {
		floor := ""
		if u.Floor != nil {
			floor = strconv.Itoa(*u.Floor)
		}
		row := []string{
			u.ID,
			u.JK,
			u.Developer,
			string(u.Type),
			string(u.Deal),
			strconv.FormatInt(u.Price, 10),
			strconv.FormatFloat(u.Area, 'f', -1, 64),
			floor,
			u.Finishing,
			u.Delivery,
			u.District,
			u.City,
			strings.Join(u.Metro, ", "),
			u.Address,
			u.URLDeveloper,
			strconv.FormatBool(u.Has3D),
			u.URL3D,
			strconv.FormatFloat(u.Commission, 'f', -1, 64),
			u.Comment,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// Close is a no-op; each Write owns its file.
func (w *CSVWriter) Close() error {
	return nil
}
