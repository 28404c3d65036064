package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"psnhub/mapping"
	"psnhub/metrics"
	"psnhub/models"
	"psnhub/source"
	"psnhub/storage"
	"psnhub/utils"
)

var (
	// ErrUnmappedFile means no registry entry matches the file name.
	ErrUnmappedFile = errors.New("no developer mapping for file")
	// ErrEmptyOutput means a spreadsheet yielded no usable rows.
	ErrEmptyOutput = errors.New("no units found in file")
)

// FileResult describes one converted spreadsheet.
type FileResult struct {
	Path    string
	Slug    string
	Units   []*models.Unit
	Skipped int
	Missing []mapping.Field
	Written []string
}

// RunSummary totals one convert run.
type RunSummary struct {
	Files     int
	Succeeded int
	Failed    int
	Units     int
	Skipped   int
	Written   []string
}

// Converter turns developer spreadsheets into catalog files.
type Converter struct {
	logger   *utils.Logger
	registry []mapping.DeveloperMap
	catalogs *storage.CatalogStore
	sinks    []storage.CatalogWriter
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewConverter creates a Converter that writes catalogs into store.
func NewConverter(logger *utils.Logger, registry []mapping.DeveloperMap, store *storage.CatalogStore) *Converter {
	return &Converter{
		logger:   logger,
		registry: registry,
		catalogs: store,
		now:      time.Now,
	}
}

// AddSink registers an extra destination that receives every written catalog.
func (c *Converter) AddSink(w storage.CatalogWriter) {
	c.sinks = append(c.sinks, w)
}

// SetMetrics attaches run counters.
func (c *Converter) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// Run converts every supported spreadsheet in sourceDir in name order. Per-file
// failures are logged and counted; they never stop the run.
func (c *Converter) Run(sourceDir string) *RunSummary {
	summary := &RunSummary{}

	entries, err := os.ReadDir(sourceDir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(sourceDir, 0o755); err != nil {
			c.logger.Error("[convert] Cannot create source dir %s: %v", sourceDir, err)
			return summary
		}
		c.logger.Info("[convert] Created %s, put spreadsheets there and run again", sourceDir)
		return summary
	}
	if err != nil {
		c.logger.Error("[convert] Cannot list %s: %v", sourceDir, err)
		return summary
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !source.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(sourceDir, e.Name()))
	}
	if len(files) == 0 {
		c.logger.Warn("[convert] No .xlsx or .csv files found in %s", sourceDir)
		return summary
	}

	c.logger.Info("[convert] Found %d files", len(files))
	for _, path := range files {
		summary.Files++
		res, err := c.ConvertPath(path)
		if res != nil {
			summary.Skipped += res.Skipped
		}
		if err != nil {
			summary.Failed++
			c.metrics.IncFile("convert", outcomeLabel(err))
			if errors.Is(err, ErrEmptyOutput) {
				c.logger.Warn("[convert] %v", err)
			} else {
				c.logger.Error("[convert] %v", err)
			}
			continue
		}

		summary.Succeeded++
		summary.Units += len(res.Units)
		summary.Written = append(summary.Written, res.Written...)
		c.metrics.IncFile("convert", "ok")
	}
	return summary
}

// ConvertPath picks the mapping for path, converts it and writes its catalogs.
// The returned result is non-nil whenever the file was read.
func (c *Converter) ConvertPath(path string) (*FileResult, error) {
	name := filepath.Base(path)
	c.logger.Info("[convert] Processing %s", name)

	dm, ok := mapping.Find(c.registry, name)
	if !ok {
		return nil, fmt.Errorf("%s: %w; add the developer to mapping.Registry", name, ErrUnmappedFile)
	}

	res, err := c.ConvertFile(path, dm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(res.Units) == 0 {
		return res, fmt.Errorf("%s: %w, check the file", name, ErrEmptyOutput)
	}

	written, err := c.writeCatalogs(res.Units, dm)
	res.Written = written
	if err != nil {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// ConvertFile reads one spreadsheet and normalizes its rows with dm.
func (c *Converter) ConvertFile(path string, dm mapping.DeveloperMap) (*FileResult, error) {
	sheet, err := source.Open(path)
	if err != nil {
		return nil, err
	}

	index, missing := mapping.Resolve(sheet.Headers, dm.Columns)
	for _, field := range missing {
		c.logger.Warn("[convert] Column not found: %q (field %s), will be empty", dm.Columns[field], field)
	}

	res := &FileResult{Path: path, Slug: dm.Slug, Missing: missing}
	seen := utils.NewKeySet()

	for r := range sheet.Rows {
		cell := func(f mapping.Field) any {
			i, ok := index[f]
			if !ok {
				return nil
			}
			return sheet.Cell(r, i)
		}
		rowNum := source.SheetRow(r)

		area := CleanArea(cell(mapping.FieldArea))
		if area <= 0 {
			res.Skipped++
			c.metrics.IncRow("skipped")
			continue
		}

		uid := MakeID(dm.Slug, CleanString(cell(mapping.FieldID)), rowNum)
		if !seen.Add(uid) {
			c.logger.Debug("[convert] Duplicate id %s at row %d", uid, rowNum)
			uid = uniqueID(seen, fmt.Sprintf("%s-%d", uid, rowNum))
		}

		deal := dm.Deal
		if deal == models.DealAuto {
			deal = NormalizeDeal(cell(mapping.FieldDealCol))
		}

		var price int64
		if deal == models.DealRent {
			price = CleanPrice(firstPresent(cell(mapping.FieldPriceRent), cell(mapping.FieldPrice)))
		} else {
			price = CleanPrice(firstPresent(cell(mapping.FieldPriceSale), cell(mapping.FieldPrice)))
		}

		url3D := CleanString(cell(mapping.FieldURL3D))
		has3D := strings.HasPrefix(url3D, "http")
		if !has3D {
			url3D = ""
		}

		res.Units = append(res.Units, &models.Unit{
			ID:           uid,
			JK:           CleanString(cell(mapping.FieldJK)),
			Developer:    dm.Developer,
			Type:         NormalizeCategory(joinCells(cell(mapping.FieldType), cell(mapping.FieldFormat))),
			Deal:         deal,
			Price:        price,
			Area:         area,
			Floor:        CleanFloor(cell(mapping.FieldFloor)),
			Finishing:    CleanString(cell(mapping.FieldFinishing)),
			Delivery:     NormalizeDelivery(cell(mapping.FieldDelivery)),
			District:     CleanString(cell(mapping.FieldDistrict)),
			City:         NormalizeCity(cell(mapping.FieldCity)),
			Metro:        MergeStations(cell(mapping.FieldMetro), cell(mapping.FieldMetro2)),
			Address:      truncateRunes(CleanString(cell(mapping.FieldAddress)), maxAddressLength),
			URLDeveloper: CleanString(cell(mapping.FieldURLDeveloper)),
			Has3D:        has3D,
			URL3D:        url3D,
			Commission:   NormalizeCommission(cell(mapping.FieldCommission)),
		})
		c.metrics.IncRow("converted")
	}

	c.logger.Info("[convert] Converted %d units (skipped empty: %d)", len(res.Units), res.Skipped)
	return res, nil
}

// writeCatalogs splits units by deal and writes one catalog per non-empty part.
func (c *Converter) writeCatalogs(units []*models.Unit, dm mapping.DeveloperMap) ([]string, error) {
	var sale, rent []*models.Unit
	for _, u := range units {
		switch u.Deal {
		case models.DealSale:
			sale = append(sale, u)
		case models.DealRent:
			rent = append(rent, u)
		}
	}

	parts := []struct {
		deal  models.Deal
		units []*models.Unit
	}{
		{models.DealSale, sale},
		{models.DealRent, rent},
	}
	if len(sale) == 0 && len(rent) == 0 {
		parts = parts[:1]
		parts[0].deal, parts[0].units = dm.Deal, units
	}

	var written []string
	for _, p := range parts {
		if len(p.units) == 0 {
			continue
		}
		catalog := c.newCatalog(dm, p.deal, p.units)
		if err := c.catalogs.Write(catalog); err != nil {
			return written, err
		}
		path := c.catalogs.Path(catalog.Slug, catalog.Deal)
		written = append(written, path)
		c.metrics.AddUnitsWritten(catalog.Slug, string(catalog.Deal), len(catalog.Units))
		c.logger.Info("[convert] Saved %s", path)

		for _, sink := range c.sinks {
			if err := sink.Write(catalog); err != nil {
				c.logger.Warn("[convert] Extra sink failed for %s/%s: %v", catalog.Slug, catalog.Deal, err)
			}
		}
	}
	return written, nil
}

func (c *Converter) newCatalog(dm mapping.DeveloperMap, deal models.Deal, units []*models.Unit) *models.Catalog {
	developer := dm.Slug
	if len(units) > 0 {
		developer = units[0].Developer
	}
	return &models.Catalog{
		Developer: developer,
		Slug:      dm.Slug,
		Updated:   c.now().Format("2006-01-02"),
		Deal:      deal,
		Units:     units,
	}
}

// Print renders the run summary to stdout.
func (c *Converter) Print(s *RunSummary) {
	printBanner("PSNHUB: spreadsheets to JSON")
	fmt.Printf("  Files found    : \033[1m%d\033[0m\n", s.Files)
	fmt.Printf("  Converted      : \033[1;32m%d\033[0m\n", s.Succeeded)
	fmt.Printf("  Failed         : \033[1;31m%d\033[0m\n", s.Failed)
	fmt.Printf("  Units written  : \033[1m%d\033[0m (rows skipped: %d)\n", s.Units, s.Skipped)
	for _, p := range s.Written {
		fmt.Printf("    %s\n", p)
	}
	printFooter()
}

// joinCells concatenates non-empty cells so one rule chain sees both the
// object type and the object format columns.
func joinCells(cells ...any) string {
	parts := make([]string, 0, len(cells))
	for _, v := range cells {
		if s := CleanString(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// uniqueID claims base in seen, or base with the first free "-<n>" counter.
func uniqueID(seen *utils.KeySet, base string) string {
	id := base
	for n := 2; !seen.Add(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnmappedFile):
		return "unmapped"
	case errors.Is(err, ErrEmptyOutput):
		return "empty"
	case errors.Is(err, source.ErrUnsupportedFormat):
		return "unsupported"
	default:
		return "error"
	}
}
