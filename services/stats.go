package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"psnhub/metrics"
	"psnhub/models"
	"psnhub/storage"
	"psnhub/utils"
)

const (
	statsVersion     = "1.0"
	statsDescription = "Автогенерируется командой psnhub stats. Не редактировать вручную."
	templateMarker   = "_template"
	recentWindow     = 7 * 24 * time.Hour
)

// StatsService aggregates every developer catalog into one summary.
type StatsService struct {
	logger  *utils.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewStatsService creates a StatsService with the given logger.
func NewStatsService(logger *utils.Logger) *StatsService {
	return &StatsService{logger: logger, now: time.Now}
}

// SetMetrics attaches run counters.
func (s *StatsService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

type catalogFile struct {
	path      string
	developer string
	deal      string
	modTime   time.Time
	kept      int
}

type scannedUnit struct {
	file int
	unit storage.StoredUnit
}

// Run generates the summary for root and writes it to statsFile.
func (s *StatsService) Run(root, statsFile string) (*models.Stats, error) {
	stats := s.Generate(root)
	if err := storage.WriteJSON(statsFile, stats); err != nil {
		return stats, err
	}

	s.metrics.SetStatsUnits("total", stats.Total)
	s.metrics.SetStatsUnits("sale", stats.Sale)
	s.metrics.SetStatsUnits("rent", stats.Rent)
	s.metrics.SetStatsUnits("added_last_7days", stats.AddedLast7Days)
	s.logger.Info("[stats] Written %s", statsFile)
	return stats, nil
}

// Generate scans every catalog under root. Files are processed in path order
// and a unit id counts only the first time it is seen across all files.
func (s *StatsService) Generate(root string) *models.Stats {
	now := s.now()
	stats := &models.Stats{
		Version:     statsVersion,
		Description: statsDescription,
		Generated:   now.UTC().Format("2006-01-02T15:04:05"),
		ByDeveloper: make(map[string]int),
	}

	paths := s.listCatalogs(root)
	if len(paths) == 0 {
		s.logger.Warn("[stats] No catalog files found in %s", root)
	}

	var (
		files []*catalogFile
		units []scannedUnit
	)
	for _, path := range paths {
		c, err := storage.LoadStoredCatalog(path)
		if errors.Is(err, storage.ErrEmptyDocument) {
			s.logger.Debug("[stats] Skipping empty document %s", path)
			continue
		}
		if err != nil {
			s.logger.Warn("[stats] Cannot read %s: %v", path, err)
			s.metrics.IncFile("stats", "unreadable")
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn("[stats] Cannot stat %s: %v", path, err)
			s.metrics.IncFile("stats", "unreadable")
			continue
		}

		f := &catalogFile{
			path:      path,
			developer: filepath.Base(filepath.Dir(path)),
			deal:      string(models.DealSale),
			modTime:   info.ModTime(),
		}
		if c.Developer != nil {
			f.developer = *c.Developer
		}
		if c.Deal != nil {
			f.deal = *c.Deal
		}
		for _, u := range c.Units {
			units = append(units, scannedUnit{file: len(files), unit: u})
		}
		files = append(files, f)
		s.metrics.IncFile("stats", "ok")
	}

	for _, f := range files {
		if _, ok := stats.ByDeveloper[f.developer]; !ok {
			stats.ByDeveloper[f.developer] = 0
		}
	}

	unique := utils.DedupBy(units, func(su scannedUnit) string { return string(su.unit.ID) })
	for _, su := range unique {
		if su.unit.Area <= 0 {
			continue
		}
		f := files[su.file]
		f.kept++
		stats.Total++
		stats.ByDeveloper[f.developer]++

		deal := f.deal
		if su.unit.Deal != nil {
			deal = *su.unit.Deal
		}
		isRent := deal == string(models.DealRent)
		if isRent {
			stats.Rent++
		} else {
			stats.Sale++
		}

		stats.ByCategory.Add(statsCategory(su.unit.Type, isRent))
	}

	var latest *catalogFile
	cutoff := now.Add(-recentWindow)
	for _, f := range files {
		if latest == nil || f.modTime.After(latest.modTime) {
			latest = f
		}
		if f.modTime.After(cutoff) {
			stats.AddedLast7Days += f.kept
		}
		s.logger.Info("[stats] %s: %d units (%s)", filepath.Base(f.path), f.kept, f.developer)
	}
	if latest != nil {
		stats.LastUpdatedFile = filepath.Base(latest.path)
		stats.LastUpdatedDeveloper = latest.developer
		stats.LastUpdatedDate = latest.modTime.In(now.Location()).Format("2006-01-02")
	}

	return stats
}

// statsCategory applies the shared category chain, then the rent carve-outs:
// rented PSN has its own bucket and rented PVZ stays PVZ.
func statsCategory(raw *string, isRent bool) models.Category {
	value := string(models.CategoryPSN)
	if raw != nil {
		value = *raw
	}
	category := NormalizeCategory(value)
	switch {
	case isRent && category == models.CategoryPSN:
		return models.CategoryRentalPSN
	case isRent && category == models.CategoryPVZ:
		return models.CategoryPVZ
	default:
		return category
	}
}

// listCatalogs returns every *.json under root except template files, sorted.
func (s *StatsService) listCatalogs(root string) []string {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipDir
			}
			s.logger.Warn("[stats] Cannot walk %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		if rel, err := filepath.Rel(root, path); err == nil && strings.Contains(rel, templateMarker) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		s.logger.Warn("[stats] Cannot walk %s: %v", root, err)
	}
	sort.Strings(paths)
	return paths
}

// Print renders the summary to stdout.
func (s *StatsService) Print(st *models.Stats) {
	thin := strings.Repeat("─", 54)

	printBanner("PSNHUB: catalog statistics")

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total units      : \033[1m%d\033[0m\n", st.Total)
	fmt.Printf("  Sale / rent      : \033[1m%d\033[0m / \033[1m%d\033[0m\n", st.Sale, st.Rent)
	fmt.Printf("  Last 7 days      : \033[1;32m+%d\033[0m\n", st.AddedLast7Days)
	if st.LastUpdatedDeveloper != "" {
		fmt.Printf("  Last update      : %s (%s, %s)\n", st.LastUpdatedDeveloper, st.LastUpdatedFile, st.LastUpdatedDate)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  By category\033[0m\n")
	fmt.Printf("  %s\n", thin)
	c := st.ByCategory
	for _, row := range []struct {
		name  models.Category
		count int
	}{
		{models.CategoryPSN, c.PSN},
		{models.CategoryOffice, c.Office},
		{models.CategoryRentalPSN, c.RentalPSN},
		{models.CategoryPVZ, c.PVZ},
		{models.CategoryGAB, c.GAB},
		{models.CategoryPremium, c.Premium},
	} {
		fmt.Printf("  %-14s %6d\n", row.name, row.count)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  By developer\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(st.ByDeveloper) == 0 {
		fmt.Printf("  No developer data\n")
	} else {
		type devCount struct {
			name  string
			count int
		}
		var devs []devCount
		for name, n := range st.ByDeveloper {
			devs = append(devs, devCount{name, n})
		}
		sort.Slice(devs, func(i, j int) bool {
			if devs[i].count != devs[j].count {
				return devs[i].count > devs[j].count
			}
			return devs[i].name < devs[j].name
		})
		for _, d := range devs {
			fmt.Printf("  %-30s %d\n", truncate(d.name, 28), d.count)
		}
	}

	printFooter()
}
