package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"psnhub/models"
	"psnhub/utils"
)

const (
	maxIDLength          = 30
	maxAddressLength     = 100
	minStationNameLength = 4
	stationsPerColumn    = 2
	maxStations          = 3
	// excludedStationMarker drops Moscow Central Circle duplicates of metro stations.
	excludedStationMarker = "МЦК"
)

var (
	// numberStripRegexp removes everything except digits and decimal separators.
	numberStripRegexp = regexp.MustCompile(`[^\d.,]`)
	// idStripRegexp matches every rune that may not appear in a generated id.
	idStripRegexp = regexp.MustCompile(`[^a-zA-Z0-9А-Яа-яЁё]`)
	// yearRegexp captures a delivery year of this or the next decade.
	yearRegexp = regexp.MustCompile(`20[23]\d`)

	spaceReplacer = strings.NewReplacer(" ", "", "\u00a0", "")
	areaReplacer  = strings.NewReplacer(" ", "", "\u00a0", "", "м²", "", "м2", "", "m²", "", "m2", "")
)

// cellString renders a raw cell value the way it reads in the spreadsheet.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}

// isBlank reports whether a cell carries no usable value: absent, empty text or zero.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	}
	return false
}

// firstPresent returns primary unless it is blank, in which case fallback.
func firstPresent(primary, fallback any) any {
	if isBlank(primary) {
		return fallback
	}
	return primary
}

// CleanString trims a cell to text; absent cells become "".
func CleanString(v any) string {
	return strings.TrimSpace(cellString(v))
}

// CleanPrice extracts the integer part of a price.
// Examples:
//
//	"41 203 240 руб." → 41203240
//	"1 500,75"        → 1500
//	"по запросу"      → 0
func CleanPrice(v any) int64 {
	s := spaceReplacer.Replace(cellString(v))
	s = numberStripRegexp.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", ".")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// CleanArea parses an area in square meters rounded to 2 decimals.
// A leading minus survives so that negative areas are still rejected.
func CleanArea(v any) float64 {
	s := areaReplacer.Replace(cellString(v))
	negative := strings.HasPrefix(s, "-")
	s = numberStripRegexp.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if negative {
		f = -f
	}
	return roundTo(f, 2)
}

// CleanFloor turns "1.0" into 1. Unparseable values are absent.
func CleanFloor(v any) *int {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cellString(v)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	floor := int(math.Trunc(f))
	return &floor
}

// NormalizeCategory classifies a space type; unknown values are PSN.
func NormalizeCategory(v any) models.Category {
	return firstMatch(categoryRules, CleanString(v), models.CategoryPSN)
}

// NormalizeDeal maps anything rent-like to rent and everything else to sale.
func NormalizeDeal(v any) models.Deal {
	return firstMatch(dealRules, CleanString(v), models.DealSale)
}

// NormalizeCity collapses Moscow spellings; other cities pass through trimmed.
func NormalizeCity(v any) string {
	s := CleanString(v)
	return firstMatch(cityRules, s, s)
}

// NormalizeDelivery reduces a delivery date to "YYYY-Qn" or "YYYY".
//
//	"до 28 апреля 2028" → "2028-Q2"
//	"2026.0"            → "2026"
//	"строится"          → "строится"
func NormalizeDelivery(v any) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(cellString(v))
	year := yearRegexp.FindString(s)
	if year == "" {
		return s
	}
	if q := firstMatch(monthQuarters, s, ""); q != "" {
		return year + "-" + q
	}
	return year
}

// SplitStations splits a comma-separated station list, dropping short
// fragments and MCC stations, and keeps at most two names.
func SplitStations(v any) []string {
	s := CleanString(v)
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) < minStationNameLength || strings.Contains(p, excludedStationMarker) {
			continue
		}
		out = append(out, p)
		if len(out) == stationsPerColumn {
			break
		}
	}
	return out
}

// MergeStations combines the two station columns into at most three unique names.
func MergeStations(first, second any) []string {
	stations := SplitStations(first)
	if m2 := CleanString(second); m2 != "" && !containsString(stations, m2) {
		stations = append(stations, SplitStations(m2)...)
	}
	stations = utils.DedupBy(stations, func(s string) string { return s })
	if len(stations) > maxStations {
		stations = stations[:maxStations]
	}
	return stations
}

// NormalizeCommission parses "3%" / "3,5" into a percentage with one decimal.
func NormalizeCommission(v any) float64 {
	if v == nil {
		return 0
	}
	s := strings.NewReplacer("%", "", ",", ".").Replace(cellString(v))
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return roundTo(f, 1)
}

// MakeID builds "<slug>-<clean raw id>". Rows without an id use the sheet row number.
func MakeID(slug, rawID string, row int) string {
	src := rawID
	if src == "" {
		src = strconv.Itoa(row)
	}
	clean := strings.Trim(idStripRegexp.ReplaceAllString(src, "-"), "-")
	clean = truncateRunes(clean, maxIDLength)
	if clean == "" {
		return slug + "-" + strconv.Itoa(row)
	}
	return slug + "-" + clean
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
