package services

import (
	"strings"

	"psnhub/models"
)

// keywordRule maps any of its keywords, found as a substring of the
// lower-cased input, to a result.
type keywordRule[T any] struct {
	keywords []string
	result   T
}

func (r keywordRule[T]) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// firstMatch evaluates rules in order and returns the first hit.
func firstMatch[T any](rules []keywordRule[T], s string, fallback T) T {
	lower := strings.ToLower(s)
	for _, r := range rules {
		if r.matches(lower) {
			return r.result
		}
	}
	return fallback
}

// Order matters: "офис" beats "премиум", and franchise/ready formats are GAB
// before the pickup-point and premium checks run.
var categoryRules = []keywordRule[models.Category]{
	{keywords: []string{"офис", "office"}, result: models.CategoryOffice},
	{keywords: []string{"габ", "gab", "ready", "готов", "франш", "franchise"}, result: models.CategoryGAB},
	{keywords: []string{"пвз", "pvz", "пункт"}, result: models.CategoryPVZ},
	{keywords: []string{"премиум", "premium", "элит"}, result: models.CategoryPremium},
}

var dealRules = []keywordRule[models.Deal]{
	{keywords: []string{"аренд", "rent"}, result: models.DealRent},
}

var cityRules = []keywordRule[string]{
	{keywords: []string{"москва", "moscow"}, result: models.Moscow},
}

// Month stems in calendar order, mapped to quarters.
var monthQuarters = []keywordRule[string]{
	{keywords: []string{"январ", "феврал", "март"}, result: "Q1"},
	{keywords: []string{"апрел", "май", "мая", "июн"}, result: "Q2"},
	{keywords: []string{"июл", "август", "сентябр"}, result: "Q3"},
	{keywords: []string{"октябр", "ноябр", "декабр"}, result: "Q4"},
}
