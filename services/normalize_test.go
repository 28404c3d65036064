package services

import (
	"math"
	"reflect"
	"testing"

	"psnhub/models"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		raw  any
		want int64
	}{
		{"41 203 240 руб.", 41203240},
		{"41203240", 41203240},
		{41203240.0, 41203240},
		{"1 500,75", 1500},
		{"12 000 000", 12000000},
		{"по запросу", 0},
		{"", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := CleanPrice(tt.raw); got != tt.want {
			t.Errorf("CleanPrice(%#v) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestCleanArea(t *testing.T) {
	tests := []struct {
		raw  any
		want float64
	}{
		{"100,3 м²", 100.3},
		{"100.30", 100.3},
		{"45.678 m2", 45.68},
		{100.3, 100.3},
		{"0", 0},
		{0.0, 0},
		{"abc", 0},
		{nil, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}

	for _, tt := range tests {
		if got := CleanArea(tt.raw); got != tt.want {
			t.Errorf("CleanArea(%#v) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCleanAreaKeepsNegativeSign(t *testing.T) {
	for _, raw := range []any{"-5", -5.0, "-5 м²"} {
		if got := CleanArea(raw); got > 0 {
			t.Errorf("CleanArea(%#v) = %v; negative areas must not become positive", raw, got)
		}
	}
}

func TestCleanFloor(t *testing.T) {
	tests := []struct {
		raw  any
		want *int
	}{
		{"1.0", intPtr(1)},
		{3.0, intPtr(3)},
		{"-1", intPtr(-1)},
		{"цоколь", nil},
		{"", nil},
		{nil, nil},
	}

	for _, tt := range tests {
		got := CleanFloor(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CleanFloor(%#v) = %v; want %v", tt.raw, derefInt(got), derefInt(tt.want))
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  any
		want models.Category
	}{
		{"Офис премиум", models.CategoryOffice},
		{"office premium", models.CategoryOffice},
		{"psn gab_ready", models.CategoryGAB},
		{"gab_franchise", models.CategoryGAB},
		{"Готовый бизнес", models.CategoryGAB},
		{"Пункт выдачи", models.CategoryPVZ},
		{"ПВЗ", models.CategoryPVZ},
		{"Премиум ритейл", models.CategoryPremium},
		{"psn", models.CategoryPSN},
		{"Коммерческое помещение", models.CategoryPSN},
		{"", models.CategoryPSN},
		{nil, models.CategoryPSN},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.raw); got != tt.want {
			t.Errorf("NormalizeCategory(%#v) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeDeal(t *testing.T) {
	tests := []struct {
		raw  any
		want models.Deal
	}{
		{"rent", models.DealRent},
		{"Аренда", models.DealRent},
		{"RENT ", models.DealRent},
		{"sale", models.DealSale},
		{"Продажа", models.DealSale},
		{nil, models.DealSale},
	}

	for _, tt := range tests {
		if got := NormalizeDeal(tt.raw); got != tt.want {
			t.Errorf("NormalizeDeal(%#v) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		raw  any
		want string
	}{
		{"moscow", models.Moscow},
		{"г. Москва", models.Moscow},
		{"МОСКВА", models.Moscow},
		{" Санкт-Петербург ", "Санкт-Петербург"},
		{"mo", "mo"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := NormalizeCity(tt.raw); got != tt.want {
			t.Errorf("NormalizeCity(%#v) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeDelivery(t *testing.T) {
	tests := []struct {
		raw  any
		want string
	}{
		{"до 28 апреля 2028", "2028-Q2"},
		{"2026.0", "2026"},
		{2026.0, "2026"},
		{"строится", "строится"},
		{"декабрь 2025", "2025-Q4"},
		{"Март 2027", "2027-Q1"},
		{"сентябрь 2029", "2029-Q3"},
		{"  сдан  ", "сдан"},
		{"1999", "1999"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := NormalizeDelivery(tt.raw); got != tt.want {
			t.Errorf("NormalizeDelivery(%#v) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSplitStations(t *testing.T) {
	tests := []struct {
		raw  any
		want []string
	}{
		{"Тверская, Пушкинская, Чеховская", []string{"Тверская", "Пушкинская"}},
		{"Сокол, МЦК Панфиловская", []string{"Сокол"}},
		{"ЦСКА", []string{"ЦСКА"}},
		{"Ал, Бутово", []string{"Бутово"}},
		{"", nil},
		{nil, nil},
	}

	for _, tt := range tests {
		if got := SplitStations(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitStations(%#v) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMergeStations(t *testing.T) {
	tests := []struct {
		name          string
		first, second any
		want          []string
	}{
		{"second column appended", "Тверская, Пушкинская", "Маяковская", []string{"Тверская", "Пушкинская", "Маяковская"}},
		{"capped at three", "Тверская, Пушкинская", "Маяковская, Белорусская", []string{"Тверская", "Пушкинская", "Маяковская"}},
		{"identical second column ignored", "Тверская", "Тверская", []string{"Тверская"}},
		{"duplicates removed", "Тверская", "Пушкинская, Тверская", []string{"Тверская", "Пушкинская"}},
		{"both empty", nil, "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeStations(tt.first, tt.second)
			if got == nil {
				t.Fatal("MergeStations must return a non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q; want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeCommission(t *testing.T) {
	tests := []struct {
		raw  any
		want float64
	}{
		{"3%", 3},
		{"3,5", 3.5},
		{"2.46 %", 2.5},
		{4.0, 4},
		{"договорная", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := NormalizeCommission(tt.raw); got != tt.want {
			t.Errorf("NormalizeCommission(%#v) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestMakeID(t *testing.T) {
	tests := []struct {
		slug, raw string
		row       int
		want      string
	}{
		{"pik", "П-12/3", 5, "pik-П-12-3"},
		{"lsr", "  №15 ", 2, "lsr-15"},
		{"a101", "", 7, "a101-7"},
		{"a101", "///", 9, "a101-9"},
		{"pik", "ЁжикABC_123", 4, "pik-ЁжикABC-123"},
		{"pik", "1234567890123456789012345678901234567890", 2, "pik-123456789012345678901234567890"},
	}

	for _, tt := range tests {
		if got := MakeID(tt.slug, tt.raw, tt.row); got != tt.want {
			t.Errorf("MakeID(%q, %q, %d) = %q; want %q", tt.slug, tt.raw, tt.row, got, tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
