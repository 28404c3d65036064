// Package mapping holds the per-developer column mapping table. Supporting a
// new spreadsheet layout means adding one entry to Registry.
package mapping

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"psnhub/models"
)

// Field is a canonical unit field a spreadsheet column can feed.
type Field string

const (
	FieldID           Field = "id"
	FieldJK           Field = "jk"
	FieldBuilding     Field = "building"
	FieldType         Field = "type"
	FieldDealCol      Field = "deal_col"
	FieldFormat       Field = "format"
	FieldFloor        Field = "floor"
	FieldDistrict     Field = "district"
	FieldCity         Field = "city"
	FieldAddress      Field = "address"
	FieldArea         Field = "area"
	FieldPrice        Field = "price"
	FieldPriceSale    Field = "price_sale"
	FieldPriceRent    Field = "price_rent"
	FieldStatus       Field = "status"
	FieldMetro        Field = "metro"
	FieldMetro2       Field = "metro2"
	FieldMetroMin     Field = "metro_min"
	FieldCeiling      Field = "ceiling"
	FieldPower        Field = "power"
	FieldFinishing    Field = "finishing"
	FieldDelivery     Field = "delivery"
	FieldCommission   Field = "commission"
	FieldURLDeveloper Field = "url_developer"
	FieldURL3D        Field = "url_3d"
	FieldRentMonth    Field = "rent_month"
)

// DeveloperMap describes how one developer's spreadsheet maps onto a Unit.
type DeveloperMap struct {
	// Key is a lower-case substring of the source file name.
	Key       string
	Slug      string
	Developer string
	Deal      models.Deal
	Columns   map[Field]string
}

// Registry is checked in order; the first matching key wins.
var Registry = []DeveloperMap{
	{
		Key:       "пик",
		Slug:      "pik",
		Developer: "ГК ПИК",
		Deal:      models.DealSale,
		Columns: map[Field]string{
			FieldID:           "Номер_помещения",
			FieldJK:           "ЖК",
			FieldBuilding:     "Дом",
			FieldType:         "Тип_объекта",
			FieldDistrict:     "АО Москвы",
			FieldCity:         "Регион",
			FieldAddress:      "Адрес",
			FieldArea:         "Площадь_м2",
			FieldDelivery:     "Срок_сдачи",
			FieldFinishing:    "Отделка",
			FieldPrice:        "Цена_базовая_руб",
			FieldPriceSale:    "Цена_спецпредложение_руб",
			FieldURLDeveloper: "ссылка на объект",
			FieldRentMonth:    "ориентировочный доход от аренды в мес ",
			FieldCommission:   "комиссия агента",
		},
	},
	{
		Key:       "а101",
		Slug:      "a101",
		Developer: "А101",
		Deal:      models.DealAuto,
		Columns: map[Field]string{
			FieldID:           "ID (уникальный_код_объекта)",
			FieldJK:           "ЖК (название_проекта)",
			FieldBuilding:     "Корпус (номер_дома)",
			FieldType:         "Тип_объекта (psn/office)",
			FieldDealCol:      "Тип_сделки (rent/sale)",
			FieldFormat:       "Формат_объекта (standard/gab_ready/gab_franchise)",
			FieldFloor:        "Этаж (номер)",
			FieldDistrict:     "Округ_Район (админ_локация)",
			FieldCity:         "Город (moscow/mo/...)",
			FieldAddress:      "Адрес (полный_почтовый)",
			FieldArea:         "Площадь_м2 (число)",
			FieldPriceRent:    "Стоимость_в_месяц_руб (для_rent)",
			FieldPrice:        "Цена_продажи_руб (для_sale)",
			FieldStatus:       "Статус_дома (сдан/строится)",
			FieldMetro:        "Метро_1 (ближайшее)",
			FieldMetro2:       "Метро_2 (второе_метро)",
			FieldURLDeveloper: "Официальная_ссылка (URL_застройщика)",
			FieldURL3D:        "3D  тур по ЖК ",
		},
	},
	{
		Key:       "лср",
		Slug:      "lsr",
		Developer: "ГК ЛСР",
		Deal:      models.DealSale,
		Columns: map[Field]string{
			FieldID:           "Номер_помещения",
			FieldJK:           "Жилой_комплекс",
			FieldBuilding:     "Корпус",
			FieldType:         "Тип_объекта",
			FieldFloor:        "Этаж",
			FieldDistrict:     "Район",
			FieldCity:         "Город",
			FieldAddress:      "Адрес",
			FieldMetro:        "Метро",
			FieldMetroMin:     "Минут_до_метро",
			FieldArea:         "Площадь_м2",
			FieldCeiling:      "Высота_потолков",
			FieldPower:        "Мощность_кВт",
			FieldFinishing:    "Отделка",
			FieldDelivery:     "Срок_сдачи_Готовность",
			FieldPrice:        "Цена_руб",
			FieldPriceSale:    "спецпредложение",
			FieldCommission:   "Комиссия_%",
			FieldURLDeveloper: "Источник_URL",
			FieldURL3D:        "пешеходный тур 360 градусов ",
		},
	},
}

// Validate checks a registry for configuration mistakes.
func Validate(registry []DeveloperMap) error {
	keys := make(map[string]struct{}, len(registry))
	slugs := make(map[string]struct{}, len(registry))

	for i, m := range registry {
		if m.Key == "" {
			return fmt.Errorf("mapping %d: empty key", i)
		}
		if m.Key != strings.ToLower(m.Key) {
			return fmt.Errorf("mapping %q: key must be lower-case", m.Key)
		}
		if _, dup := keys[m.Key]; dup {
			return fmt.Errorf("mapping %q: duplicate key", m.Key)
		}
		keys[m.Key] = struct{}{}

		if m.Slug == "" {
			return fmt.Errorf("mapping %q: empty slug", m.Key)
		}
		if _, dup := slugs[m.Slug]; dup {
			return fmt.Errorf("mapping %q: duplicate slug %q", m.Key, m.Slug)
		}
		slugs[m.Slug] = struct{}{}

		switch m.Deal {
		case models.DealSale, models.DealRent:
		case models.DealAuto:
			if m.Columns[FieldDealCol] == "" {
				return fmt.Errorf("mapping %q: auto deal requires a %s column", m.Key, FieldDealCol)
			}
		default:
			return fmt.Errorf("mapping %q: unknown deal %q", m.Key, m.Deal)
		}

		if m.Columns[FieldArea] == "" {
			return fmt.Errorf("mapping %q: %s column is required", m.Key, FieldArea)
		}
	}
	return nil
}

// Find returns the first mapping whose key occurs in the file name.
func Find(registry []DeveloperMap, filename string) (DeveloperMap, bool) {
	name := strings.ToLower(norm.NFC.String(filename))
	for _, m := range registry {
		if strings.Contains(name, m.Key) {
			return m, true
		}
	}
	return DeveloperMap{}, false
}
