package models

// CategoryCounts keeps the published category keys in a fixed order.
type CategoryCounts struct {
	PSN       int `json:"ПСН"`
	Office    int `json:"Офис"`
	RentalPSN int `json:"Аренда ПСН"`
	PVZ       int `json:"ПВЗ"`
	GAB       int `json:"ГАБ"`
	Premium   int `json:"Премиум"`
}

// Add increments the bucket for c. Unknown categories count as PSN.
func (cc *CategoryCounts) Add(c Category) {
	switch c {
	case CategoryOffice:
		cc.Office++
	case CategoryRentalPSN:
		cc.RentalPSN++
	case CategoryPVZ:
		cc.PVZ++
	case CategoryGAB:
		cc.GAB++
	case CategoryPremium:
		cc.Premium++
	default:
		cc.PSN++
	}
}

// Stats is the fleet-wide summary written after scanning every catalog.
type Stats struct {
	Version              string         `json:"version"`
	Description          string         `json:"description"`
	Generated            string         `json:"generated"`
	Total                int            `json:"total"`
	Sale                 int            `json:"sale"`
	Rent                 int            `json:"rent"`
	AddedLast7Days       int            `json:"added_last_7days"`
	LastUpdatedDeveloper string         `json:"last_updated_developer"`
	LastUpdatedFile      string         `json:"last_updated_file"`
	LastUpdatedDate      string         `json:"last_updated_date"`
	ByCategory           CategoryCounts `json:"by_category"`
	ByDeveloper          map[string]int `json:"by_developer"`
}
