package models

// Deal is the sale or rent classification of a listing.
type Deal string

const (
	DealSale Deal = "sale"
	DealRent Deal = "rent"
	// DealAuto marks a developer whose rows carry their own deal column.
	DealAuto Deal = "auto"
)

// Category is the normalized space type. Values are the ones published on the site.
type Category string

const (
	CategoryPSN       Category = "ПСН"
	CategoryOffice    Category = "Офис"
	CategoryGAB       Category = "ГАБ"
	CategoryPVZ       Category = "ПВЗ"
	CategoryPremium   Category = "Премиум"
	CategoryRentalPSN Category = "Аренда ПСН"
)

// Moscow is the canonical city spelling every Moscow variant collapses to.
const Moscow = "Москва"

// Unit is one normalized listing as stored in a developer catalog.
type Unit struct {
	ID           string   `json:"id"`
	JK           string   `json:"jk"`
	Developer    string   `json:"developer"`
	Type         Category `json:"type"`
	Deal         Deal     `json:"deal"`
	Price        int64    `json:"price"`
	Area         float64  `json:"area"`
	Floor        *int     `json:"floor"`
	Finishing    string   `json:"finishing"`
	Delivery     string   `json:"delivery"`
	District     string   `json:"district"`
	City         string   `json:"city"`
	Metro        []string `json:"metro"`
	Address      string   `json:"address"`
	URLDeveloper string   `json:"url_developer"`
	Has3D        bool     `json:"has_3d"`
	URL3D        string   `json:"url_3d"`
	Commission   float64  `json:"commission"`
	Comment      string   `json:"comment"`
}

// Catalog is one developer's units for one deal kind.
type Catalog struct {
	Developer string  `json:"developer"`
	Slug      string  `json:"slug"`
	Updated   string  `json:"updated"`
	Deal      Deal    `json:"deal"`
	Units     []*Unit `json:"units"`
}
