package storage

import "psnhub/models"

// CatalogWriter is the interface any catalog sink must satisfy.
type CatalogWriter interface {
	Write(c *models.Catalog) error
	Close() error
}
