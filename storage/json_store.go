package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"psnhub/models"
)

// CatalogStore reads and writes catalog JSON under <root>/<slug>/<slug>_<deal>.json.
type CatalogStore struct {
	root string
}

// NewCatalogStore returns a store rooted at the developers directory.
func NewCatalogStore(root string) *CatalogStore {
	return &CatalogStore{root: root}
}

// Root returns the developers directory.
func (s *CatalogStore) Root() string {
	return s.root
}

// Path returns where the catalog for slug and deal lives.
func (s *CatalogStore) Path(slug string, deal models.Deal) string {
	return filepath.Join(s.root, slug, fmt.Sprintf("%s_%s.json", slug, deal))
}

// Write replaces the catalog file wholesale.
func (s *CatalogStore) Write(c *models.Catalog) error {
	return WriteJSON(s.Path(c.Slug, c.Deal), c)
}

// Close is a no-op; every Write is complete on return.
func (s *CatalogStore) Close() error {
	return nil
}

// ReadCatalog decodes a catalog file written by Write.
func ReadCatalog(path string) (*models.Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("json: read %q: %w", path, err)
	}
	var c models.Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("json: decode %q: %w", path, err)
	}
	return &c, nil
}

// WriteJSON writes v as two-space indented UTF-8 JSON, creating parent
// directories as needed. Non-ASCII text and HTML characters are not escaped.
func WriteJSON(path string, v any) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json: encode %q: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("json: write %q: %w", path, err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
