package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyDocument is returned for a catalog file with no keys at all.
var ErrEmptyDocument = errors.New("json: empty document")

// StoredCatalog is the lenient view of a catalog file the stats scan needs.
// Catalogs may be hand-edited, so absent keys stay nil instead of failing.
type StoredCatalog struct {
	Developer *string      `json:"developer"`
	Deal      *string      `json:"deal"`
	Units     []StoredUnit `json:"units"`
}

// StoredUnit holds the unit fields the stats scan reads.
type StoredUnit struct {
	ID   FlexString `json:"id"`
	Area FlexFloat  `json:"area"`
	Type *string    `json:"type"`
	Deal *string    `json:"deal"`
}

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	*f = FlexString(s)
	return nil
}

// FlexFloat accepts a JSON number or a numeric string; anything else is 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s = strings.TrimSpace(v)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(n)
	return nil
}

// LoadStoredCatalog decodes a catalog leniently.
func LoadStoredCatalog(path string) (*StoredCatalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("json: read %q: %w", path, err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("json: decode %q: %w", path, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyDocument, path)
	}

	var c StoredCatalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("json: decode %q: %w", path, err)
	}
	return &c, nil
}
