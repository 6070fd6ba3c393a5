package catalog

import (
	"encoding/json"
	"fmt"
)

const (
	defaultVersion  = "N/A"
	defaultCategory = "宏代码"
)

// Item is one catalog record.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Category    string `json:"category,omitempty"`
	DocPath     string `json:"docPath,omitempty"`
}

// DisplayVersion returns the version, or "N/A" when unset.
func (i Item) DisplayVersion() string {
	if i.Version == "" {
		return defaultVersion
	}
	return i.Version
}

// DisplayCategory returns the category, or "宏代码" when unset.
func (i Item) DisplayCategory() string {
	if i.Category == "" {
		return defaultCategory
	}
	return i.Category
}

// Decode parses a catalog document. The document must be a JSON array;
// "null" decodes to an empty catalog.
func Decode(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
