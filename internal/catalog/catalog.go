// Package catalog provides the static category registry the engine joins
// budgets against. The engine treats it as an injected, read-only lookup;
// unknown ids are answered with a false boolean, never an error.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"kumbara/internal/core"
)

// Catalog maps category ids to display metadata.
type Catalog struct {
	byID  map[string]core.Category
	order []string
}

// New builds a catalog from explicit entries. Later duplicates of an id win.
func New(categories []core.Category) *Catalog {
	c := &Catalog{byID: make(map[string]core.Category, len(categories))}
	for _, cat := range categories {
		if _, seen := c.byID[cat.ID]; !seen {
			c.order = append(c.order, cat.ID)
		}
		c.byID[cat.ID] = cat
	}
	return c
}

// NewFromFile loads categories.json from the data directory, falling back to
// the built-in defaults when the file is missing or unreadable.
func NewFromFile(dataDir string) *Catalog {
	path := filepath.Join(dataDir, "categories.json")
	blob, err := os.ReadFile(path)
	if err != nil {
		return New(Defaults())
	}
	cats, err := parseCategories(blob)
	if err != nil || len(cats) == 0 {
		return New(Defaults())
	}
	return New(cats)
}

// Category implements the engine's lookup port.
func (c *Catalog) Category(id string) (core.Category, bool) {
	cat, ok := c.byID[id]
	return cat, ok
}

// List returns all categories in their registration order.
func (c *Catalog) List() []core.Category {
	out := make([]core.Category, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

type categoryRecord struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Kind  string `json:"kind"`
}

func parseCategories(blob []byte) ([]core.Category, error) {
	var records []categoryRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	cats := make([]core.Category, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		kind := core.TransactionType(r.Kind)
		if !kind.IsValid() {
			kind = core.Expense
		}
		cats = append(cats, core.Category{
			ID:    r.ID,
			Label: r.Label,
			Icon:  r.Icon,
			Color: r.Color,
			Kind:  kind,
		})
	}
	return cats, nil
}

// Defaults is the built-in registry used when no categories.json is present.
func Defaults() []core.Category {
	return []core.Category{
		{ID: "market", Label: "Market", Icon: "cart", Color: "#4CAF50", Kind: core.Expense},
		{ID: "food", Label: "Yemek", Icon: "restaurant", Color: "#FF9800", Kind: core.Expense},
		{ID: "transport", Label: "Ulaşım", Icon: "bus", Color: "#2196F3", Kind: core.Expense},
		{ID: "rent", Label: "Kira", Icon: "home", Color: "#9C27B0", Kind: core.Expense},
		{ID: "bills", Label: "Faturalar", Icon: "receipt", Color: "#F44336", Kind: core.Expense},
		{ID: "health", Label: "Sağlık", Icon: "medkit", Color: "#E91E63", Kind: core.Expense},
		{ID: "clothing", Label: "Giyim", Icon: "shirt", Color: "#00BCD4", Kind: core.Expense},
		{ID: "entertainment", Label: "Eğlence", Icon: "game-controller", Color: "#673AB7", Kind: core.Expense},
		{ID: "education", Label: "Eğitim", Icon: "school", Color: "#3F51B5", Kind: core.Expense},
		{ID: "salary", Label: "Maaş", Icon: "cash", Color: "#8BC34A", Kind: core.Income},
		{ID: "extra", Label: "Ek Gelir", Icon: "trending-up", Color: "#009688", Kind: core.Income},
		{ID: "other", Label: "Diğer", Icon: "ellipsis-horizontal", Color: "#607D8B", Kind: core.Expense},
	}
}
