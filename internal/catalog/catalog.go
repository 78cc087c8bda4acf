// Package catalog holds the static product catalog: the mapping from item
// name to category and unit price. The table is fixed at compile time and
// never mutated; all lookups are case-insensitive.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category classifies a catalog item.
type Category string

const (
	CategoryPaper       Category = "paper"
	CategoryProduct     Category = "product"
	CategoryLargeFormat Category = "large_format"
	CategorySpecialty   Category = "specialty"
)

// Item is a single catalog entry.
type Item struct {
	Name      string
	Category  Category
	UnitPrice decimal.Decimal
}

// NotFoundError reports an unknown item name along with ranked
// "did you mean" suggestions (best-effort, possibly empty).
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("item %q not found in catalog", e.Name)
	}
	return fmt.Sprintf("item %q not found in catalog (did you mean: %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

// Catalog is an immutable set of items with a case-insensitive index.
type Catalog struct {
	items []Item
	index map[string]int // lower-cased name -> position in items
}

// New builds a catalog from the given items in declaration order.
func New(items []Item) *Catalog {
	c := &Catalog{
		items: items,
		index: make(map[string]int, len(items)),
	}
	for i, it := range items {
		c.index[strings.ToLower(it.Name)] = i
	}
	return c
}

// Default returns the standard 46-item paper supply catalog.
func Default() *Catalog {
	return New(paperSupplies)
}

// Lookup finds an item by case-insensitive exact name match. On a miss it
// returns a *NotFoundError carrying up to three suggestions.
func (c *Catalog) Lookup(name string) (Item, error) {
	if i, ok := c.index[strings.ToLower(name)]; ok {
		return c.items[i], nil
	}
	return Item{}, &NotFoundError{Name: name, Suggestions: c.Suggest(name, 3)}
}

// Items returns all catalog entries in declaration order. The returned
// slice is shared; callers must not modify it.
func (c *Catalog) Items() []Item {
	return c.items
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.items)
}
