// Package catalog holds the fixed menu and is the authority on unit prices.
package catalog

import (
	"fmt"
	"slices"

	"checkout/internal/entity"

	"github.com/shopspring/decimal"
)

const _placeholderImage = "/placeholder.svg?height=100&width=100"

var _defaultMenu = []entity.MenuItem{
	{ID: "1", Name: "Margherita Pizza", Description: "Classic cheese pizza with tomato sauce", Price: decimal.NewFromInt(199)},
	{ID: "2", Name: "Veggie Burger", Description: "Plant-based patty with lettuce, tomato, and special sauce", Price: decimal.NewFromInt(149)},
	{ID: "3", Name: "Chicken Biryani", Description: "Fragrant rice dish with chicken and aromatic spices", Price: decimal.NewFromInt(249)},
	{ID: "4", Name: "Pasta Alfredo", Description: "Creamy pasta with parmesan cheese sauce", Price: decimal.NewFromInt(179)},
	{ID: "5", Name: "Chocolate Brownie", Description: "Rich chocolate brownie with vanilla ice cream", Price: decimal.NewFromInt(99)},
	{ID: "6", Name: "Mango Smoothie", Description: "Refreshing mango smoothie with a hint of mint", Price: decimal.NewFromInt(79)},
}

// LineRequest is a cart line as the client sends it. Only the id and the
// quantity are trusted.
type LineRequest struct {
	ID       string
	Quantity int
}

type Catalog struct {
	items []entity.MenuItem
	byID  map[string]entity.MenuItem
}

func New(items []entity.MenuItem) *Catalog {
	c := &Catalog{
		items: make([]entity.MenuItem, 0, len(items)),
		byID:  make(map[string]entity.MenuItem, len(items)),
	}
	for _, item := range items {
		if item.Image == "" {
			item.Image = _placeholderImage
		}
		c.items = append(c.items, item)
		c.byID[item.ID] = item
	}
	return c
}

// Default returns the storefront menu.
func Default() *Catalog {
	return New(_defaultMenu)
}

func (c *Catalog) Menu() []entity.MenuItem {
	return slices.Clone(c.items)
}

func (c *Catalog) Lookup(id string) (entity.MenuItem, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Resolve turns client lines into priced cart lines. Repeated ids are merged
// in first-seen order.
func (c *Catalog) Resolve(lines []LineRequest) ([]entity.CartLine, error) {
	const op = "catalog.Resolve"

	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrEmptyCart)
	}

	resolved := make([]entity.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		item, ok := c.byID[line.ID]
		if !ok {
			return nil, fmt.Errorf("%s: id %q: %w", op, line.ID, entity.ErrUnknownMenuItem)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%s: id %q quantity %d: %w", op, line.ID, line.Quantity, entity.ErrInvalidData)
		}

		if i, seen := index[line.ID]; seen {
			resolved[i].Quantity += line.Quantity
			continue
		}

		index[line.ID] = len(resolved)
		resolved = append(resolved, entity.CartLine{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  line.Quantity,
		})
	}

	return resolved, nil
}
