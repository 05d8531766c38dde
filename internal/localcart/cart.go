// Package localcart is the client-side shopping cart: an ordered list of
// line items kept by the storefront client, persisted as a versioned JSON
// snapshot in a key/value store. It has no server counterpart; the server
// cart lives in the API.
package localcart

import (
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownProduct = fmt.Errorf("product %w in catalog", domain.ErrNotFound)
	ErrInvalidIndex   = fmt.Errorf("%w: invalid cart index", domain.ErrValidation)
)

// LineItem is one product in the cart. Quantity is always at least 1.
type LineItem struct {
	ProductID catalog.ProductID `json:"id"`
	Name      string            `json:"nombre"`
	Price     decimal.Decimal   `json:"precio"`
	Image     string            `json:"imagen,omitempty"`
	Category  string            `json:"categoria,omitempty"`
	Quantity  int               `json:"cantidad"`
}

// LineTotal is price × quantity
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an immutable snapshot. Every transition returns a new Cart and
// leaves the receiver untouched.
type Cart struct {
	items []LineItem
}

// New builds a cart from items, in order
func New(items ...LineItem) Cart {
	return Cart{items: append([]LineItem(nil), items...)}
}

// Items returns a copy of the line items
func (c Cart) Items() []LineItem {
	return append([]LineItem(nil), c.items...)
}

func (c Cart) Len() int      { return len(c.items) }
func (c Cart) IsEmpty() bool { return len(c.items) == 0 }

// IndexOf returns the line holding productID, or -1
func (c Cart) IndexOf(productID catalog.ProductID) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts one unit of a catalog product in the cart. A product already in
// the cart has its quantity incremented instead of getting a second line.
func (c Cart) Add(products catalog.Catalog, productID catalog.ProductID) (Cart, error) {
	product, ok := products.Find(productID)
	if !ok {
		return c, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}

	items := c.Items()
	if i := c.IndexOf(productID); i >= 0 {
		items[i].Quantity++
		return Cart{items: items}, nil
	}

	items = append(items, LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		Category:  product.Category,
		Quantity:  1,
	})
	return Cart{items: items}, nil
}

// ChangeQuantity adds delta to the quantity of the line at index. A line
// whose quantity drops to zero or below is removed.
func (c Cart) ChangeQuantity(index, delta int) (Cart, error) {
	if index < 0 || index >= len(c.items) {
		return c, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	items := c.Items()
	items[index].Quantity += delta
	if items[index].Quantity <= 0 {
		return c.Remove(index)
	}
	return Cart{items: items}, nil
}

// Remove deletes the line at index
func (c Cart) Remove(index int) (Cart, error) {
	if index < 0 || index >= len(c.items) {
		return c, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	items := make([]LineItem, 0, len(c.items)-1)
	items = append(items, c.items[:index]...)
	items = append(items, c.items[index+1:]...)
	return Cart{items: items}, nil
}

// Clear returns the empty cart
func (c Cart) Clear() Cart {
	return Cart{}
}
