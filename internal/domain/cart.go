package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one persisted (user, product, quantity) row.
// At most one row exists per (UserID, ProductID).
type CartItem struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ProductID uuid.UUID `db:"product_id"`
	Quantity  int       `db:"quantity"`
	CreatedAt time.Time `db:"created_at"`
}

// CartLine is a cart row joined with the attributes of its active product.
type CartLine struct {
	CartItemID  uuid.UUID
	Quantity    int
	ProductID   uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Stock       int
	Brand       string
	Model       string
	AddedAt     time.Time
}

// Subtotal returns price × quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSummary aggregates the rows of a cart that reference active products.
type CartSummary struct {
	Rows  int
	Total decimal.Decimal
}
