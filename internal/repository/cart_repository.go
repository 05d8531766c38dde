package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound = domain.ErrCartItemNotFound
	// ErrStockExceeded is returned when a write would push a cart row past the
	// product's stock. Nothing is written in that case.
	ErrStockExceeded = domain.ErrInsufficientStock
)

// CartRepository defines the interface for cart data access.
// Every method is scoped to the owning user.
type CartRepository interface {
	ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error)
	AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error)
	FindLine(ctx context.Context, id, userID uuid.UUID) (*domain.CartLine, error)
	UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error)
}

type cartRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db, now: time.Now}
}

const cartLineColumns = `
	ci.id, ci.quantity, p.id, p.name, p.description, p.price, p.image_url,
	p.stock, p.brand, p.model, ci.created_at
`

func scanCartLine(row rowScanner) (domain.CartLine, error) {
	var line domain.CartLine
	err := row.Scan(
		&line.CartItemID,
		&line.Quantity,
		&line.ProductID,
		&line.Name,
		&line.Description,
		&line.Price,
		&line.ImageURL,
		&line.Stock,
		&line.Brand,
		&line.Model,
		&line.AddedAt,
	)
	return line, err
}

// ListLines returns the user's rows joined with their active products, newest first.
// Rows whose product was deactivated are omitted.
func (r *cartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND p.active = TRUE
		ORDER BY ci.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// AddOrIncrement inserts a row for (user, product) or adds quantity to the
// existing one in a single statement, and returns the resulting quantity.
// The unique (user_id, product_id) constraint makes concurrent adds merge
// into one row. If the product is inactive, missing, or the combined
// quantity exceeds stock, no row is written and ErrStockExceeded is returned.
func (r *cartRepository) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error) {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at)
		SELECT $1, $2, p.id, $4, $5
		FROM products p
		WHERE p.id = $3 AND p.active = TRUE AND p.stock >= $4
		ON CONFLICT ON CONSTRAINT uq_cart_items_user_product DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
		WHERE cart_items.quantity + EXCLUDED.quantity <= (
			SELECT stock FROM products WHERE id = EXCLUDED.product_id
		)
		RETURNING quantity
	`

	var newQuantity int
	err := r.db.QueryRowContext(ctx, query,
		uuid.New(),
		userID,
		productID,
		quantity,
		r.now(),
	).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrStockExceeded
		}
		if pgErrorCode(err) == pgCheckViolation {
			return 0, domain.ErrInvalidQuantity
		}
		return 0, fmt.Errorf("failed to add to cart: %w", err)
	}

	return newQuantity, nil
}

// FindLine returns a row owned by userID whose product is still active
func (r *cartRepository) FindLine(ctx context.Context, id, userID uuid.UUID) (*domain.CartLine, error) {
	line, err := scanCartLine(r.db.QueryRowContext(ctx, `
		SELECT `+cartLineColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND ci.user_id = $2 AND p.active = TRUE
	`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return &line, nil
}

// UpdateQuantity sets the quantity of an owned row. Ownership, product
// activity and stock are re-checked by the statement itself; if any of them
// fails nothing changes and ErrCartItemNotFound is returned.
func (r *cartRepository) UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET quantity = $3
		FROM products p
		WHERE ci.id = $1 AND ci.user_id = $2
		  AND p.id = ci.product_id AND p.active = TRUE AND p.stock >= $3
	`, id, userID, quantity)
	if err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	return expectOneRow(result, ErrCartItemNotFound)
}

// Delete removes an owned row
func (r *cartRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	return expectOneRow(result, ErrCartItemNotFound)
}

// Clear removes every row of the user, including rows of inactive products
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

// Summary counts the user's rows over active products and sums quantity × price
func (r *cartRepository) Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	var (
		rows  int
		total decimal.Decimal
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(ci.id), COALESCE(SUM(ci.quantity * p.price), 0)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND p.active = TRUE
	`, userID).Scan(&rows, &total)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("failed to summarize cart: %w", err)
	}

	return domain.CartSummary{Rows: rows, Total: total}, nil
}
