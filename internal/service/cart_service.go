package service

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartContents is the caller's cart as shown by the list endpoint
type CartContents struct {
	Lines      []domain.CartLine
	Total      decimal.Decimal
	TotalItems int
}

// CartService defines the interface for server-side cart operations.
// Every operation is scoped to the authenticated user.
type CartService interface {
	List(ctx context.Context, userID uuid.UUID) (*CartContents, error)
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	Total(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) List(ctx context.Context, userID uuid.UUID) (*CartContents, error) {
	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		return nil, classify("list cart", err)
	}

	contents := &CartContents{Lines: lines, Total: decimal.Zero}
	for _, line := range lines {
		contents.Total = contents.Total.Add(line.Subtotal())
		contents.TotalItems += line.Quantity
	}
	return contents, nil
}

// Add puts quantity units of an active product in the cart, merging with an
// existing row. It returns the resulting quantity of the row.
func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		return 0, classify("find product", err)
	}

	if quantity > product.Stock {
		return 0, &domain.InsufficientStockError{Available: product.Stock}
	}

	newQuantity, err := s.cartRepo.AddOrIncrement(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrStockExceeded) {
			return 0, &domain.InsufficientStockError{Available: product.Stock}
		}
		return 0, classify("add to cart", err)
	}

	return newQuantity, nil
}

// UpdateQuantity sets the quantity of one of the user's rows
func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	line, err := s.cartRepo.FindLine(ctx, itemID, userID)
	if err != nil {
		return classify("find cart item", err)
	}

	if quantity > line.Stock {
		return &domain.InsufficientStockError{Available: line.Stock}
	}

	err = s.cartRepo.UpdateQuantity(ctx, itemID, userID, quantity)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrCartItemNotFound) {
		return classify("update cart item", err)
	}

	// The row or its stock changed since FindLine; report what is there now.
	line, err = s.cartRepo.FindLine(ctx, itemID, userID)
	if err != nil {
		return classify("find cart item", err)
	}
	return &domain.InsufficientStockError{Available: line.Stock}
}

func (s *cartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, itemID, userID); err != nil {
		return classify("remove cart item", err)
	}
	return nil
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	removed, err := s.cartRepo.Clear(ctx, userID)
	if err != nil {
		return 0, classify("clear cart", err)
	}
	return removed, nil
}

func (s *cartService) Total(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	summary, err := s.cartRepo.Summary(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, classify("cart total", err)
	}
	return summary, nil
}

// classify passes not-found and validation errors through and marks
// everything else as a storage failure.
func classify(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return domain.StorageError(op, err)
}
