package session

import (
	"context"
	"errors"

	"storefront/internal/localcart"

	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCheckoutCancelled = errors.New("checkout cancelled")
)

// Confirm is asked to approve the order totals
type Confirm func(localcart.Totals) bool

// Checkout finishes the purchase of the controller's cart. The cart must
// be non-empty and a user logged in; a declined confirmation leaves the
// cart as it was, an accepted one clears it.
func (m *Manager) Checkout(ctx context.Context, ctrl *localcart.Controller, confirm Confirm) error {
	totals := ctrl.Totals()
	if totals.ItemCount == 0 {
		return ErrEmptyCart
	}

	user, err := m.Current(ctx)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return ErrNotLoggedIn
		}
		return err
	}

	if !confirm(totals) {
		m.logger.Info("Checkout cancelled", zap.String("email", user.Email))
		return ErrCheckoutCancelled
	}

	if err := ctrl.Clear(ctx); err != nil {
		return err
	}

	m.logger.Info("Order placed",
		zap.String("email", user.Email),
		zap.Int("items", totals.ItemCount),
		zap.String("total", totals.Total.StringFixed(2)),
	)
	return nil
}

// CheckoutListener adapts Checkout to the controller's checkout action
func (m *Manager) CheckoutListener(ctrl *localcart.Controller, confirm Confirm) localcart.Listener {
	return func(ctx context.Context, _ localcart.Event) error {
		return m.Checkout(ctx, ctrl, confirm)
	}
}
