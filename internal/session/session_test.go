package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/localcart"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(store localcart.Store) *Manager {
	m := NewManager(store, zap.NewNop())
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		fields   []string
	}{
		{"valid", "ana@example.com", "secret", nil},
		{"missing everything", "", "", []string{"email", "password"}},
		{"no domain dot", "ana@example", "secret", []string{"email"}},
		{"whitespace in address", "an a@example.com", "secret", []string{"email"}},
		{"short password", "ana@example.com", "12345", []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.email, tt.password)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, domain.ErrValidation)
			for _, f := range tt.fields {
				assert.Contains(t, fe, f)
			}
			assert.Len(t, fe, len(tt.fields))
		})
	}
}

func TestMailboxRuleIsRegistered(t *testing.T) {
	require.NotPanics(t, func() {
		assert.NoError(t, validate.Var("ana@example.com", "mailbox"))
		assert.Error(t, validate.Var("ana@example", "mailbox"))
		assert.Error(t, validate.Var("ana example@x.io", "mailbox"))
	})
}

func TestValidateRegistration(t *testing.T) {
	assert.NoError(t, ValidateRegistration("  Ana ", "ana@example.com", "secret", "secret"))

	err := ValidateRegistration(" A ", "ana@example.com", "secret", "secret")
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "name")

	err = ValidateRegistration("Ana", "ana@example.com", "secret", "secreto")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "does not match the password", fe["confirm"])
	assert.Contains(t, err.Error(), "confirm")
}

func TestProperty_ShortPasswordsAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords under six characters never validate", prop.ForAll(
		func(password string) bool {
			err := ValidateLogin("ana@example.com", password)
			var fe FieldErrors
			return errors.As(err, &fe) && fe["password"] != ""
		},
		gen.IntRange(0, MinPasswordLength-1).Map(func(n int) string { return strings.Repeat("x", n) }),
	))

	properties.Property("passwords of six or more characters validate", prop.ForAll(
		func(password string) bool {
			return ValidateLogin("ana@example.com", password) == nil
		},
		gen.IntRange(MinPasswordLength, 64).Map(func(n int) string { return strings.Repeat("x", n) }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestManager_LoginUsesEmailLocalPart(t *testing.T) {
	ctx := context.Background()
	store := localcart.NewMemoryStore()
	m := newTestManager(store)

	user, err := m.Login(ctx, " maria.lopez@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "maria.lopez", user.Name)

	current, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "maria.lopez@example.com", current.Email)
	assert.Equal(t, "maria.lopez", current.Name)

	data, err := store.Get(ctx, localcart.SessionKey)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"version":1,"name":"maria.lopez","email":"maria.lopez@example.com","logged_in_at":"2026-03-01T12:00:00Z"}`,
		string(data))
}

func TestManager_InvalidLoginStoresNothing(t *testing.T) {
	ctx := context.Background()
	store := localcart.NewMemoryStore()
	m := newTestManager(store)

	_, err := m.Login(ctx, "nope", "secret")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.Get(ctx, localcart.SessionKey)
	assert.ErrorIs(t, err, localcart.ErrKeyNotFound)
}

func TestManager_RegisterAndLogout(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(localcart.NewMemoryStore())

	user, err := m.Register(ctx, "  Ana Torres ", "ana@example.com", "secret", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", user.Name)

	require.NoError(t, m.Logout(ctx))
	_, err = m.Current(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	require.NoError(t, m.Logout(ctx))
}

func TestManager_ReadsLegacySession(t *testing.T) {
	ctx := context.Background()
	store := localcart.NewMemoryStore()
	require.NoError(t, store.Set(ctx, localcart.SessionKey, []byte(`{"nombre":"ana","email":"ana@example.com"}`)))

	user, err := newTestManager(store).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestManager_CorruptSessionIsLoggedOut(t *testing.T) {
	ctx := context.Background()
	store := localcart.NewMemoryStore()
	require.NoError(t, store.Set(ctx, localcart.SessionKey, []byte(`{"email":`)))

	_, err := newTestManager(store).Current(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func checkoutFixture(t *testing.T) (*Manager, *localcart.Controller) {
	t.Helper()
	store := localcart.NewMemoryStore()
	ctrl := localcart.NewController(store, zap.NewNop())
	ctrl.SetCatalog(catalog.Catalog{
		{ID: "1", Name: "Auriculares", Price: decimal.RequireFromString("20.00")},
		{ID: "2", Name: "Cable USB", Price: decimal.RequireFromString("15.00")},
	})
	return newTestManager(store), ctrl
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		m, ctrl := checkoutFixture(t)
		_, err := m.Login(ctx, "ana@example.com", "secret")
		require.NoError(t, err)

		err = m.Checkout(ctx, ctrl, func(localcart.Totals) bool {
			t.Fatal("confirm must not be asked for an empty cart")
			return true
		})
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("not logged in", func(t *testing.T) {
		m, ctrl := checkoutFixture(t)
		require.NoError(t, ctrl.Add(ctx, "1"))

		err := m.Checkout(ctx, ctrl, func(localcart.Totals) bool { return true })
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.Equal(t, 1, ctrl.Cart().Len())
	})

	t.Run("declined", func(t *testing.T) {
		m, ctrl := checkoutFixture(t)
		_, err := m.Login(ctx, "ana@example.com", "secret")
		require.NoError(t, err)
		require.NoError(t, ctrl.Add(ctx, "2"))

		var asked localcart.Totals
		err = m.Checkout(ctx, ctrl, func(totals localcart.Totals) bool {
			asked = totals
			return false
		})
		assert.ErrorIs(t, err, ErrCheckoutCancelled)
		assert.Equal(t, "20.00", asked.Total.StringFixed(2))
		assert.Equal(t, 1, ctrl.Cart().Len())
	})

	t.Run("confirmed", func(t *testing.T) {
		m, ctrl := checkoutFixture(t)
		_, err := m.Login(ctx, "ana@example.com", "secret")
		require.NoError(t, err)
		require.NoError(t, ctrl.Add(ctx, "1"))
		require.NoError(t, ctrl.Add(ctx, "1"))
		require.NoError(t, ctrl.Add(ctx, "2"))

		ctrl.On(localcart.ActionCheckout, m.CheckoutListener(ctrl, func(totals localcart.Totals) bool {
			return totals.FreeShipping && totals.Total.Equal(decimal.RequireFromString("55"))
		}))
		require.NoError(t, ctrl.Dispatch(ctx, localcart.Event{Action: localcart.ActionCheckout}))
		assert.True(t, ctrl.Cart().IsEmpty())
		assert.Equal(t, "$0.00", ctrl.View().Total)
	})
}
