package localcart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct {
	*MemoryStore
	setErr error
	getErr error
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type staticSource struct {
	products catalog.Catalog
	err      error
}

func (s staticSource) Fetch(context.Context, string) (catalog.Catalog, error) {
	return s.products, s.err
}

func newTestController(t *testing.T, store Store) (*Controller, *[]View) {
	t.Helper()
	ctrl := NewController(store, zap.NewNop())
	require.NoError(t, ctrl.LoadCatalog(context.Background(), staticSource{products: testCatalog()}, "test"))

	var views []View
	ctrl.OnRender(func(v View) { views = append(views, v) })
	return ctrl, &views
}

func TestController_MutationsPersistAndRender(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ctrl, views := newTestController(t, store)
	ctrl.Load(ctx)

	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionAdd, ProductID: "1"}))
	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionAdd, ProductID: "1"}))
	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionAdd, ProductID: "2"}))

	last := (*views)[len(*views)-1]
	assert.Equal(t, Populated, last.State)
	assert.Equal(t, "$55.00", last.Total)
	assert.Equal(t, FreeShippingLabel, last.Shipping)
	assert.Equal(t, 3, last.Badge)

	// a second controller on the same store sees the saved cart
	other := NewController(store, zap.NewNop())
	other.Load(ctx)
	assert.Equal(t, 2, other.Cart().Len())
	assert.Equal(t, "55.00", other.Totals().Total.StringFixed(2))

	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionChangeQuantity, Index: 0, Delta: -2}))
	assert.Equal(t, 1, ctrl.Cart().Len())
	assert.Equal(t, "$20.00", ctrl.View().Total)

	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionRemove, Index: 0}))
	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionClear}))
	assert.Equal(t, Empty, (*views)[len(*views)-1].State)

	data, err := store.Get(ctx, CartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, string(data))
}

func TestController_RejectedOperationsChangeNothing(t *testing.T) {
	ctx := context.Background()
	ctrl, views := newTestController(t, NewMemoryStore())

	require.NoError(t, ctrl.Add(ctx, "1"))
	rendered := len(*views)

	assert.ErrorIs(t, ctrl.Add(ctx, "404"), ErrUnknownProduct)
	assert.ErrorIs(t, ctrl.ChangeQuantity(ctx, 3, 1), ErrInvalidIndex)
	assert.ErrorIs(t, ctrl.Remove(ctx, -1), ErrInvalidIndex)

	assert.Equal(t, 1, ctrl.Cart().Len())
	assert.Equal(t, rendered, len(*views))
}

func TestController_CorruptSnapshotResetsWithNotice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, CartKey, []byte(`{"version":1,"items":[{`)))

	ctrl, views := newTestController(t, store)
	ctrl.Load(ctx)

	assert.True(t, ctrl.Cart().IsEmpty())
	require.Len(t, *views, 1)
	assert.Equal(t, Empty, (*views)[0].State)

	notices := ctrl.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "warning", notices[0].Level)
	assert.Empty(t, ctrl.Notices())
}

func TestController_LegacySnapshotIsRewrittenOnSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, CartKey, []byte(`[{"id":1,"nombre":"Auriculares","precio":20,"cantidad":1}]`)))

	ctrl, _ := newTestController(t, store)
	ctrl.Load(ctx)
	require.Equal(t, 1, ctrl.Cart().Len())

	require.NoError(t, ctrl.Add(ctx, "1"))

	data, err := store.Get(ctx, CartKey)
	require.NoError(t, err)
	cart, legacy, err := Decode(data)
	require.NoError(t, err)
	assert.False(t, legacy)
	assert.Equal(t, 2, cart.Items()[0].Quantity)
}

func TestController_SaveFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore(), setErr: errors.New("disk full")}
	ctrl, _ := newTestController(t, store)

	require.NoError(t, ctrl.Add(ctx, "1"))
	assert.Equal(t, 1, ctrl.Cart().Len())

	notices := ctrl.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "error", notices[0].Level)
}

func TestController_StoreReadFailureStartsEmpty(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), getErr: errors.New("permission denied")}
	ctrl, _ := newTestController(t, store)

	ctrl.Load(context.Background())
	assert.True(t, ctrl.Cart().IsEmpty())
	assert.Len(t, ctrl.Notices(), 1)
}

func TestController_CatalogFailureKeepsEmptyList(t *testing.T) {
	ctrl := NewController(NewMemoryStore(), zap.NewNop())

	err := ctrl.LoadCatalog(context.Background(), staticSource{err: errors.New("connection refused")}, "http://nowhere")
	require.Error(t, err)
	assert.Empty(t, ctrl.Catalog())
	assert.Len(t, ctrl.Notices(), 1)
	assert.ErrorIs(t, ctrl.Add(context.Background(), "1"), ErrUnknownProduct)
}

func TestController_DispatchCustomListeners(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(t, NewMemoryStore())

	assert.ErrorIs(t, ctrl.Dispatch(ctx, Event{Action: ActionCheckout}), ErrNoListener)

	called := false
	ctrl.On(ActionCheckout, func(ctx context.Context, ev Event) error {
		called = true
		return ctrl.Clear(ctx)
	})
	require.NoError(t, ctrl.Add(ctx, "2"))
	require.NoError(t, ctrl.Dispatch(ctx, Event{Action: ActionCheckout}))

	assert.True(t, called)
	assert.True(t, ctrl.Cart().IsEmpty())
}
