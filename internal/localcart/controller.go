package localcart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/catalog"

	"go.uber.org/zap"
)

// Action names a user interaction the controller reacts to
type Action string

const (
	ActionAdd            Action = "add"
	ActionChangeQuantity Action = "change_quantity"
	ActionRemove         Action = "remove"
	ActionClear          Action = "clear"
	ActionCheckout       Action = "checkout"
)

// ErrNoListener is returned by Dispatch for an action nobody handles
var ErrNoListener = errors.New("no listener for action")

// Event is a dispatched interaction. Fields that do not apply to the
// action are ignored.
type Event struct {
	Action    Action
	ProductID catalog.ProductID
	Index     int
	Delta     int
}

// Listener handles one action
type Listener func(ctx context.Context, ev Event) error

// Renderer receives the view after every mutation
type Renderer func(View)

// Notice is a non-blocking message for the user
type Notice struct {
	Level   string
	Message string
	At      time.Time
}

// CatalogSource loads the product catalog
type CatalogSource interface {
	Fetch(ctx context.Context, source string) (catalog.Catalog, error)
}

// Controller owns the catalog and the cart of one storefront client.
// Every mutation persists the cart (best effort) and re-renders.
type Controller struct {
	mu        sync.Mutex
	store     Store
	logger    *zap.Logger
	products  catalog.Catalog
	cart      Cart
	listeners map[Action]Listener
	renderers []Renderer
	notices   []Notice
	now       func() time.Time
}

// NewController returns a controller with an empty cart and the default
// listeners for add, change_quantity, remove and clear registered.
func NewController(store Store, logger *zap.Logger) *Controller {
	c := &Controller{
		store:     store,
		logger:    logger,
		listeners: make(map[Action]Listener),
		now:       time.Now,
	}

	c.On(ActionAdd, func(ctx context.Context, ev Event) error {
		return c.Add(ctx, ev.ProductID)
	})
	c.On(ActionChangeQuantity, func(ctx context.Context, ev Event) error {
		return c.ChangeQuantity(ctx, ev.Index, ev.Delta)
	})
	c.On(ActionRemove, func(ctx context.Context, ev Event) error {
		return c.Remove(ctx, ev.Index)
	})
	c.On(ActionClear, func(ctx context.Context, ev Event) error {
		return c.Clear(ctx)
	})

	return c
}

// On registers the listener for action, replacing any previous one
func (c *Controller) On(action Action, listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[action] = listener
}

// OnRender registers a renderer
func (c *Controller) OnRender(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers = append(c.renderers, r)
}

// Dispatch runs the listener registered for ev.Action
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	c.mu.Lock()
	listener, ok := c.listeners[ev.Action]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoListener, ev.Action)
	}
	return listener(ctx, ev)
}

// LoadCatalog fetches the catalog. On failure the product list is left
// empty, the error is logged and a notice recorded.
func (c *Controller) LoadCatalog(ctx context.Context, src CatalogSource, source string) error {
	products, err := src.Fetch(ctx, source)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.products = nil
		c.logger.Error("Failed to load catalog", zap.Error(err), zap.String("source", source))
		c.notice("error", "could not load products")
		return err
	}

	c.products = products
	c.logger.Debug("Catalog loaded", zap.Int("products", len(products)), zap.String("source", source))
	return nil
}

// SetCatalog replaces the catalog
func (c *Controller) SetCatalog(products catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
}

// Load reads the persisted cart. A missing snapshot is an empty cart; an
// unreadable one is dropped with a warning.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	data, err := c.store.Get(ctx, CartKey)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		c.cart = Cart{}
		c.logger.Debug("No saved cart")
	case err != nil:
		c.cart = Cart{}
		c.logger.Warn("Failed to read saved cart", zap.Error(err))
		c.notice("warning", "saved cart could not be read")
	default:
		cart, legacy, decodeErr := Decode(data)
		if decodeErr != nil {
			c.cart = Cart{}
			c.logger.Warn("Discarding corrupt cart snapshot", zap.Error(decodeErr))
			c.notice("warning", "saved cart was corrupt and has been reset")
			break
		}
		if legacy {
			c.logger.Info("Loaded unversioned cart snapshot, it will be rewritten on the next save")
		}
		c.cart = cart
		c.logger.Debug("Cart loaded", zap.Int("lines", cart.Len()))
	}
	view := BuildView(c.cart)
	renderers := c.renderers
	c.mu.Unlock()

	render(renderers, view)
}

// Add puts one unit of productID in the cart
func (c *Controller) Add(ctx context.Context, productID catalog.ProductID) error {
	return c.mutate(ctx, "add", func(cart Cart) (Cart, error) {
		return cart.Add(c.products, productID)
	})
}

// ChangeQuantity adds delta to the line at index; a line at zero is removed
func (c *Controller) ChangeQuantity(ctx context.Context, index, delta int) error {
	return c.mutate(ctx, "change quantity", func(cart Cart) (Cart, error) {
		return cart.ChangeQuantity(index, delta)
	})
}

func (c *Controller) Remove(ctx context.Context, index int) error {
	return c.mutate(ctx, "remove", func(cart Cart) (Cart, error) {
		return cart.Remove(index)
	})
}

func (c *Controller) Clear(ctx context.Context) error {
	return c.mutate(ctx, "clear", func(cart Cart) (Cart, error) {
		return cart.Clear(), nil
	})
}

func (c *Controller) mutate(ctx context.Context, op string, transition func(Cart) (Cart, error)) error {
	c.mu.Lock()
	next, err := transition(c.cart)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("Cart operation rejected", zap.String("op", op), zap.Error(err))
		return err
	}

	c.cart = next
	c.save(ctx)
	view := BuildView(c.cart)
	renderers := c.renderers
	c.mu.Unlock()

	c.logger.Debug("Cart updated",
		zap.String("op", op),
		zap.Int("items", view.Badge),
		zap.String("total", view.Total),
	)
	render(renderers, view)
	return nil
}

// save persists the cart. Failures are logged and noticed, never returned.
// Caller holds c.mu.
func (c *Controller) save(ctx context.Context) {
	data, err := Encode(c.cart)
	if err == nil {
		err = c.store.Set(ctx, CartKey, data)
	}
	if err != nil {
		c.logger.Error("Failed to save cart", zap.Error(err))
		c.notice("error", "cart could not be saved")
	}
}

// caller holds c.mu
func (c *Controller) notice(level, message string) {
	c.notices = append(c.notices, Notice{Level: level, Message: message, At: c.now()})
}

func render(renderers []Renderer, view View) {
	for _, r := range renderers {
		r(view)
	}
}

// Cart returns the current cart
func (c *Controller) Cart() Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart
}

// Catalog returns the loaded products
func (c *Controller) Catalog() catalog.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products
}

func (c *Controller) Totals() Totals {
	return ComputeTotals(c.Cart())
}

func (c *Controller) View() View {
	return BuildView(c.Cart())
}

// Notices returns and forgets the pending notices
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}
