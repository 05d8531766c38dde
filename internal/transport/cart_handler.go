package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest is the body of POST /api/cart/add. cantidad defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"producto_id" validate:"required,uuid"`
	Quantity  *int   `json:"cantidad,omitempty"`
}

// UpdateCartRequest is the body of PUT /api/cart/update/{id}
type UpdateCartRequest struct {
	Quantity *int `json:"cantidad" validate:"required"`
}

// CartItemResponse is one cart row joined with its product
type CartItemResponse struct {
	CartItemID  string `json:"carrito_id"`
	Quantity    int    `json:"cantidad"`
	ProductID   string `json:"producto_id"`
	Name        string `json:"producto_nombre"`
	Description string `json:"producto_descripcion"`
	Price       string `json:"producto_precio"`
	Image       string `json:"producto_imagen"`
	Stock       int    `json:"producto_stock"`
	Brand       string `json:"marca"`
	Model       string `json:"modelo"`
	Subtotal    string `json:"subtotal"`
}

// CartResponse is the body of GET /api/cart
type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	Total      string             `json:"total"`
	TotalItems int                `json:"totalItems"`
}

// CartTotalResponse is the body of GET /api/cart/total
type CartTotalResponse struct {
	TotalItems int    `json:"total_items"`
	TotalPrice string `json:"total_precio"`
}

func newCartItemResponse(line domain.CartLine) CartItemResponse {
	return CartItemResponse{
		CartItemID:  line.CartItemID.String(),
		Quantity:    line.Quantity,
		ProductID:   line.ProductID.String(),
		Name:        line.Name,
		Description: line.Description,
		Price:       line.Price.StringFixed(2),
		Image:       line.ImageURL,
		Stock:       line.Stock,
		Brand:       line.Brand,
		Model:       line.Model,
		Subtotal:    line.Subtotal().StringFixed(2),
	}
}

// CartHandler serves the authenticated user's server-side cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes mounts the cart under /api/cart; every route requires a token
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/add", h.Add)
		r.Put("/update/{id}", h.Update)
		r.Delete("/remove/{id}", h.Remove)
		r.Delete("/clear", h.Clear)
		r.Get("/total", h.Total)
	})
}

// List returns the cart lines, newest first, with their totals
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	contents, err := h.cartService.List(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	items := make([]CartItemResponse, 0, len(contents.Lines))
	for _, line := range contents.Lines {
		items = append(items, newCartItemResponse(line))
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartResponse{
		Items:      items,
		Total:      contents.Total.StringFixed(2),
		TotalItems: contents.TotalItems,
	})
}

// Add puts a product in the cart or increments its row
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add to cart validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	newQuantity, err := h.cartService.Add(r.Context(), userID, uuid.MustParse(req.ProductID), quantity)
	if err != nil {
		h.logger.Debug("Add to cart rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product added to cart",
		zap.String("user_id", userID.String()),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", newQuantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "product added to cart"})
}

// Update sets the quantity of one of the caller's rows
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrCartItemNotFound.Error())
		return
	}

	var req UpdateCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Update cart validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.cartService.UpdateQuantity(r.Context(), userID, itemID, *req.Quantity); err != nil {
		h.logger.Debug("Update cart rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "cart item updated"})
}

// Remove deletes one of the caller's rows
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrCartItemNotFound.Error())
		return
	}

	if err := h.cartService.Remove(r.Context(), userID, itemID); err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "product removed from cart"})
}

// Clear empties the caller's cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	removed, err := h.cartService.Clear(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Cart cleared",
		zap.String("user_id", userID.String()),
		zap.Int64("removed", removed),
	)
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "cart cleared"})
}

// Total returns the row count and price sum of the cart
func (h *CartHandler) Total(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cartService.Total(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CartTotalResponse{
		TotalItems: summary.Rows,
		TotalPrice: summary.Total.StringFixed(2),
	})
}
