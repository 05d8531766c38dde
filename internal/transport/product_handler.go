package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the body of the admin create and update endpoints
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	ImageURL    string          `json:"image_url" validate:"omitempty,max=500"`
	Brand       string          `json:"brand" validate:"max=100"`
	Model       string          `json:"model" validate:"max=100"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Active      *bool           `json:"active,omitempty"`
}

func (p ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  uuid.MustParse(p.CategoryID),
		ImageURL:    p.ImageURL,
		Brand:       p.Brand,
		Model:       p.Model,
		Stock:       p.Stock,
		Active:      p.Active,
	}
}

// CategoryRequest is the body of POST /api/categories
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// CatalogEntry is one product of the catalog document the local cart loads.
// precio is written as a JSON number.
type CatalogEntry struct {
	ID          string      `json:"id"`
	Name        string      `json:"nombre"`
	Description string      `json:"descripcion"`
	Price       json.Number `json:"precio"`
	Image       string      `json:"imagen"`
	Category    string      `json:"categoria"`
	Brand       string      `json:"marca"`
	Model       string      `json:"modelo"`
	Stock       int         `json:"stock"`
}

func newCatalogEntry(p *domain.Product) CatalogEntry {
	return CatalogEntry{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.StringFixed(2)),
		Image:       p.ImageURL,
		Category:    p.CategoryName,
		Brand:       p.Brand,
		Model:       p.Model,
		Stock:       p.Stock,
	}
}

// ProductHandler serves the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public catalog routes and the admin write routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/catalog.json", h.Catalog)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.With(authMiddleware, adminMiddleware).Post("/", h.CreateCategory)
	})
}

// List handles GET /api/products?category=&q=&page=&page_size=&sort=&order=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.ProductQuery{
		Category:  q.Get("category"),
		Search:    q.Get("q"),
		Page:      queryInt(q.Get("page")),
		PageSize:  queryInt(q.Get("page_size")),
		SortBy:    q.Get("sort"),
		SortOrder: repository.SortOrder(strings.ToUpper(q.Get("order"))),
	}

	page, err := h.productService.List(r.Context(), query)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	products := page.Products
	if products == nil {
		products = []*domain.Product{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products:   products,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: (page.Total + page.PageSize - 1) / page.PageSize,
	})
}

// Catalog serves every active product as a flat array
func (h *ProductHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.Catalog(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	entries := make([]CatalogEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, newCatalogEntry(p))
	}
	middleware.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrProductNotFound.Error())
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Create(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrProductNotFound.Error())
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.input())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete deactivates the product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrProductNotFound.Error())
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product deactivated", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "product deleted"})
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category, err := h.productService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Category created", zap.String("category", category.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// queryInt parses a positive query parameter; anything else is 0 (use the default)
func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
