package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductQuery describes a catalog listing request
type ProductQuery struct {
	Category  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder repository.SortOrder
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Products []*domain.Product
	Total    int
	Page     int
	PageSize int
}

// ProductInput carries the writable attributes of a product
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uuid.UUID
	ImageURL    string
	Brand       string
	Model       string
	Stock       int
	Active      *bool
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	List(ctx context.Context, query ProductQuery) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Catalog(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// List returns active products, optionally filtered by category name and search text
func (s *productService) List(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = DefaultPageSize
	}
	if query.PageSize > MaxPageSize {
		query.PageSize = MaxPageSize
	}

	filter := repository.ProductFilter{
		Category: strings.TrimSpace(query.Category),
		Query:    query.Search,
	}
	products, total, err := s.productRepo.List(ctx, filter, query.Page, query.PageSize, query.SortBy, query.SortOrder)
	if err != nil {
		return nil, classify("list products", err)
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}, nil
}

// Get returns an active product
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, classify("get product", err)
	}
	return product, nil
}

// Catalog returns every active product, the document the local cart loads
func (s *productService) Catalog(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, classify("load catalog", err)
	}
	return products, nil
}

func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		Active:    true,
		CreatedAt: now,
	}
	applyProductInput(product, input, now)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, classify("create product", err)
	}

	return s.reload(ctx, product)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, classify("find product", err)
	}
	applyProductInput(product, input, time.Now())

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, classify("update product", err)
	}

	return s.reload(ctx, product)
}

// Delete deactivates a product; existing cart rows stop showing it
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Deactivate(ctx, id); err != nil {
		return classify("delete product", err)
	}
	return nil
}

func (s *productService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}
	return categories, nil
}

func (s *productService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrValidation)
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return nil, classify("create category", err)
	}
	return category, nil
}

// reload re-reads the product so the response carries the category name
func (s *productService) reload(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	stored, err := s.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		return nil, classify("reload product", err)
	}
	return stored, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if input.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrValidation)
	}
	if input.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category_id is required", domain.ErrValidation)
	}
	return nil
}

func applyProductInput(product *domain.Product, input ProductInput, now time.Time) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price.Round(2)
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.Brand = input.Brand
	product.Model = input.Model
	product.Stock = input.Stock
	if input.Active != nil {
		product.Active = *input.Active
	}
	product.UpdatedAt = now
}
