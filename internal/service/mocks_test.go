package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, token := range m.tokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			n++
		}
	}
	return n, nil
}

// mockProductRepository keeps products in a map keyed by ID
type mockProductRepository struct {
	products   map[uuid.UUID]*domain.Product
	categories map[uuid.UUID]string
	err        error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:   make(map[uuid.UUID]*domain.Product),
		categories: make(map[uuid.UUID]string),
	}
}

func (m *mockProductRepository) add(price string, stock int) *domain.Product {
	p := &domain.Product{
		ID:     uuid.New(),
		Name:   "Product " + price,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	name, ok := m.categories[product.CategoryID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	copied := *product
	copied.CategoryName = name
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	copied := *product
	copied.CategoryName = m.categories[product.CategoryID]
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Active = false
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	all, _ := m.ListActive(ctx)
	matched := []*domain.Product{}
	for _, p := range all {
		if filter.Category != "" && p.CategoryName != filter.Category {
			continue
		}
		matched = append(matched, p)
	}
	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *mockProductRepository) ListActive(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, p := range m.products {
		if p.Active {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

type mockCategoryRepository struct {
	categories map[string]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[string]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if _, exists := m.categories[category.Name]; exists {
		return repository.ErrCategoryAlreadyExists
	}
	m.categories[category.Name] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	c, ok := m.categories[name]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

// mockCartRepository mirrors the SQL semantics of the cart repository:
// one row per (user, product), stock and activity checked on every write.
type mockCartRepository struct {
	mu       sync.Mutex
	products *mockProductRepository
	rows     map[uuid.UUID]*domain.CartItem
	err      error
}

func newMockCartRepository(products *mockProductRepository) *mockCartRepository {
	return &mockCartRepository{
		products: products,
		rows:     make(map[uuid.UUID]*domain.CartItem),
	}
}

var errMockStorage = errors.New("mock storage failure")

func (m *mockCartRepository) line(row *domain.CartItem) (domain.CartLine, bool) {
	p, ok := m.products.products[row.ProductID]
	if !ok || !p.Active {
		return domain.CartLine{}, false
	}
	return domain.CartLine{
		CartItemID: row.ID,
		Quantity:   row.Quantity,
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		AddedAt:    row.CreatedAt,
	}, true
}

func (m *mockCartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	lines := []domain.CartLine{}
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		if line, ok := m.line(row); ok {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].AddedAt.After(lines[j].AddedAt) })
	return lines, nil
}

func (m *mockCartRepository) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	p, ok := m.products.products[productID]
	if !ok || !p.Active {
		return 0, repository.ErrStockExceeded
	}
	for _, row := range m.rows {
		if row.UserID == userID && row.ProductID == productID {
			if row.Quantity+quantity > p.Stock {
				return 0, repository.ErrStockExceeded
			}
			row.Quantity += quantity
			return row.Quantity, nil
		}
	}
	if quantity > p.Stock {
		return 0, repository.ErrStockExceeded
	}
	row := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now().Add(time.Duration(len(m.rows)) * time.Millisecond),
	}
	m.rows[row.ID] = row
	return quantity, nil
}

func (m *mockCartRepository) FindLine(ctx context.Context, id, userID uuid.UUID) (*domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return nil, repository.ErrCartItemNotFound
	}
	line, ok := m.line(row)
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	return &line, nil
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return repository.ErrCartItemNotFound
	}
	p, ok := m.products.products[row.ProductID]
	if !ok || !p.Active || quantity > p.Stock {
		return repository.ErrCartItemNotFound
	}
	row.Quantity = quantity
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return repository.ErrCartItemNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for id, row := range m.rows {
		if row.UserID == userID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *mockCartRepository) Summary(ctx context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	lines, err := m.ListLines(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	summary := domain.CartSummary{Rows: len(lines), Total: decimal.Zero}
	for _, line := range lines {
		summary.Total = summary.Total.Add(line.Subtotal())
	}
	return summary, nil
}
