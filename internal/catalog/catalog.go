// Package catalog loads the product catalog document the storefront client
// shops from. The document is a JSON array of products, served by the API at
// /api/products/catalog.json or kept as a local file.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// AllCategories selects every product in Filter
const AllCategories = "all"

// ProductID identifies a catalog product. Older catalog files use numeric
// ids, so both JSON numbers and strings decode into it.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or a number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// Product is one entry of the catalog document
type Product struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion,omitempty"`
	Price       decimal.Decimal `json:"precio"`
	Image       string          `json:"imagen,omitempty"`
	Category    string          `json:"categoria,omitempty"`
	Brand       string          `json:"marca,omitempty"`
	Model       string          `json:"modelo,omitempty"`
	Stock       int             `json:"stock,omitempty"`
}

// Catalog is the ordered product list
type Catalog []Product

// Find looks a product up by id
func (c Catalog) Find(id ProductID) (Product, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Filter returns the products of one category, or all of them for "" and AllCategories
func (c Catalog) Filter(category string) Catalog {
	if category == "" || category == AllCategories {
		return c
	}
	var out Catalog
	for _, p := range c {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists the distinct categories, sorted
func (c Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Decode reads a catalog document
func Decode(r io.Reader) (Catalog, error) {
	var products Catalog
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: catalog document: %v", domain.ErrParse, err)
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: catalog entry %d has no id", domain.ErrParse, i)
		}
	}
	return products, nil
}

// Fetcher loads catalogs over HTTP or from the filesystem
type Fetcher struct {
	HTTP *http.Client
}

// NewFetcher returns a Fetcher using client, or http.DefaultClient when nil
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{HTTP: client}
}

// Fetch loads the catalog from an http(s) URL or a file path. There is no
// retry and no timeout beyond ctx.
func (f *Fetcher) Fetch(ctx context.Context, source string) (Catalog, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.fetchHTTP(ctx, source)
	}

	file, err := os.Open(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}
	return Decode(resp.Body)
}
