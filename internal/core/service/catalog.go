package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

var _ port.CatalogBrowser = (*CatalogService)(nil)

// CatalogService owns the catalog view pipeline: it translates filter
// state into a platform query, refines the fetched page with the
// constraints the platform cannot express, and resolves category
// display names from a cached category list.
type CatalogService struct {
	products port.ProductsProvider

	mu         sync.RWMutex
	categories []domain.Category
}

func NewCatalog(products port.ProductsProvider) *CatalogService {
	return &CatalogService{products: products}
}

// LoadCategories fetches the category list and replaces the cache.
// Called once on startup and on demand when the cache is empty.
func (s *CatalogService) LoadCategories(ctx context.Context) error {
	const op = "CatalogService.LoadCategories"

	cs, err := s.products.FetchCategories(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.categories = cs
	s.mu.Unlock()
	return nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "CatalogService.Categories"

	s.mu.RLock()
	cached := s.categories
	s.mu.RUnlock()

	if cached == nil {
		if err := s.LoadCategories(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.mu.RLock()
		cached = s.categories
		s.mu.RUnlock()
	}
	return cached, nil
}

// ResolveCategory matches a slug or id against the cached category
// list.
func (s *CatalogService) ResolveCategory(slugOrID string) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slugOrID || c.ID == slugOrID {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *CatalogService) categoryName(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Browse runs the two-stage query pipeline for one catalog page:
// platform query with the server-expressible constraints, then local
// refinement. The caller decides how a failure is rendered; Browse
// only reports it.
func (s *CatalogService) Browse(
	ctx context.Context, f domain.ProductFilters, page int,
) (domain.CatalogPage, error) {
	const op = "CatalogService.Browse"

	if err := ctx.Err(); err != nil {
		return domain.CatalogPage{}, fmt.Errorf("%s: %w", op, err)
	}

	if page < 1 {
		page = 1
	}

	q := BuildProductQuery(f, page)
	ps, total, err := s.products.SearchProducts(ctx, q)
	if err != nil {
		return domain.CatalogPage{}, fmt.Errorf("%s: %w", op, err)
	}

	for i := range ps {
		if ps[i].Category == "" && ps[i].CategoryID != "" {
			ps[i].Category = s.categoryName(ps[i].CategoryID)
		}
	}

	ps = Refine(ps, f)

	return domain.CatalogPage{
		Items:    ps,
		Page:     page,
		PageSize: PageSize,
		Total:    total,
	}, nil
}
