package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
	"github.com/crazybooks/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductsProvider struct {
	mock.Mock
}

func (m *MockProductsProvider) SearchProducts(
	ctx context.Context, q port.ProductQuery,
) ([]domain.Product, int, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *MockProductsProvider) FetchCategories(
	ctx context.Context,
) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func TestCatalogBrowse(t *testing.T) {

	t.Run("ResolvesCategoryNamesAndRefines", func(t *testing.T) {
		products := new(MockProductsProvider)
		products.On("FetchCategories", mock.Anything).Return([]domain.Category{
			{ID: "cat-1", Name: "Fiction", Slug: "fiction"},
		}, nil)

		fetched := []domain.Product{
			{ID: "p1", Name: "Atlas of Clouds", CategoryID: "cat-1", Price: 10},
			{ID: "p2", Name: "Desk Lamp", CategoryID: "cat-1", Price: 5},
		}
		products.On("SearchProducts", mock.Anything, mock.Anything).
			Return(fetched, 2, nil)

		catalog := service.NewCatalog(products)
		require.NoError(t, catalog.LoadCategories(t.Context()))

		f := domain.ProductFilters{SearchText: strPtr("atlas")}
		page, err := catalog.Browse(t.Context(), f, 1)
		require.NoError(t, err)

		require.Len(t, page.Items, 1)
		assert.Equal(t, "Atlas of Clouds", page.Items[0].Name)
		assert.Equal(t, "Fiction", page.Items[0].Category)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, service.PageSize, page.PageSize)
	})

	t.Run("SearchFailurePropagates", func(t *testing.T) {
		products := new(MockProductsProvider)
		boom := errors.New("platform down")
		products.On("SearchProducts", mock.Anything, mock.Anything).
			Return([]domain.Product(nil), 0, boom)

		catalog := service.NewCatalog(products)
		_, err := catalog.Browse(t.Context(), domain.ProductFilters{}, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CategoriesLoadLazily", func(t *testing.T) {
		products := new(MockProductsProvider)
		products.On("FetchCategories", mock.Anything).Return([]domain.Category{
			{ID: "cat-1", Name: "Fiction", Slug: "fiction"},
		}, nil)

		catalog := service.NewCatalog(products)
		cs, err := catalog.Categories(t.Context())
		require.NoError(t, err)
		require.Len(t, cs, 1)

		_, err = catalog.Categories(t.Context())
		require.NoError(t, err)
		products.AssertNumberOfCalls(t, "FetchCategories", 1)

		c, ok := catalog.ResolveCategory("fiction")
		require.True(t, ok)
		assert.Equal(t, "cat-1", c.ID)
	})
}
