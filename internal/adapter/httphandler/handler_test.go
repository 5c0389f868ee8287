package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crazybooks/storefront/internal/adapter/httphandler"
	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalogBrowser struct {
	mock.Mock
}

func (m *MockCatalogBrowser) Browse(
	ctx context.Context, f domain.ProductFilters, page int,
) (domain.CatalogPage, error) {
	args := m.Called(ctx, f, page)
	return args.Get(0).(domain.CatalogPage), args.Error(1)
}

func (m *MockCatalogBrowser) Categories(
	ctx context.Context,
) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCatalogBrowser) ResolveCategory(
	slugOrID string,
) (domain.Category, bool) {
	args := m.Called(slugOrID)
	return args.Get(0).(domain.Category), args.Bool(1)
}

func newCatalogServer(browser *MockCatalogBrowser) http.Handler {
	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, browser)
	return httphandler.WithSession(httphandler.AllowJSON(mux))
}

func TestGetProducts(t *testing.T) {

	t.Run("ServesHighlightedPage", func(t *testing.T) {
		browser := new(MockCatalogBrowser)
		page := domain.CatalogPage{
			Items: []domain.Product{
				{ID: "p1", Name: "World Atlas 2025", Price: 39.50},
			},
			Page:     1,
			PageSize: service.PageSize,
			Total:    1,
		}
		browser.On("Browse", mock.Anything, mock.Anything, 1).Return(page, nil)

		srv := newCatalogServer(browser)
		r := httptest.NewRequest(http.MethodGet,
			"/v1/catalog/products?search=atlas", nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)

		var got httphandler.CatalogPage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, 1, got.ActiveFilters)
		assert.Equal(t, "search=atlas", got.Query)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "World Atlas 2025", got.Items[0].Name)
		assert.Equal(t,
			"World <mark>Atlas</mark> 2025", got.Items[0].HighlightedName)
	})

	t.Run("BrowseFailureIsRetryable", func(t *testing.T) {
		browser := new(MockCatalogBrowser)
		browser.On("Browse", mock.Anything, mock.Anything, 1).
			Return(domain.CatalogPage{}, errors.New("platform down"))

		srv := newCatalogServer(browser)
		r := httptest.NewRequest(http.MethodGet, "/v1/catalog/products", nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)

		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), `"retryable":true`)
	})
}

func TestWithSession(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("MintsTokenWhenAbsent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		httphandler.WithSession(echo).ServeHTTP(w, r)

		token := w.Header().Get("X-Session-Token")
		require.NotEmpty(t, token)

		var cookie string
		for _, c := range w.Result().Cookies() {
			if c.Name == "storefront_session" {
				cookie = c.Value
			}
		}
		assert.Equal(t, token, cookie)
	})

	t.Run("HeaderTokenEchoed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Session-Token", "session-42")
		w := httptest.NewRecorder()
		httphandler.WithSession(echo).ServeHTTP(w, r)

		assert.Equal(t, "session-42", w.Header().Get("X-Session-Token"))
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("CookieTokenUsed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "storefront_session", Value: "session-7"})
		w := httptest.NewRecorder()
		httphandler.WithSession(echo).ServeHTTP(w, r)

		assert.Equal(t, "session-7", w.Header().Get("X-Session-Token"))
	})
}

func TestAllowJSON(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("RejectsOtherMediaTypes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		httphandler.AllowJSON(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("EmptyBodyPasses", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		httphandler.AllowJSON(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
