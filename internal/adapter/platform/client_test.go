package platform_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crazybooks/storefront/internal/adapter/platform"
	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *platform.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := platform.New(platform.Config{
		BaseURL:    srv.URL,
		ProjectKey: "bookstore",
		AuthToken:  "test-token",
		Locale:     "en",
		TaxCountry: "DE",
		Currency:   "EUR",
		HTTP:       srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestSearchProducts(t *testing.T) {

	t.Run("SerializesQuery", func(t *testing.T) {
		var gotReq *http.Request
		cl := newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotReq = r.Clone(r.Context())
				_, _ = w.Write([]byte(`{"results":[],"total":0}`))
			}))

		q := port.ProductQuery{
			Where: []string{
				`categories(id="cat-1")`,
				"variants(prices(discounted is defined))",
			},
			Sort:   []string{"name asc"},
			Limit:  12,
			Offset: 24,
		}
		_, _, err := cl.SearchProducts(t.Context(), q)
		require.NoError(t, err)

		require.NotNil(t, gotReq)
		assert.Equal(t,
			"/bookstore/product-projections/search", gotReq.URL.Path)
		assert.Equal(t, "Bearer test-token",
			gotReq.Header.Get("Authorization"))

		vals := gotReq.URL.Query()
		assert.Equal(t, q.Where, vals["where"])
		assert.Equal(t, q.Sort, vals["sort"])
		assert.Equal(t, "12", vals.Get("limit"))
		assert.Equal(t, "24", vals.Get("offset"))
	})

	t.Run("NormalizesDiscountedProduct", func(t *testing.T) {
		cl := newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{
					"total": 1,
					"results": [{
						"id": "p1",
						"key": "atlas-shrugged",
						"name": {"en": "Atlas Shrugged"},
						"description": {"en": "a novel"},
						"categories": [{"id": "cat-1"}],
						"masterVariant": {
							"images": [{"url": "https://img/p1.jpg"}],
							"attributes": [
								{"name": "author", "value": "Ayn Rand"},
								{"name": "pages", "value": 1168}
							],
							"prices": [{
								"value": {"centAmount": 2000, "currencyCode": "EUR"},
								"discounted": {
									"value": {"centAmount": 1500, "currencyCode": "EUR"}
								}
							}]
						}
					}]
				}`))
			}))

		ps, total, err := cl.SearchProducts(t.Context(), port.ProductQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, ps, 1)

		p := ps[0]
		assert.Equal(t, "p1", p.ID)
		assert.Equal(t, "Atlas Shrugged", p.Name)
		assert.Equal(t, "a novel", p.Description)
		assert.Equal(t, "cat-1", p.CategoryID)
		assert.Equal(t, "https://img/p1.jpg", p.ImageURL)
		assert.Equal(t, "Ayn Rand", p.Author)

		assert.True(t, p.HasDiscount)
		assert.InDelta(t, 15.00, p.Price, 1e-9)
		require.NotNil(t, p.OriginalPrice)
		assert.InDelta(t, 20.00, *p.OriginalPrice, 1e-9)
		assert.InDelta(t, 5.00, p.DiscountAmount, 1e-9)
		assert.Equal(t, 25, p.DiscountPercentage)
	})

	t.Run("UndiscountedProduct", func(t *testing.T) {
		cl := newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{
					"total": 1,
					"results": [{
						"id": "p2",
						"name": {"en": "Clean Code"},
						"masterVariant": {
							"prices": [{
								"value": {"centAmount": 2499, "currencyCode": "EUR"}
							}]
						}
					}]
				}`))
			}))

		ps, _, err := cl.SearchProducts(t.Context(), port.ProductQuery{})
		require.NoError(t, err)
		require.Len(t, ps, 1)

		assert.False(t, ps[0].HasDiscount)
		assert.Nil(t, ps[0].OriginalPrice)
		assert.InDelta(t, 24.99, ps[0].Price, 1e-9)
	})
}

func TestStatusMapping(t *testing.T) {
	withStatus := func(code int) *platform.Client {
		return newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", code)
			}))
	}

	t.Run("NotFound", func(t *testing.T) {
		cl := withStatus(http.StatusNotFound)
		_, err := cl.CartByID(t.Context(), "cart-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Conflict", func(t *testing.T) {
		cl := withStatus(http.StatusConflict)
		_, err := cl.UpdateCart(t.Context(), "cart-1", 1, nil)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("ServerError", func(t *testing.T) {
		cl := withStatus(http.StatusBadGateway)
		_, err := cl.CartByID(t.Context(), "cart-1")
		assert.ErrorIs(t, err, platform.ErrUnexpectedStatus)
	})

	t.Run("UnauthorizedLogin", func(t *testing.T) {
		cl := withStatus(http.StatusUnauthorized)
		_, err := cl.AuthenticateCustomer(t.Context(), "a@b.c", "wrong")
		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	})
}

func TestUpdateCart(t *testing.T) {

	t.Run("SerializesVersionAndActions", func(t *testing.T) {
		var gotBody map[string]any
		cl := newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
				_, _ = w.Write([]byte(`{
					"id": "cart-1", "version": 8,
					"lineItems": [],
					"totalPrice": {"centAmount": 0, "currencyCode": "EUR"}
				}`))
			}))

		actions := []port.CartAction{
			{Action: port.ActionAddLineItem, ProductID: "p1", Quantity: 2},
			{Action: port.ActionRemoveLineItem, LineItemID: "li-1"},
		}
		c, err := cl.UpdateCart(t.Context(), "cart-1", 7, actions)
		require.NoError(t, err)
		assert.Equal(t, 8, c.Version)

		assert.EqualValues(t, 7, gotBody["version"])
		raw, ok := gotBody["actions"].([]any)
		require.True(t, ok)
		require.Len(t, raw, 2)

		add := raw[0].(map[string]any)
		assert.Equal(t, "addLineItem", add["action"])
		assert.Equal(t, "p1", add["productId"])
		assert.EqualValues(t, 2, add["quantity"])

		remove := raw[1].(map[string]any)
		assert.Equal(t, "removeLineItem", remove["action"])
		assert.Equal(t, "li-1", remove["lineItemId"])
		assert.NotContains(t, remove, "quantity")
	})

	t.Run("LastDiscountCodeWins", func(t *testing.T) {
		cl := newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{
					"id": "cart-1", "version": 2,
					"lineItems": [{
						"id": "li-1", "productId": "p1",
						"name": {"en": "Atlas Shrugged"},
						"quantity": 2,
						"price": {"value": {"centAmount": 1000, "currencyCode": "EUR"}},
						"totalPrice": {"centAmount": 2000, "currencyCode": "EUR"},
						"variant": {}
					}],
					"totalPrice": {"centAmount": 2000, "currencyCode": "EUR"},
					"discountCodes": [
						{"discountCode": {"id": "pc-1", "code": "OLD"}},
						{"discountCode": {"id": "pc-2", "code": "SALE"}}
					]
				}`))
			}))

		c, err := cl.CartByID(t.Context(), "cart-1")
		require.NoError(t, err)

		assert.Equal(t, 2, c.ItemCount)
		require.Len(t, c.Items, 1)
		assert.Equal(t, "Atlas Shrugged", c.Items[0].Name)
		require.NotNil(t, c.Promo)
		assert.Equal(t, "SALE", c.Promo.Code)
	})
}

func TestPromoCodeByCode(t *testing.T) {

	t.Run("NoResults", func(t *testing.T) {
		cl := newTestClient(t, http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, `code="GONE"`, r.URL.Query().Get("where"))
				_, _ = w.Write([]byte(`{"results":[]}`))
			}))

		_, err := cl.PromoCodeByCode(t.Context(), "GONE")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
