package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestResponseErrorMessage(t *testing.T) {
	assert.Equal(t, responseErrorMessage([]byte(`{"error": "out of stock"}`)), "out of stock")
	assert.Equal(t, responseErrorMessage([]byte(`server exploded`)), "server exploded")
	assert.Equal(t, responseErrorMessage([]byte(``)), "request failed")
	assert.Equal(t, responseErrorMessage([]byte(`{"detail": "other shape"}`)), `{"detail": "other shape"}`)
}

func TestGetProductsSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/products/")
		assert.Equal(t, r.URL.Query().Get("product_type"), "tire")
		json.NewEncoder(w).Encode(&ProductListResult{
			Count: 1,
			Results: []*Product{
				{Id: 42, Name: "Nokian Hakkapeliitta R5", Price: "8500.00", FinalPrice: 8500},
			},
		})
	}))
	defer server.Close()

	api := NewStorefrontApi(server.URL)
	defer api.Close()

	result, err := api.GetProductsSync(ComposeProductQuery(ProductTypeTire, nil, nil, DefaultSortKey, 1))
	assert.Equal(t, err, nil)
	assert.Equal(t, result.Count, 1)
	assert.Equal(t, result.Results[0].Id, 42)
	assert.Equal(t, result.Results[0].FinalPrice, 8500.0)
}

func TestGetProductsAsync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&ProductListResult{Count: 3})
	}))
	defer server.Close()

	api := NewStorefrontApi(server.URL)
	defer api.Close()

	callback, c := NewBlockingApiCallback[*ProductListResult]()
	api.GetProducts(ComposeProductQuery(ProductTypeTire, nil, nil, DefaultSortKey, 1), callback)

	select {
	case result := <-c:
		assert.Equal(t, result.Error, nil)
		assert.Equal(t, result.Result.Count, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callback")
	}
}

func TestGetBrandsSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/brands/")
		assert.Equal(t, r.URL.Query().Get("product_type"), "wheel")
		json.NewEncoder(w).Encode([]*Brand{
			{Id: 1, Name: "BBS", Slug: "bbs", ProductTypes: "wheel"},
		})
	}))
	defer server.Close()

	api := NewStorefrontApi(server.URL)
	defer api.Close()

	brands, err := api.GetBrandsSync(ProductTypeWheel)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(brands), 1)
	assert.Equal(t, brands[0].Slug, "bbs")
}

func TestApiErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid items"})
	}))
	defer server.Close()

	api := NewStorefrontApi(server.URL)
	defer api.Close()

	_, err := api.CreateOrderSync(&CreateOrderArgs{})
	assert.NotEqual(t, err, nil)
	assert.Equal(t, err.Error(), "invalid items")
}

func TestApiConnectionError(t *testing.T) {
	// nothing listens here
	api := NewStorefrontApi("http://localhost:1")
	defer api.Close()

	_, err := api.GetProductsSync(ComposeProductQuery(ProductTypeTire, nil, nil, DefaultSortKey, 1))
	assert.NotEqual(t, err, nil)
}

func TestSearchSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/search/suggestions/")
		assert.Equal(t, r.URL.Query().Get("q"), "hakka")
		json.NewEncoder(w).Encode(&SearchSuggestionsResult{
			Suggestions: []*SearchSuggestion{
				{Type: "product", Id: 42, Title: "Nokian Hakkapeliitta R5"},
			},
		})
	}))
	defer server.Close()

	api := NewStorefrontApi(server.URL)
	defer api.Close()

	callback, c := NewBlockingApiCallback[*SearchSuggestionsResult]()
	api.GetSearchSuggestions("hakka", callback)

	select {
	case result := <-c:
		assert.Equal(t, result.Error, nil)
		assert.Equal(t, len(result.Result.Suggestions), 1)
		assert.Equal(t, result.Result.Suggestions[0].Id, 42)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callback")
	}
}
