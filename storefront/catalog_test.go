package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func newTestCatalogServer(t *testing.T, products []*Product) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/":
			json.NewEncoder(w).Encode(&ProductListResult{
				Count:   len(products),
				Results: products,
			})
		case "/brands/":
			json.NewEncoder(w).Encode([]*Brand{})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func newTestSession(ctx context.Context, apiUrl string, query url.Values) *CatalogSession {
	settings := DefaultCatalogSessionSettings()
	settings.LoadBrands = false
	return NewCatalogSession(ctx, NewStorefrontApiWithContext(ctx, apiUrl), query, settings)
}

func TestCatalogRefresh(t *testing.T) {
	products := []*Product{
		{Id: 1, Name: "Nokian Hakkapeliitta R5", ProductType: ProductTypeTire},
		{Id: 2, Name: "Michelin X-Ice Snow", ProductType: ProductTypeTire},
	}
	server := newTestCatalogServer(t, products)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newTestSession(ctx, server.URL, nil)
	defer session.Close()

	updates := make(chan *CatalogUpdate, 1)
	remove := session.AddResultCallback(func(update *CatalogUpdate) {
		updates <- update
	})
	defer remove()

	session.Refresh()

	select {
	case update := <-updates:
		assert.Equal(t, update.Err, nil)
		assert.Equal(t, update.TotalCount, 2)
		assert.Equal(t, len(update.Products), 2)
		assert.Equal(t, update.Products[0].Name, "Nokian Hakkapeliitta R5")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for catalog update")
	}

	sessionProducts, totalCount := session.Products()
	assert.Equal(t, len(sessionProducts), 2)
	assert.Equal(t, totalCount, 2)
}

func TestCatalogApplyCommitTriggersRequest(t *testing.T) {
	var requested url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Query()
		json.NewEncoder(w).Encode(&ProductListResult{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newTestSession(ctx, server.URL, nil)
	defer session.Close()

	updates := make(chan *CatalogUpdate, 1)
	remove := session.AddResultCallback(func(update *CatalogUpdate) {
		updates <- update
	})
	defer remove()

	session.Apply(Edit{Field: FieldSeason, Value: "winter"})
	session.Apply(ApplyFilters{})

	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for catalog update")
	}

	assert.Equal(t, requested.Get("season"), "winter")
	assert.Equal(t, requested.Get("product_type"), "tire")
	assert.Equal(t, requested.Get("ordering"), DefaultSortKey)
}

func TestCatalogStaleResponseDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newTestSession(ctx, "http://localhost:1", nil)
	defer session.Close()

	var updateCount int
	var lastUpdate *CatalogUpdate
	remove := session.AddResultCallback(func(update *CatalogUpdate) {
		updateCount += 1
		lastUpdate = update
	})
	defer remove()

	// two requests in flight; the older response arrives last
	session.stateLock.Lock()
	session.generation = 2
	session.stateLock.Unlock()

	session.complete(2, &ProductListResult{
		Count:   1,
		Results: []*Product{{Id: 2, Name: "current"}},
	}, nil)
	session.complete(1, &ProductListResult{
		Count:   1,
		Results: []*Product{{Id: 1, Name: "stale"}},
	}, nil)

	assert.Equal(t, updateCount, 1)
	assert.Equal(t, lastUpdate.Products[0].Name, "current")

	products, _ := session.Products()
	assert.Equal(t, products[0].Name, "current")
}

func TestCatalogErrorKeepsProducts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newTestSession(ctx, "http://localhost:1", nil)
	defer session.Close()

	session.stateLock.Lock()
	session.generation = 1
	session.products = []*Product{{Id: 1, Name: "kept"}}
	session.totalCount = 1
	session.stateLock.Unlock()

	var received *CatalogUpdate
	remove := session.AddResultCallback(func(update *CatalogUpdate) {
		received = update
	})
	defer remove()

	session.complete(1, nil, errors.New("connection refused"))

	// the error is surfaced but the last good products stay
	assert.NotEqual(t, received, nil)
	assert.NotEqual(t, received.Err, nil)
	assert.Equal(t, received.Products[0].Name, "kept")

	products, totalCount := session.Products()
	assert.Equal(t, products[0].Name, "kept")
	assert.Equal(t, totalCount, 1)
}

func TestCatalogSwitchProductType(t *testing.T) {
	server := newTestCatalogServer(t, []*Product{})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := newTestSession(ctx, server.URL, nil)
	defer session.Close()

	updates := make(chan *CatalogUpdate, 1)
	remove := session.AddResultCallback(func(update *CatalogUpdate) {
		updates <- update
	})
	defer remove()

	session.Apply(SwitchProductType{ProductType: ProductTypeWheel})

	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for catalog update")
	}

	assert.Equal(t, session.ProductType(), ProductTypeWheel)
	assert.Equal(t, session.Location().Get("product_type"), "wheel")
}
