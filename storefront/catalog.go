package storefront

import (
	"context"
	"net/url"
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/slices"
)

// a refresh of the product list, delivered to result callbacks after every
// committed filter change
type CatalogUpdate struct {
	Products   []*Product
	TotalCount int
	Page       int
	Err        error
}

type CatalogResultFunction func(update *CatalogUpdate)

type CatalogSessionSettings struct {
	// load the brand list on open and on every product type switch
	LoadBrands bool
}

func DefaultCatalogSessionSettings() *CatalogSessionSettings {
	return &CatalogSessionSettings{
		LoadBrands: true,
	}
}

// drives the catalog: owns one FilterState, translates committed transitions
// into product-list requests, and discards stale responses.
//
// every request carries a monotonically increasing generation; a response is
// applied only when its generation is still the latest issued, so a slow
// response to an old filter state can never overwrite a newer one's results.
type CatalogSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	api      *StorefrontApi
	settings *CatalogSessionSettings

	stateLock   sync.Mutex
	filterState *FilterState
	brands      []*Brand
	products    []*Product
	totalCount  int
	generation  uint64

	resultCallbacks *CallbackList[CatalogResultFunction]
}

func NewCatalogSessionWithDefaults(ctx context.Context, api *StorefrontApi, query url.Values) *CatalogSession {
	return NewCatalogSession(ctx, api, query, DefaultCatalogSessionSettings())
}

func NewCatalogSession(
	ctx context.Context,
	api *StorefrontApi,
	query url.Values,
	settings *CatalogSessionSettings,
) *CatalogSession {
	cancelCtx, cancel := context.WithCancel(ctx)

	session := &CatalogSession{
		ctx:             cancelCtx,
		cancel:          cancel,
		api:             api,
		settings:        settings,
		filterState:     NewFilterState(query),
		resultCallbacks: NewCallbackList[CatalogResultFunction](),
	}
	if settings.LoadBrands {
		session.loadBrands()
	}
	return session
}

func (self *CatalogSession) Close() {
	self.cancel()
}

// returns an unsubscribe func
func (self *CatalogSession) AddResultCallback(callback CatalogResultFunction) func() {
	callbackId := self.resultCallbacks.Add(callback)
	return func() {
		self.resultCallbacks.Remove(callbackId)
	}
}

// applies one transition through the reducer. when the committed request
// inputs changed, one product-list request is issued.
func (self *CatalogSession) Apply(transition FilterTransition) {
	reload, productTypeChanged := func() (bool, bool) {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		previousType := self.filterState.ProductType()
		reload := self.filterState.Apply(transition)
		return reload, previousType != self.filterState.ProductType()
	}()

	if productTypeChanged && self.settings.LoadBrands {
		self.loadBrands()
	}
	if reload {
		self.Refresh()
	}
}

// issues a product-list request for the current committed state
func (self *CatalogSession) Refresh() {
	generation, query := func() (uint64, url.Values) {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		self.generation += 1
		query := ComposeProductQuery(
			self.filterState.ProductType(),
			self.filterState.Applied(),
			self.filterState.UrlSearch(),
			self.filterState.SortBy(),
			self.filterState.Page(),
		)
		return self.generation, query
	}()

	glog.V(2).Infof("[catalog][%d]query = %s\n", generation, query.Encode())

	self.api.GetProducts(query, NewApiCallback[*ProductListResult](func(result *ProductListResult, err error) {
		self.complete(generation, result, err)
	}))
}

func (self *CatalogSession) complete(generation uint64, result *ProductListResult, err error) {
	update, ok := func() (*CatalogUpdate, bool) {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		if generation != self.generation {
			glog.V(2).Infof("[catalog][%d]discard stale response (latest = %d)\n", generation, self.generation)
			return nil, false
		}
		if err != nil {
			glog.Infof("[catalog]load error = %s\n", err)
			return &CatalogUpdate{
				Products:   self.products,
				TotalCount: self.totalCount,
				Page:       self.filterState.Page(),
				Err:        err,
			}, true
		}
		self.products = result.Results
		self.totalCount = result.Count
		return &CatalogUpdate{
			Products:   result.Results,
			TotalCount: result.Count,
			Page:       self.filterState.Page(),
		}, true
	}()
	if !ok {
		return
	}

	for _, callback := range self.resultCallbacks.Get() {
		func(callback CatalogResultFunction) {
			HandleError(func() {
				callback(update)
			})
		}(callback)
	}
}

func (self *CatalogSession) loadBrands() {
	productType := self.ProductType()
	self.api.GetBrands(productType, NewApiCallback[[]*Brand](func(brands []*Brand, err error) {
		if err != nil {
			glog.Infof("[catalog]brands load error = %s\n", err)
			return
		}
		self.stateLock.Lock()
		defer self.stateLock.Unlock()
		self.brands = brands
	}))
}

func (self *CatalogSession) ProductType() ProductType {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.filterState.ProductType()
}

func (self *CatalogSession) SortBy() string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.filterState.SortBy()
}

func (self *CatalogSession) Page() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.filterState.Page()
}

func (self *CatalogSession) Temp() TempFilters {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	temp := *self.filterState.Temp()
	temp.Brands = slices.Clone(temp.Brands)
	return temp
}

func (self *CatalogSession) Applied() AppliedFilters {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	applied := *self.filterState.Applied()
	applied.Brands = slices.Clone(applied.Brands)
	return applied
}

// the location query as rewritten by the last committed transition
func (self *CatalogSession) Location() url.Values {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	location := url.Values{}
	for key, values := range self.filterState.Location() {
		location[key] = slices.Clone(values)
	}
	return location
}

// brands filtered to the current product type, the way the panel shows them
func (self *CatalogSession) Brands() []*Brand {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	productType := self.filterState.ProductType()
	brands := []*Brand{}
	for _, brand := range self.brands {
		switch brand.ProductTypes {
		case string(productType), "both":
			brands = append(brands, brand)
		case "":
			brands = append(brands, brand)
		}
	}
	return brands
}

func (self *CatalogSession) Products() ([]*Product, int) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return slices.Clone(self.products), self.totalCount
}
