package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHttpTimeout = 10 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second

func defaultClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}

type apiCallback[R any] interface {
	Result(result R, err error)
}

// for internal use
type simpleApiCallback[R any] struct {
	callback func(result R, err error)
}

func NewApiCallback[R any](callback func(result R, err error)) apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: callback,
	}
}

func NewNoopApiCallback[R any]() apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: func(result R, err error) {},
	}
}

func (self *simpleApiCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}

type ApiCallbackResult[R any] struct {
	Result R
	Error  error
}

func NewBlockingApiCallback[R any]() (apiCallback[R], chan ApiCallbackResult[R]) {
	c := make(chan ApiCallbackResult[R])
	apiCallback := NewApiCallback[R](func(result R, err error) {
		c <- ApiCallbackResult[R]{
			Result: result,
			Error:  err,
		}
	})
	return apiCallback, c
}

type Brand struct {
	Id              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Description     string `json:"description,omitempty"`
	Logo            string `json:"logo,omitempty"`
	Rating          string `json:"rating,omitempty"`
	Country         string `json:"country,omitempty"`
	IsFeatured      bool   `json:"is_featured,omitempty"`
	PopularityScore int    `json:"popularity_score,omitempty"`
	ProductsCount   int    `json:"products_count,omitempty"`
	// tire, wheel, both or accessory
	ProductTypes string `json:"product_types,omitempty"`
}

type ProductImage struct {
	Id        int    `json:"id"`
	Image     string `json:"image"`
	AltText   string `json:"alt_text,omitempty"`
	IsMain    bool   `json:"is_main,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
}

type TireDetails struct {
	Width      int    `json:"width"`
	Profile    int    `json:"profile"`
	Diameter   int    `json:"diameter"`
	LoadIndex  string `json:"load_index,omitempty"`
	SpeedIndex string `json:"speed_index,omitempty"`
	Studded    bool   `json:"studded,omitempty"`
}

type WheelDetails struct {
	Diameter    float64 `json:"diameter"`
	Width       float64 `json:"width"`
	BoltPattern string  `json:"bolt_pattern,omitempty"`
	CenterBore  float64 `json:"center_bore,omitempty"`
	Offset      float64 `json:"offset,omitempty"`
	WheelType   string  `json:"wheel_type,omitempty"`
	Material    string  `json:"material,omitempty"`
	Color       string  `json:"color,omitempty"`
}

type Product struct {
	Id               int           `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Sku              string        `json:"sku,omitempty"`
	Brand            *Brand        `json:"brand,omitempty"`
	ProductType      ProductType   `json:"product_type"`
	Season           string        `json:"season,omitempty"`
	ShortDescription string        `json:"short_description,omitempty"`
	Price            string        `json:"price"`
	OldPrice         string        `json:"old_price,omitempty"`
	FinalPrice       float64       `json:"final_price"`
	DiscountPercent  int           `json:"discount_percent,omitempty"`
	StockQuantity    int           `json:"stock_quantity"`
	IsInStock        bool          `json:"is_in_stock"`
	IsFeatured       bool          `json:"is_featured,omitempty"`
	IsBestseller     bool          `json:"is_bestseller,omitempty"`
	IsNew            bool          `json:"is_new,omitempty"`
	IsOnSale         bool          `json:"is_on_sale,omitempty"`
	Rating           string        `json:"rating,omitempty"`
	ReviewsCount     int           `json:"reviews_count,omitempty"`
	MainImage        *ProductImage `json:"main_image,omitempty"`
	TireDetails      *TireDetails  `json:"tire_details,omitempty"`
	WheelDetails     *WheelDetails `json:"wheel_details,omitempty"`
	SalesCount       int           `json:"sales_count,omitempty"`
}

type ProductListResult struct {
	Count    int        `json:"count"`
	Next     string     `json:"next,omitempty"`
	Previous string     `json:"previous,omitempty"`
	Results  []*Product `json:"results"`
}

type SearchSuggestion struct {
	Type  string `json:"type"`
	Id    int    `json:"id"`
	Title string `json:"title"`
	Url   string `json:"url"`
	Price string `json:"price,omitempty"`
}

type SearchSuggestionsResult struct {
	Suggestions []*SearchSuggestion `json:"suggestions"`
}

type CreateOrderItem struct {
	ProductId   int         `json:"product_id"`
	ProductType ProductType `json:"product_type"`
	Quantity    int         `json:"quantity"`
}

type CreateOrderArgs struct {
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerEmail   string             `json:"customer_email"`
	NeedsCall       bool               `json:"needs_call"`
	DeliveryMethod  string             `json:"delivery_method"`
	PaymentMethod   string             `json:"payment_method"`
	DeliveryAddress string             `json:"delivery_address"`
	Comment         string             `json:"comment,omitempty"`
	Items           []*CreateOrderItem `json:"items"`
}

type CreateOrderResultOrder struct {
	Id          int    `json:"id"`
	OrderNumber string `json:"order_number"`
}

type CreateOrderResult struct {
	Success bool                    `json:"success,omitempty"`
	Message string                  `json:"message,omitempty"`
	Order   *CreateOrderResultOrder `json:"order"`
}

type RemoteOrder struct {
	Id            int     `json:"id"`
	OrderNumber   string  `json:"order_number"`
	Status        string  `json:"status"`
	TotalAmount   float64 `json:"total_amount"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

type GetProductsCallback apiCallback[*ProductListResult]
type GetProductCallback apiCallback[*Product]
type GetBrandsCallback apiCallback[[]*Brand]
type CreateOrderCallback apiCallback[*CreateOrderResult]
type GetOrderCallback apiCallback[*RemoteOrder]
type GetSearchSuggestionsCallback apiCallback[*SearchSuggestionsResult]

// JSON client for the remote product/brand/order API.
// all calls are issued on their own goroutine and deliver the result through
// the callback; the Sync variants block.
type StorefrontApi struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl string
}

func NewStorefrontApi(apiUrl string) *StorefrontApi {
	return NewStorefrontApiWithContext(context.Background(), apiUrl)
}

func NewStorefrontApiWithContext(ctx context.Context, apiUrl string) *StorefrontApi {
	cancelCtx, cancel := context.WithCancel(ctx)

	return &StorefrontApi{
		ctx:    cancelCtx,
		cancel: cancel,
		apiUrl: apiUrl,
	}
}

func (self *StorefrontApi) Close() {
	self.cancel()
}

func (self *StorefrontApi) GetProducts(query url.Values, callback GetProductsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/products/?%s", self.apiUrl, query.Encode()),
		&ProductListResult{},
		callback,
	)
}

func (self *StorefrontApi) GetProductsSync(query url.Values) (*ProductListResult, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%s/products/?%s", self.apiUrl, query.Encode()),
		&ProductListResult{},
		NewNoopApiCallback[*ProductListResult](),
	)
}

func (self *StorefrontApi) GetProduct(slug string, callback GetProductCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/products/%s/", self.apiUrl, slug),
		&Product{},
		callback,
	)
}

func (self *StorefrontApi) GetProductById(productId int, productType ProductType, callback GetProductCallback) {
	go get(
		self.ctx,
		self.productByIdUrl(productId, productType),
		&Product{},
		callback,
	)
}

func (self *StorefrontApi) GetProductByIdSync(productId int, productType ProductType) (*Product, error) {
	return get(
		self.ctx,
		self.productByIdUrl(productId, productType),
		&Product{},
		NewNoopApiCallback[*Product](),
	)
}

func (self *StorefrontApi) productByIdUrl(productId int, productType ProductType) string {
	if productType != "" {
		return fmt.Sprintf("%s/products/by-id/%d/?product_type=%s", self.apiUrl, productId, productType)
	}
	return fmt.Sprintf("%s/products/by-id/%d/", self.apiUrl, productId)
}

func (self *StorefrontApi) GetBrands(productType ProductType, callback GetBrandsCallback) {
	go get(
		self.ctx,
		self.brandsUrl(productType),
		[]*Brand{},
		callback,
	)
}

func (self *StorefrontApi) GetBrandsSync(productType ProductType) ([]*Brand, error) {
	return get(
		self.ctx,
		self.brandsUrl(productType),
		[]*Brand{},
		NewNoopApiCallback[[]*Brand](),
	)
}

func (self *StorefrontApi) brandsUrl(productType ProductType) string {
	if productType != "" {
		return fmt.Sprintf("%s/brands/?product_type=%s", self.apiUrl, productType)
	}
	return fmt.Sprintf("%s/brands/", self.apiUrl)
}

func (self *StorefrontApi) GetFeaturedProducts(callback GetProductsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/products/featured/", self.apiUrl),
		&ProductListResult{},
		callback,
	)
}

func (self *StorefrontApi) GetBestsellerProducts(callback GetProductsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/products/bestsellers/", self.apiUrl),
		&ProductListResult{},
		callback,
	)
}

func (self *StorefrontApi) GetNewProducts(callback GetProductsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/products/new/", self.apiUrl),
		&ProductListResult{},
		callback,
	)
}

func (self *StorefrontApi) GetSaleProducts(callback GetProductsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/products/sale/", self.apiUrl),
		&ProductListResult{},
		callback,
	)
}

func (self *StorefrontApi) GetSearchSuggestions(q string, callback GetSearchSuggestionsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/search/suggestions/?q=%s", self.apiUrl, url.QueryEscape(q)),
		&SearchSuggestionsResult{},
		callback,
	)
}

func (self *StorefrontApi) CreateOrder(createOrder *CreateOrderArgs, callback CreateOrderCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%s/orders/create/", self.apiUrl),
		createOrder,
		&CreateOrderResult{},
		callback,
	)
}

func (self *StorefrontApi) CreateOrderSync(createOrder *CreateOrderArgs) (*CreateOrderResult, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%s/orders/create/", self.apiUrl),
		createOrder,
		&CreateOrderResult{},
		NewNoopApiCallback[*CreateOrderResult](),
	)
}

func (self *StorefrontApi) GetOrder(orderNumber string, callback GetOrderCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%s/orders/%s/", self.apiUrl, orderNumber),
		&RemoteOrder{},
		callback,
	)
}

func post[R any](ctx context.Context, requestUrl string, args any, result R, callback apiCallback[R]) (R, error) {
	var requestBodyBytes []byte
	if args == nil {
		requestBodyBytes = make([]byte, 0)
	} else {
		var err error
		requestBodyBytes, err = json.Marshal(args)
		if err != nil {
			var empty R
			callback.Result(empty, err)
			return empty, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", requestUrl, bytes.NewReader(requestBodyBytes))
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", "application/json")

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		err = errors.New(responseErrorMessage(responseBodyBytes))
		callback.Result(result, err)
		return result, err
	}

	if err != nil {
		callback.Result(result, err)
		return result, err
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	callback.Result(result, nil)
	return result, nil
}

func get[R any](ctx context.Context, requestUrl string, result R, callback apiCallback[R]) (R, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", requestUrl, nil)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", "application/json")

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		err = errors.New(responseErrorMessage(responseBodyBytes))
		callback.Result(result, err)
		return result, err
	}

	if err != nil {
		callback.Result(result, err)
		return result, err
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	callback.Result(result, nil)
	return result, nil
}

// the API reports errors as {"error": "..."}; fall back to the raw body
func responseErrorMessage(responseBodyBytes []byte) string {
	var errorBody struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(responseBodyBytes, &errorBody); err == nil && errorBody.Error != "" {
		return errorBody.Error
	}
	message := strings.TrimSpace(string(responseBodyBytes))
	if message == "" {
		message = "request failed"
	}
	return message
}
