package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func validCustomerInfo() *CustomerInfo {
	return &CustomerInfo{
		Name:           "Ivan Petrov",
		Phone:          "+7 (912) 345-67-89",
		Email:          "ivan@example.com",
		DeliveryMethod: DeliveryMethodPickup,
		PaymentMethod:  PaymentMethodCard,
	}
}

func TestValidateCustomerInfo(t *testing.T) {
	assert.Equal(t, len(ValidateCustomerInfo(validCustomerInfo())), 0)

	empty := &CustomerInfo{}
	fieldErrors := ValidateCustomerInfo(empty)
	assert.Equal(t, fieldErrors["customerName"], "required")
	assert.Equal(t, fieldErrors["phone"], "required")
	assert.Equal(t, fieldErrors["email"], "required")

	badPhone := validCustomerInfo()
	badPhone.Phone = "12345"
	assert.NotEqual(t, ValidateCustomerInfo(badPhone)["phone"], "")

	badEmail := validCustomerInfo()
	badEmail.Email = "not-an-email"
	assert.NotEqual(t, ValidateCustomerInfo(badEmail)["email"], "")

	// address is required only for delivery
	delivery := validCustomerInfo()
	delivery.DeliveryMethod = DeliveryMethodDelivery
	assert.NotEqual(t, ValidateCustomerInfo(delivery)["deliveryAddress"], "")

	delivery.DeliveryAddress = "Lenina 1, Moscow"
	assert.Equal(t, len(ValidateCustomerInfo(delivery)), 0)
}

func newCheckoutFixture(apiUrl string) (*Checkout, *CartStore, *OrderStore) {
	storage := NewMemoryStorage()
	channel := NewEventChannel()
	cart := NewCartStore(storage, channel)
	orders := NewOrderStore(storage, channel)
	api := NewStorefrontApi(apiUrl)
	return NewCheckout(api, cart, orders), cart, orders
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	checkout, _, _ := newCheckoutFixture("http://localhost:1")

	_, err := checkout.PlaceOrder(validCustomerInfo())
	assert.Equal(t, err, ErrEmptyCart)
}

func TestPlaceOrderValidation(t *testing.T) {
	checkout, cart, _ := newCheckoutFixture("http://localhost:1")
	cart.AddItem(42, 1, ProductTypeTire)

	_, err := checkout.PlaceOrder(&CustomerInfo{})

	validationErr, ok := err.(*ValidationError)
	assert.Equal(t, ok, true)
	assert.NotEqual(t, len(validationErr.Fields), 0)

	// validation failure must not touch the cart
	assert.Equal(t, cart.GetItemCount(), 1)
}

func TestPlaceOrder(t *testing.T) {
	var createArgs *CreateOrderArgs
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/products/by-id/42/"):
			assert.Equal(t, r.URL.Query().Get("product_type"), "tire")
			json.NewEncoder(w).Encode(&Product{
				Id:          42,
				Name:        "Nokian Hakkapeliitta R5",
				ProductType: ProductTypeTire,
				FinalPrice:  8500,
				Brand:       &Brand{Name: "Nokian"},
				MainImage:   &ProductImage{Image: "/media/tire42.jpg"},
				TireDetails: &TireDetails{Width: 205, Profile: 55, Diameter: 16},
			})
		case r.URL.Path == "/orders/create/":
			assert.Equal(t, r.Method, "POST")
			createArgs = &CreateOrderArgs{}
			json.NewDecoder(r.Body).Decode(createArgs)
			json.NewEncoder(w).Encode(&CreateOrderResult{
				Success: true,
				Order: &CreateOrderResultOrder{
					Id:          1001,
					OrderNumber: "PK-2026-1001",
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	checkout, cart, orders := newCheckoutFixture(server.URL)
	cart.AddItem(42, 2, ProductTypeTire)

	order, err := checkout.PlaceOrder(validCustomerInfo())
	assert.Equal(t, err, nil)

	assert.Equal(t, order.Id, "1001")
	assert.Equal(t, order.OrderNumber, "PK-2026-1001")
	assert.Equal(t, order.Status, OrderStatusPending)
	assert.Equal(t, order.Total, 17000.0)
	assert.Equal(t, len(order.Items), 1)
	assert.Equal(t, order.Items[0].Name, "Nokian Hakkapeliitta R5")
	assert.Equal(t, order.Items[0].Brand, "Nokian")
	assert.Equal(t, order.Items[0].Quantity, 2)
	assert.Equal(t, order.Items[0].Size, "205/55 R16")
	assert.Equal(t, order.CustomerInfo.Name, "Ivan Petrov")

	// the request carried the cart lines
	assert.NotEqual(t, createArgs, nil)
	assert.Equal(t, len(createArgs.Items), 1)
	assert.Equal(t, createArgs.Items[0].ProductId, 42)
	assert.Equal(t, createArgs.Items[0].ProductType, ProductTypeTire)
	assert.Equal(t, createArgs.Items[0].Quantity, 2)

	// the receipt is persisted newest-first and the cart is cleared
	assert.Equal(t, orders.GetOrderCount(), 1)
	assert.NotEqual(t, orders.GetOrderById("1001"), nil)
	assert.Equal(t, cart.GetItemCount(), 0)
}

func TestPlaceOrderCreateFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/products/by-id/"):
			json.NewEncoder(w).Encode(&Product{Id: 42, Name: "Tire", FinalPrice: 100})
		case r.URL.Path == "/orders/create/":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "out of stock"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	checkout, cart, orders := newCheckoutFixture(server.URL)
	cart.AddItem(42, 1, ProductTypeTire)

	_, err := checkout.PlaceOrder(validCustomerInfo())

	assert.NotEqual(t, err, nil)
	assert.Equal(t, err.Error(), "out of stock")

	// a failed order keeps the cart and stores no receipt
	assert.Equal(t, cart.GetItemCount(), 1)
	assert.Equal(t, orders.GetOrderCount(), 0)
}

func TestPlaceOrderEnrichmentFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/products/by-id/"):
			// product lookup is down; the order must still go through
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/orders/create/":
			json.NewEncoder(w).Encode(&CreateOrderResult{
				Success: true,
				Order: &CreateOrderResultOrder{
					Id:          1002,
					OrderNumber: "PK-2026-1002",
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	checkout, cart, _ := newCheckoutFixture(server.URL)
	cart.AddItem(42, 1, ProductTypeTire)

	order, err := checkout.PlaceOrder(validCustomerInfo())
	assert.Equal(t, err, nil)

	// the line keeps placeholder detail instead of being dropped
	assert.Equal(t, len(order.Items), 1)
	assert.Equal(t, order.Items[0].Name, "Product 42")
	assert.Equal(t, order.Items[0].Brand, "Unknown")
	assert.Equal(t, order.Items[0].Image, "/placeholder-product.svg")
	assert.Equal(t, order.Total, 0.0)
}

func TestResolveProductType(t *testing.T) {
	// the cart record's type wins
	assert.Equal(t, resolveProductType(
		&CartRecord{ProductType: ProductTypeWheel},
		&Product{ProductType: ProductTypeTire},
	), ProductTypeWheel)

	// then the fetched product's declared type
	assert.Equal(t, resolveProductType(
		&CartRecord{},
		&Product{ProductType: ProductTypeWheel},
	), ProductTypeWheel)

	// then wheel details imply a wheel
	assert.Equal(t, resolveProductType(
		&CartRecord{},
		&Product{WheelDetails: &WheelDetails{Diameter: 16}},
	), ProductTypeWheel)

	// tire is the fallback
	assert.Equal(t, resolveProductType(&CartRecord{}, nil), ProductTypeTire)
}
