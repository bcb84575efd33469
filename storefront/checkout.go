package storefront

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
)

const (
	DeliveryMethodPickup   = "pickup"
	DeliveryMethodDelivery = "delivery"

	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

type CustomerInfo struct {
	Name            string
	Phone           string
	Email           string
	NeedsCall       bool
	DeliveryMethod  string
	PaymentMethod   string
	DeliveryAddress string
	Comment         string
}

var phoneRe = regexp.MustCompile(`^\+?[0-9\s\-()]{10,}$`)
var emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

// field-level, non-fatal validation. an empty map means the form may be
// submitted. address is required only when the delivery method is delivery.
func ValidateCustomerInfo(info *CustomerInfo) map[string]string {
	fieldErrors := map[string]string{}

	if strings.TrimSpace(info.Name) == "" {
		fieldErrors["customerName"] = "required"
	}
	if strings.TrimSpace(info.Phone) == "" {
		fieldErrors["phone"] = "required"
	} else if !phoneRe.MatchString(info.Phone) {
		fieldErrors["phone"] = "invalid phone number"
	}
	if strings.TrimSpace(info.Email) == "" {
		fieldErrors["email"] = "required"
	} else if !emailRe.MatchString(info.Email) {
		fieldErrors["email"] = "invalid email"
	}
	if info.DeliveryMethod == DeliveryMethodDelivery && strings.TrimSpace(info.DeliveryAddress) == "" {
		fieldErrors["deliveryAddress"] = "delivery address required"
	}

	return fieldErrors
}

// validation failed; Fields maps field name to message
type ValidationError struct {
	Fields map[string]string
}

func (self *ValidationError) Error() string {
	fields := []string{}
	for field := range self.Fields {
		fields = append(fields, field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

var ErrEmptyCart = errors.New("cart is empty")

// places an order from the current cart contents.
// on success the remote order is snapshotted into the order store as a local
// receipt (newest first) and the cart is cleared. order creation failure is
// surfaced to the caller; a failed product enrichment is not - the line keeps
// a placeholder.
type Checkout struct {
	api    *StorefrontApi
	cart   *CartStore
	orders *OrderStore
}

func NewCheckout(api *StorefrontApi, cart *CartStore, orders *OrderStore) *Checkout {
	return &Checkout{
		api:    api,
		cart:   cart,
		orders: orders,
	}
}

func (self *Checkout) PlaceOrder(info *CustomerInfo) (*StoredOrder, error) {
	if fieldErrors := ValidateCustomerInfo(info); 0 < len(fieldErrors) {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	items := self.cart.GetItems()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// enrich each line with current product data. a failed fetch keeps the
	// line with placeholder detail rather than dropping it from the order.
	products := map[int]*Product{}
	for _, item := range items {
		product, err := self.api.GetProductByIdSync(item.ProductId, item.ProductType)
		if err != nil {
			glog.Infof("[checkout]product %d fetch error = %s\n", item.ProductId, err)
			continue
		}
		products[item.ProductId] = product
	}

	orderItems := make([]*CreateOrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, &CreateOrderItem{
			ProductId:   item.ProductId,
			ProductType: resolveProductType(item, products[item.ProductId]),
			Quantity:    item.Quantity,
		})
	}

	result, err := self.api.CreateOrderSync(&CreateOrderArgs{
		CustomerName:    info.Name,
		CustomerPhone:   info.Phone,
		CustomerEmail:   info.Email,
		NeedsCall:       info.NeedsCall,
		DeliveryMethod:  info.DeliveryMethod,
		PaymentMethod:   info.PaymentMethod,
		DeliveryAddress: info.DeliveryAddress,
		Comment:         info.Comment,
		Items:           orderItems,
	})
	if err != nil {
		return nil, err
	}
	if result.Order == nil {
		return nil, errors.New("order creation returned no order")
	}

	order := &StoredOrder{
		Id:          strconv.Itoa(result.Order.Id),
		OrderNumber: result.Order.OrderNumber,
		Date:        time.Now().UTC().Format(time.RFC3339),
		Status:      OrderStatusPending,
		Total:       orderTotal(items, products),
		Items:       snapshotItems(items, products),
		CustomerInfo: StoredOrderCustomer{
			Name:           info.Name,
			Phone:          info.Phone,
			Email:          info.Email,
			Address:        info.DeliveryAddress,
			DeliveryMethod: info.DeliveryMethod,
			PaymentMethod:  info.PaymentMethod,
		},
	}
	self.orders.SaveOrder(order)
	self.cart.Clear()

	return order, nil
}

// the cart record's type wins; otherwise the fetched product decides, with
// tire as the fallback
func resolveProductType(item *CartRecord, product *Product) ProductType {
	if item.ProductType != "" {
		return item.ProductType
	}
	if product != nil {
		if product.ProductType != "" {
			return product.ProductType
		}
		if product.WheelDetails != nil {
			return ProductTypeWheel
		}
	}
	return ProductTypeTire
}

func orderTotal(items []*CartRecord, products map[int]*Product) float64 {
	total := 0.0
	for _, item := range items {
		if product, ok := products[item.ProductId]; ok {
			total += product.FinalPrice * float64(item.Quantity)
		}
	}
	return total
}

func snapshotItems(items []*CartRecord, products map[int]*Product) []*StoredOrderItem {
	snapshot := make([]*StoredOrderItem, 0, len(items))
	for _, item := range items {
		orderItem := &StoredOrderItem{
			ProductId: item.ProductId,
			Name:      fmt.Sprintf("Product %d", item.ProductId),
			Brand:     "Unknown",
			Quantity:  item.Quantity,
			Image:     "/placeholder-product.svg",
		}
		if product, ok := products[item.ProductId]; ok {
			orderItem.Name = product.Name
			orderItem.Price = product.FinalPrice
			if product.Brand != nil {
				orderItem.Brand = product.Brand.Name
			}
			if product.MainImage != nil {
				orderItem.Image = product.MainImage.Image
			}
			orderItem.Size = productSize(product)
		}
		snapshot = append(snapshot, orderItem)
	}
	return snapshot
}

func productSize(product *Product) string {
	if product.TireDetails != nil {
		d := product.TireDetails
		return fmt.Sprintf("%d/%d R%d", d.Width, d.Profile, d.Diameter)
	}
	if product.WheelDetails != nil {
		d := product.WheelDetails
		return fmt.Sprintf("%gJ x R%g", d.Width, d.Diameter)
	}
	return ""
}
