package storefront

// storage key shared with the web storefront. must not change.
const OrdersStorageKey = "prokolesa_orders"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type StoredOrderItem struct {
	ProductId int     `json:"id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
	Size      string  `json:"size,omitempty"`
}

type StoredOrderCustomer struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address,omitempty"`
	DeliveryMethod string `json:"deliveryMethod"`
	PaymentMethod  string `json:"paymentMethod"`
}

// a locally persisted receipt: an immutable snapshot of the cart contents and
// prices at the moment the remote order-creation call succeeded. not a live
// reference to current cart or product data.
type StoredOrder struct {
	Id           string              `json:"id"`
	OrderNumber  string              `json:"orderNumber"`
	Date         string              `json:"date"`
	Status       OrderStatus         `json:"status"`
	Total        float64             `json:"total"`
	Items        []*StoredOrderItem  `json:"items"`
	CustomerInfo StoredOrderCustomer `json:"customerInfo"`
}

// newest order first - SaveOrder prepends, so insertion order is
// reverse-chronological
type OrderStore struct {
	store *keyedStore[*StoredOrder]
}

func NewOrderStore(storage Storage, channel *EventChannel) *OrderStore {
	return &OrderStore{
		store: newKeyedStore[*StoredOrder](
			OrdersStorageKey,
			"orders_updated",
			storage,
			channel,
			func(items []*StoredOrder) int {
				return len(items)
			},
		),
	}
}

func (self *OrderStore) GetOrders() []*StoredOrder {
	return self.store.GetItems()
}

func (self *OrderStore) SaveOrder(order *StoredOrder) {
	self.store.update(func(orders []*StoredOrder) []*StoredOrder {
		return append([]*StoredOrder{order}, orders...)
	})
}

func (self *OrderStore) GetOrderById(id string) *StoredOrder {
	for _, order := range self.store.GetItems() {
		if order.Id == id {
			return order
		}
	}
	return nil
}

func (self *OrderStore) UpdateOrderStatus(id string, status OrderStatus) {
	self.store.update(func(orders []*StoredOrder) []*StoredOrder {
		for _, order := range orders {
			if order.Id == id {
				order.Status = status
			}
		}
		return orders
	})
}

func (self *OrderStore) Clear() {
	self.store.Clear()
}

func (self *OrderStore) GetOrderCount() int {
	return len(self.store.GetItems())
}

func StatusText(status OrderStatus) string {
	switch status {
	case OrderStatusPending:
		return "Awaiting processing"
	case OrderStatusProcessing:
		return "In progress"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return string(status)
	}
}
