package storefront

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func newTestOrders() *OrderStore {
	return NewOrderStore(NewMemoryStorage(), NewEventChannel())
}

func TestOrdersNewestFirst(t *testing.T) {
	orders := newTestOrders()

	orders.SaveOrder(&StoredOrder{Id: "1", OrderNumber: "PK-1"})
	orders.SaveOrder(&StoredOrder{Id: "2", OrderNumber: "PK-2"})

	stored := orders.GetOrders()
	assert.Equal(t, len(stored), 2)
	assert.Equal(t, stored[0].Id, "2")
	assert.Equal(t, stored[1].Id, "1")
	assert.Equal(t, orders.GetOrderCount(), 2)
}

func TestOrdersGetById(t *testing.T) {
	orders := newTestOrders()

	orders.SaveOrder(&StoredOrder{Id: "1", OrderNumber: "PK-1"})

	order := orders.GetOrderById("1")
	assert.NotEqual(t, order, nil)
	assert.Equal(t, order.OrderNumber, "PK-1")

	assert.Equal(t, orders.GetOrderById("missing"), nil)
}

func TestOrdersUpdateStatus(t *testing.T) {
	orders := newTestOrders()

	orders.SaveOrder(&StoredOrder{Id: "1", Status: OrderStatusPending})
	orders.UpdateOrderStatus("1", OrderStatusCompleted)

	assert.Equal(t, orders.GetOrderById("1").Status, OrderStatusCompleted)

	// unknown id is a no-op
	orders.UpdateOrderStatus("missing", OrderStatusCancelled)
	assert.Equal(t, orders.GetOrderCount(), 1)
}

func TestOrdersRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()

	orders := NewOrderStore(storage, NewEventChannel())
	orders.SaveOrder(&StoredOrder{
		Id:          "1",
		OrderNumber: "PK-1",
		Status:      OrderStatusPending,
		Total:       17000,
		Items: []*StoredOrderItem{
			{ProductId: 42, Name: "Tire", Quantity: 2, Price: 8500},
		},
		CustomerInfo: StoredOrderCustomer{
			Name:  "Ivan Petrov",
			Phone: "+79123456789",
		},
	})

	reopened := NewOrderStore(storage, NewEventChannel())
	order := reopened.GetOrderById("1")
	assert.NotEqual(t, order, nil)
	assert.Equal(t, order.Total, 17000.0)
	assert.Equal(t, order.Items[0].Quantity, 2)
	assert.Equal(t, order.CustomerInfo.Name, "Ivan Petrov")
}

func TestStatusText(t *testing.T) {
	assert.NotEqual(t, StatusText(OrderStatusPending), "")
	assert.NotEqual(t, StatusText(OrderStatusCompleted), "")
	// unknown statuses echo through
	assert.Equal(t, StatusText(OrderStatus("weird")), "weird")
}
