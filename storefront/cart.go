package storefront

import (
	"time"
)

// storage key shared with the web storefront. must not change.
const CartStorageKey = "prokolesa_cart"

type ProductType string

const (
	ProductTypeTire  ProductType = "tire"
	ProductTypeWheel ProductType = "wheel"
)

// one cart line. the JSON shape is shared with the web storefront.
// quantity is never persisted as <= 0 - a mutation that would drive it to 0
// deletes the record instead.
type CartRecord struct {
	ProductId   int         `json:"id"`
	Quantity    int         `json:"quantity"`
	AddedAt     time.Time   `json:"addedAt"`
	ProductType ProductType `json:"productType,omitempty"`
}

type CartStore struct {
	store *keyedStore[*CartRecord]
}

func NewCartStore(storage Storage, channel *EventChannel) *CartStore {
	return &CartStore{
		store: newKeyedStore[*CartRecord](
			CartStorageKey,
			EventCartUpdated,
			storage,
			channel,
			cartItemCount,
		),
	}
}

func cartItemCount(items []*CartRecord) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func (self *CartStore) GetItems() []*CartRecord {
	return self.store.GetItems()
}

func (self *CartStore) SetItems(items []*CartRecord) {
	self.store.SetItems(items)
}

// increments quantity when the product is already in the cart.
// the product type is first-write-wins: a later add with an unset type never
// clears one, and a later add with an explicit type backfills a missing one.
func (self *CartStore) AddItem(productId int, quantity int, productType ProductType) {
	self.store.update(func(items []*CartRecord) []*CartRecord {
		for _, item := range items {
			if item.ProductId == productId {
				item.Quantity += quantity
				if productType != "" && item.ProductType == "" {
					item.ProductType = productType
				}
				if item.Quantity <= 0 {
					return removeRecord(items, productId)
				}
				return items
			}
		}
		if quantity <= 0 {
			return items
		}
		return append(items, &CartRecord{
			ProductId:   productId,
			Quantity:    quantity,
			AddedAt:     time.Now().UTC(),
			ProductType: productType,
		})
	})
}

// no-op when the product is not in the cart
func (self *CartStore) RemoveItem(productId int) {
	self.store.update(func(items []*CartRecord) []*CartRecord {
		return removeRecord(items, productId)
	})
}

// sets the quantity exactly. quantity <= 0 removes the record.
func (self *CartStore) UpdateQuantity(productId int, quantity int) {
	self.store.update(func(items []*CartRecord) []*CartRecord {
		for _, item := range items {
			if item.ProductId == productId {
				if quantity <= 0 {
					return removeRecord(items, productId)
				}
				item.Quantity = quantity
				return items
			}
		}
		return items
	})
}

func (self *CartStore) Clear() {
	self.store.Clear()
}

func (self *CartStore) IsInCart(productId int) bool {
	for _, item := range self.store.GetItems() {
		if item.ProductId == productId {
			return true
		}
	}
	return false
}

func (self *CartStore) GetItemQuantity(productId int) int {
	for _, item := range self.store.GetItems() {
		if item.ProductId == productId {
			return item.Quantity
		}
	}
	return 0
}

// sum of quantities, not line count
func (self *CartStore) GetItemCount() int {
	return cartItemCount(self.store.GetItems())
}

func removeRecord(items []*CartRecord, productId int) []*CartRecord {
	filtered := []*CartRecord{}
	for _, item := range items {
		if item.ProductId != productId {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
