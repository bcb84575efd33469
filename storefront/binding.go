package storefront

import (
	"encoding/json"
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/slices"
)

type CartChangeFunction func(items []*CartRecord, count int)

// subscribes a consumer to the cart store: does the initial read on
// construction (the channel never replays history), keeps a current snapshot
// across local mutations, other-process mutations and process start, and
// exposes the store's mutators.
type CartBinding struct {
	cart *CartStore

	stateLock sync.Mutex
	items     []*CartRecord

	changeCallbacks *CallbackList[CartChangeFunction]
	unsubscribe     func()
}

func NewCartBinding(cart *CartStore, channel *EventChannel) *CartBinding {
	binding := &CartBinding{
		cart:            cart,
		items:           cart.GetItems(),
		changeCallbacks: NewCallbackList[CartChangeFunction](),
	}
	binding.unsubscribe = channel.Subscribe(EventCartUpdated, binding.storeChanged)
	return binding
}

func (self *CartBinding) storeChanged(event *StoreEvent) {
	var items []*CartRecord
	if err := json.Unmarshal(event.Items, &items); err != nil {
		glog.Infof("[cart]event decode error = %s\n", err)
		return
	}

	self.stateLock.Lock()
	self.items = items
	self.stateLock.Unlock()

	for _, callback := range self.changeCallbacks.Get() {
		func(callback CartChangeFunction) {
			HandleError(func() {
				callback(items, event.Count)
			})
		}(callback)
	}
}

// returns an unsubscribe func
func (self *CartBinding) AddChangeCallback(callback CartChangeFunction) func() {
	callbackId := self.changeCallbacks.Add(callback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *CartBinding) Items() []*CartRecord {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return slices.Clone(self.items)
}

// sum of quantities
func (self *CartBinding) TotalItems() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return cartItemCount(self.items)
}

func (self *CartBinding) UniqueItems() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return len(self.items)
}

func (self *CartBinding) ItemQuantity(productId int) int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	for _, item := range self.items {
		if item.ProductId == productId {
			return item.Quantity
		}
	}
	return 0
}

func (self *CartBinding) IsInCart(productId int) bool {
	return 0 < self.ItemQuantity(productId)
}

func (self *CartBinding) AddToCart(productId int, quantity int, productType ProductType) {
	self.cart.AddItem(productId, quantity, productType)
}

func (self *CartBinding) RemoveFromCart(productId int) {
	self.cart.RemoveItem(productId)
}

func (self *CartBinding) UpdateQuantity(productId int, quantity int) {
	self.cart.UpdateQuantity(productId, quantity)
}

func (self *CartBinding) ClearCart() {
	self.cart.Clear()
}

func (self *CartBinding) Close() {
	self.unsubscribe()
}

type FavoritesChangeFunction func(items []*FavoriteRecord, count int)

type FavoritesBinding struct {
	favorites *FavoritesStore

	stateLock sync.Mutex
	items     []*FavoriteRecord

	changeCallbacks *CallbackList[FavoritesChangeFunction]
	unsubscribe     func()
}

func NewFavoritesBinding(favorites *FavoritesStore, channel *EventChannel) *FavoritesBinding {
	binding := &FavoritesBinding{
		favorites:       favorites,
		items:           favorites.GetItems(),
		changeCallbacks: NewCallbackList[FavoritesChangeFunction](),
	}
	binding.unsubscribe = channel.Subscribe(EventFavoritesUpdated, binding.storeChanged)
	return binding
}

func (self *FavoritesBinding) storeChanged(event *StoreEvent) {
	var items []*FavoriteRecord
	if err := json.Unmarshal(event.Items, &items); err != nil {
		glog.Infof("[favorites]event decode error = %s\n", err)
		return
	}

	self.stateLock.Lock()
	self.items = items
	self.stateLock.Unlock()

	for _, callback := range self.changeCallbacks.Get() {
		func(callback FavoritesChangeFunction) {
			HandleError(func() {
				callback(items, event.Count)
			})
		}(callback)
	}
}

// returns an unsubscribe func
func (self *FavoritesBinding) AddChangeCallback(callback FavoritesChangeFunction) func() {
	callbackId := self.changeCallbacks.Add(callback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *FavoritesBinding) Items() []*FavoriteRecord {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return slices.Clone(self.items)
}

func (self *FavoritesBinding) TotalItems() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return len(self.items)
}

func (self *FavoritesBinding) IsFavorite(productId int) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	for _, item := range self.items {
		if item.ProductId == productId {
			return true
		}
	}
	return false
}

func (self *FavoritesBinding) AddToFavorites(productId int) {
	self.favorites.AddItem(productId)
}

func (self *FavoritesBinding) RemoveFromFavorites(productId int) {
	self.favorites.RemoveItem(productId)
}

// returns the new membership state
func (self *FavoritesBinding) ToggleFavorite(productId int) bool {
	return self.favorites.ToggleItem(productId)
}

func (self *FavoritesBinding) ClearFavorites() {
	self.favorites.Clear()
}

func (self *FavoritesBinding) Close() {
	self.unsubscribe()
}
