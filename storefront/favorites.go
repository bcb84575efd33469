package storefront

import (
	"time"
)

// storage key shared with the web storefront. must not change.
const FavoritesStorageKey = "prokolesa_favorites"

// presence is a set-membership fact, there is no quantity
type FavoriteRecord struct {
	ProductId int       `json:"id"`
	AddedAt   time.Time `json:"addedAt"`
}

type FavoritesStore struct {
	store *keyedStore[*FavoriteRecord]
}

func NewFavoritesStore(storage Storage, channel *EventChannel) *FavoritesStore {
	return &FavoritesStore{
		store: newKeyedStore[*FavoriteRecord](
			FavoritesStorageKey,
			EventFavoritesUpdated,
			storage,
			channel,
			func(items []*FavoriteRecord) int {
				return len(items)
			},
		),
	}
}

func (self *FavoritesStore) GetItems() []*FavoriteRecord {
	return self.store.GetItems()
}

func (self *FavoritesStore) SetItems(items []*FavoriteRecord) {
	self.store.SetItems(items)
}

// idempotent - a repeat add does not duplicate and does not publish
func (self *FavoritesStore) AddItem(productId int) {
	if self.IsInFavorites(productId) {
		return
	}
	self.store.update(func(items []*FavoriteRecord) []*FavoriteRecord {
		for _, item := range items {
			if item.ProductId == productId {
				return items
			}
		}
		return append(items, &FavoriteRecord{
			ProductId: productId,
			AddedAt:   time.Now().UTC(),
		})
	})
}

func (self *FavoritesStore) RemoveItem(productId int) {
	self.store.update(func(items []*FavoriteRecord) []*FavoriteRecord {
		filtered := []*FavoriteRecord{}
		for _, item := range items {
			if item.ProductId != productId {
				filtered = append(filtered, item)
			}
		}
		return filtered
	})
}

// returns the new membership state: removes if present, adds if absent
func (self *FavoritesStore) ToggleItem(productId int) bool {
	if self.IsInFavorites(productId) {
		self.RemoveItem(productId)
		return false
	}
	self.AddItem(productId)
	return true
}

func (self *FavoritesStore) Clear() {
	self.store.Clear()
}

func (self *FavoritesStore) IsInFavorites(productId int) bool {
	for _, item := range self.store.GetItems() {
		if item.ProductId == productId {
			return true
		}
	}
	return false
}

func (self *FavoritesStore) GetItemCount() int {
	return len(self.store.GetItems())
}
