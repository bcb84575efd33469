package storefront

import (
	"encoding/json"
	"sync"

	"github.com/golang/glog"
)

// a named persisted collection. replaces are atomic: the whole collection is
// marshaled, written to one storage key, and published as one event.
// reads and writes fail soft - the collection data is disposable client-side
// state, so availability wins over strict error surfacing.
type keyedStore[T any] struct {
	storageKey string
	event      string
	storage    Storage
	channel    *EventChannel
	count      func(items []T) int

	// single-writer region for read-modify-write within this process
	stateLock sync.Mutex
}

func newKeyedStore[T any](
	storageKey string,
	event string,
	storage Storage,
	channel *EventChannel,
	count func(items []T) int,
) *keyedStore[T] {
	store := &keyedStore[T]{
		storageKey: storageKey,
		event:      event,
		storage:    storage,
		channel:    channel,
		count:      count,
	}
	channel.RegisterSource(storageKey, event, func() (json.RawMessage, int) {
		items := store.GetItems()
		itemsJson, err := json.Marshal(items)
		if err != nil {
			itemsJson = json.RawMessage("[]")
		}
		return itemsJson, count(items)
	})
	return store
}

func (self *keyedStore[T]) GetItems() []T {
	value, err := self.storage.Read(self.storageKey)
	if err != nil {
		glog.Infof("[store]%s read error = %s\n", self.storageKey, err)
		return []T{}
	}
	if len(value) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(value, &items); err != nil {
		glog.Infof("[store]%s corrupt collection = %s\n", self.storageKey, err)
		return []T{}
	}
	return items
}

// replaces the entire collection. the local notification fires even when
// persistence failed, so the session stays consistent until reload.
// subscribers run synchronously before this returns.
func (self *keyedStore[T]) SetItems(items []T) {
	event, ok := func() (*StoreEvent, bool) {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		return self.persist(items)
	}()
	if ok {
		self.channel.Publish(event)
	}
}

func (self *keyedStore[T]) persist(items []T) (*StoreEvent, bool) {
	itemsJson, err := json.Marshal(items)
	if err != nil {
		glog.Infof("[store]%s marshal error = %s\n", self.storageKey, err)
		return nil, false
	}
	if err := self.storage.Write(self.storageKey, itemsJson); err != nil {
		glog.Infof("[store]%s write error = %s\n", self.storageKey, err)
	}
	return &StoreEvent{
		Event:      self.event,
		StorageKey: self.storageKey,
		Items:      itemsJson,
		Count:      self.count(items),
	}, true
}

// removes the collection inside the single-writer region so that a
// concurrent `update` cannot re-persist the pre-clear items
func (self *keyedStore[T]) Clear() {
	func() {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		if err := self.storage.Remove(self.storageKey); err != nil {
			glog.Infof("[store]%s remove error = %s\n", self.storageKey, err)
		}
	}()
	self.channel.Publish(&StoreEvent{
		Event:      self.event,
		StorageKey: self.storageKey,
		Items:      json.RawMessage("[]"),
		Count:      0,
	})
}

// runs a read-modify-write as one synchronous step within this process.
// the lock is released before subscribers are notified, so callbacks may call
// back into the store. cross-process writes are last-write-wins.
func (self *keyedStore[T]) update(edit func(items []T) []T) {
	event, ok := func() (*StoreEvent, bool) {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		return self.persist(edit(self.GetItems()))
	}()
	if ok {
		self.channel.Publish(event)
	}
}
