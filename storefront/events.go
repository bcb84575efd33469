package storefront

import (
	"encoding/json"
	"sync"

	"github.com/golang/glog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// event names shared with every client of the same storage.
// these are part of the external contract and must not change.
const (
	EventCartUpdated      = "cart_updated"
	EventFavoritesUpdated = "favorites_updated"
)

// payload delivered to subscribers on every collection replace.
// Items is the JSON snapshot of the full collection as persisted.
type StoreEvent struct {
	Event      string          `json:"event"`
	StorageKey string          `json:"storage_key"`
	Items      json.RawMessage `json:"items"`
	Count      int             `json:"count"`
	Origin     Id              `json:"origin"`
}

type EventFunction func(event *StoreEvent)

// makes a copy of the list on update
type CallbackList[T any] struct {
	mutex       sync.Mutex
	nextId      int
	callbackIds []int
	callbacks   map[int]T
}

func NewCallbackList[T any]() *CallbackList[T] {
	return &CallbackList[T]{
		callbackIds: []int{},
		callbacks:   map[int]T{},
	}
}

func (self *CallbackList[T]) Get() []T {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	out := make([]T, 0, len(self.callbackIds))
	for _, callbackId := range self.callbackIds {
		out = append(out, self.callbacks[callbackId])
	}
	return out
}

func (self *CallbackList[T]) Add(callback T) int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	callbackId := self.nextId
	self.nextId += 1
	self.callbackIds = append(slices.Clone(self.callbackIds), callbackId)
	nextCallbacks := maps.Clone(self.callbacks)
	nextCallbacks[callbackId] = callback
	self.callbacks = nextCallbacks
	return callbackId
}

func (self *CallbackList[T]) Remove(callbackId int) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := slices.Index(self.callbackIds, callbackId)
	if i < 0 {
		// not present
		return
	}
	self.callbackIds = slices.Delete(slices.Clone(self.callbackIds), i, i+1)
	nextCallbacks := maps.Clone(self.callbacks)
	delete(nextCallbacks, callbackId)
	self.callbacks = nextCallbacks
}

// bridges change notifications between processes sharing the same durable storage.
// an Announce made by this instance must never be re-delivered to this instance;
// implementations filter by origin id.
type Transport interface {
	Announce(storageKey string)
	Close()
}

// in-process only. local subscribers are notified synchronously by the
// EventChannel itself, so there is nothing for this transport to carry.
type LocalTransport struct {
}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{}
}

func (self *LocalTransport) Announce(storageKey string) {
}

func (self *LocalTransport) Close() {
}

type eventSource struct {
	event string
	read  func() (json.RawMessage, int)
}

// one per storefront instance. dispatches named store events to subscribers,
// and relays change announcements to/from attached transports.
// subscribers are only notified of future changes - a subscriber that attaches
// after mutations have happened must do its own initial read.
type EventChannel struct {
	instanceId Id

	stateLock      sync.Mutex
	eventCallbacks map[string]*CallbackList[EventFunction]
	sources        map[string]*eventSource
	transports     []Transport
}

func NewEventChannel() *EventChannel {
	return &EventChannel{
		instanceId:     NewId(),
		eventCallbacks: map[string]*CallbackList[EventFunction]{},
		sources:        map[string]*eventSource{},
	}
}

func (self *EventChannel) InstanceId() Id {
	return self.instanceId
}

// returns an unsubscribe func
func (self *EventChannel) Subscribe(event string, callback EventFunction) func() {
	callbacks := self.callbacksForEvent(event)
	callbackId := callbacks.Add(callback)
	return func() {
		callbacks.Remove(callbackId)
	}
}

func (self *EventChannel) callbacksForEvent(event string) *CallbackList[EventFunction] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	callbacks, ok := self.eventCallbacks[event]
	if !ok {
		callbacks = NewCallbackList[EventFunction]()
		self.eventCallbacks[event] = callbacks
	}
	return callbacks
}

// registers how to re-read a store when another process announces a change
// to its storage key
func (self *EventChannel) RegisterSource(storageKey string, event string, read func() (json.RawMessage, int)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.sources[storageKey] = &eventSource{
		event: event,
		read:  read,
	}
}

func (self *EventChannel) AddTransport(transport Transport) func() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.transports = append(slices.Clone(self.transports), transport)
	return func() {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		i := slices.Index(self.transports, transport)
		if 0 <= i {
			self.transports = slices.Delete(slices.Clone(self.transports), i, i+1)
		}
	}
}

// local publish. subscribers run synchronously before this returns,
// then the change is announced to the other processes.
func (self *EventChannel) Publish(event *StoreEvent) {
	event.Origin = self.instanceId
	self.dispatch(event)

	self.stateLock.Lock()
	transports := slices.Clone(self.transports)
	self.stateLock.Unlock()

	for _, transport := range transports {
		transport.Announce(event.StorageKey)
	}
}

// called by transports when another process announced a change.
// re-reads the store from durable storage so that same-process and
// other-process updates are indistinguishable to subscribers.
func (self *EventChannel) RemoteChanged(storageKey string, origin Id) {
	if origin == self.instanceId {
		return
	}

	self.stateLock.Lock()
	source, ok := self.sources[storageKey]
	self.stateLock.Unlock()
	if !ok {
		glog.V(2).Infof("[ch]remote change for unknown key %s\n", storageKey)
		return
	}

	items, count := source.read()
	self.dispatch(&StoreEvent{
		Event:      source.event,
		StorageKey: storageKey,
		Items:      items,
		Count:      count,
		Origin:     origin,
	})
}

func (self *EventChannel) dispatch(event *StoreEvent) {
	callbacks := self.callbacksForEvent(event.Event)
	for _, callback := range callbacks.Get() {
		func(callback EventFunction) {
			HandleError(func() {
				callback(event)
			})
		}(callback)
	}
	glog.V(2).Infof("[ch]%s count = %d\n", event.Event, event.Count)
}
