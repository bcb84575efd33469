package storefront

import (
	"context"
	"net/url"

	"github.com/golang/glog"

	"github.com/redis/go-redis/v9"
)

type StorefrontSettings struct {
	ApiUrl string
	// nil means in-memory storage
	Storage Storage
	// optional cross-process transports, attached to the event channel
	Transports []Transport
}

func DefaultStorefrontSettings() *StorefrontSettings {
	return &StorefrontSettings{
		ApiUrl: DefaultApiUrl,
	}
}

// the root object that owns storage, the event channel and the stores.
// everything hangs off an instance instead of package globals so that tests
// and multi-tenant embedders can run several isolated storefronts.
type Storefront struct {
	ctx    context.Context
	cancel context.CancelFunc

	storage Storage
	channel *EventChannel
	api     *StorefrontApi

	cart      *CartStore
	favorites *FavoritesStore
	orders    *OrderStore

	removeTransports []func()
	transports       []Transport

	settings *StorefrontSettings
}

func NewStorefrontWithDefaults(ctx context.Context) *Storefront {
	return NewStorefront(ctx, DefaultStorefrontSettings())
}

func NewStorefront(ctx context.Context, settings *StorefrontSettings) *Storefront {
	cancelCtx, cancel := context.WithCancel(ctx)

	storage := settings.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}

	channel := NewEventChannel()
	storefront := &Storefront{
		ctx:       cancelCtx,
		cancel:    cancel,
		storage:   storage,
		channel:   channel,
		api:       NewStorefrontApiWithContext(cancelCtx, settings.ApiUrl),
		cart:      NewCartStore(storage, channel),
		favorites: NewFavoritesStore(storage, channel),
		orders:    NewOrderStore(storage, channel),
		settings:  settings,
	}
	for _, transport := range settings.Transports {
		storefront.AddTransport(transport)
	}
	return storefront
}

// builds a storefront from the environment. file, sqlite and redis storage
// are tried in that order; a backend that fails to open is logged and
// skipped so that the storefront always comes up.
func NewStorefrontFromEnv(ctx context.Context) *Storefront {
	env := LoadEnvSettings()

	settings := DefaultStorefrontSettings()
	settings.ApiUrl = env.ApiUrl

	if env.StorageDir != "" {
		storage, err := NewFileStorage(env.StorageDir)
		if err == nil {
			settings.Storage = storage
		} else {
			glog.Infof("[sf]file storage unavailable = %s\n", err)
		}
	}
	if settings.Storage == nil && env.SqlitePath != "" {
		storage, err := NewSqliteStorage(env.SqlitePath)
		if err == nil {
			settings.Storage = storage
		} else {
			glog.Infof("[sf]sqlite storage unavailable = %s\n", err)
		}
	}

	var redisClient *redis.Client
	if env.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: env.RedisAddr,
		})
	}
	if settings.Storage == nil && redisClient != nil {
		settings.Storage = NewRedisStorage(ctx, redisClient)
	}

	storefront := NewStorefront(ctx, settings)

	if redisClient != nil {
		storefront.AddTransport(NewRedisTransportWithDefaults(
			storefront.ctx,
			redisClient,
			storefront.channel,
		))
	}
	if env.SyncUrl != "" {
		storefront.AddTransport(NewSyncTransportWithDefaults(
			storefront.ctx,
			env.SyncUrl,
			storefront.channel,
		))
	}

	return storefront
}

func (self *Storefront) AddTransport(transport Transport) {
	remove := self.channel.AddTransport(transport)
	self.removeTransports = append(self.removeTransports, remove)
	self.transports = append(self.transports, transport)
}

func (self *Storefront) Channel() *EventChannel {
	return self.channel
}

func (self *Storefront) Api() *StorefrontApi {
	return self.api
}

func (self *Storefront) Cart() *CartStore {
	return self.cart
}

func (self *Storefront) Favorites() *FavoritesStore {
	return self.favorites
}

func (self *Storefront) Orders() *OrderStore {
	return self.orders
}

func (self *Storefront) OpenCartBinding() *CartBinding {
	return NewCartBinding(self.cart, self.channel)
}

func (self *Storefront) OpenFavoritesBinding() *FavoritesBinding {
	return NewFavoritesBinding(self.favorites, self.channel)
}

// opens a catalog session seeded from a url query, e.g. the params of a
// catalog page the user landed on
func (self *Storefront) OpenCatalog(query url.Values) *CatalogSession {
	return NewCatalogSessionWithDefaults(self.ctx, self.api, query)
}

func (self *Storefront) NewCheckout() *Checkout {
	return NewCheckout(self.api, self.cart, self.orders)
}

func (self *Storefront) Close() {
	self.cancel()
	for _, remove := range self.removeTransports {
		remove()
	}
	for _, transport := range self.transports {
		transport.Close()
	}
}
