package storefront

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/redis/go-redis/v9"
)

// announcement carried between processes. receivers re-read the store from
// durable storage, so the payload is only the key and the origin.
type syncAnnouncement struct {
	StorageKey string `json:"storage_key"`
	Origin     Id     `json:"origin"`
}

type RedisTransportSettings struct {
	SyncChannel      string
	ReconnectTimeout time.Duration
}

func DefaultRedisTransportSettings() *RedisTransportSettings {
	return &RedisTransportSettings{
		SyncChannel:      "prokolesa_sync",
		ReconnectTimeout: 5 * time.Second,
	}
}

// cross-process bridge over redis pub/sub. fires only in the non-originating
// processes: the event channel drops announcements whose origin is its own
// instance id.
type RedisTransport struct {
	ctx    context.Context
	cancel context.CancelFunc

	client  *redis.Client
	channel *EventChannel

	settings *RedisTransportSettings
}

func NewRedisTransportWithDefaults(
	ctx context.Context,
	client *redis.Client,
	channel *EventChannel,
) *RedisTransport {
	return NewRedisTransport(ctx, client, channel, DefaultRedisTransportSettings())
}

func NewRedisTransport(
	ctx context.Context,
	client *redis.Client,
	channel *EventChannel,
	settings *RedisTransportSettings,
) *RedisTransport {
	cancelCtx, cancel := context.WithCancel(ctx)
	transport := &RedisTransport{
		ctx:      cancelCtx,
		cancel:   cancel,
		client:   client,
		channel:  channel,
		settings: settings,
	}
	go transport.run()
	return transport
}

func (self *RedisTransport) run() {
	defer self.cancel()

	for {
		reconnect := newReconnect(self.settings.ReconnectTimeout)

		pubsub := self.client.Subscribe(self.ctx, self.settings.SyncChannel)
		func() {
			defer pubsub.Close()

			for {
				message, err := pubsub.ReceiveMessage(self.ctx)
				if err != nil {
					glog.Infof("[t]redis receive error = %s\n", err)
					return
				}

				var announcement syncAnnouncement
				if err := json.Unmarshal([]byte(message.Payload), &announcement); err != nil {
					glog.Infof("[t]redis bad announcement = %s\n", err)
					continue
				}
				glog.V(2).Infof("[t]redis<- %s\n", announcement.StorageKey)
				self.channel.RemoteChanged(announcement.StorageKey, announcement.Origin)
			}
		}()

		select {
		case <-self.ctx.Done():
			return
		case <-reconnect.After():
		}
	}
}

// best-effort: a failed publish is logged and dropped, matching the
// cross-process delivery guarantee
func (self *RedisTransport) Announce(storageKey string) {
	origin := self.channel.InstanceId()
	payload, err := json.Marshal(&syncAnnouncement{
		StorageKey: storageKey,
		Origin:     origin,
	})
	if err != nil {
		return
	}
	if err := self.client.Publish(self.ctx, self.settings.SyncChannel, payload).Err(); err != nil {
		glog.Infof("[t]redis publish error = %s\n", err)
	}
	glog.V(2).Infof("[t]redis-> %s\n", storageKey)
}

func (self *RedisTransport) Close() {
	self.cancel()
}
