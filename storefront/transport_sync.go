package storefront

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/gorilla/websocket"
)

type SyncTransportSettings struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingTimeout      time.Duration
	ReconnectTimeout time.Duration
	AnnounceBuffer   int
}

func DefaultSyncTransportSettings() *SyncTransportSettings {
	return &SyncTransportSettings{
		HandshakeTimeout: 15 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadTimeout:      30 * time.Second,
		PingTimeout:      15 * time.Second,
		ReconnectTimeout: 5 * time.Second,
		AnnounceBuffer:   32,
	}
}

// cross-process bridge over a websocket relay. every connected client gets
// every announcement; the event channel drops the ones it originated.
type SyncTransport struct {
	ctx    context.Context
	cancel context.CancelFunc

	syncUrl string
	channel *EventChannel

	send chan *syncAnnouncement

	settings *SyncTransportSettings
}

func NewSyncTransportWithDefaults(
	ctx context.Context,
	syncUrl string,
	channel *EventChannel,
) *SyncTransport {
	return NewSyncTransport(ctx, syncUrl, channel, DefaultSyncTransportSettings())
}

func NewSyncTransport(
	ctx context.Context,
	syncUrl string,
	channel *EventChannel,
	settings *SyncTransportSettings,
) *SyncTransport {
	cancelCtx, cancel := context.WithCancel(ctx)
	transport := &SyncTransport{
		ctx:      cancelCtx,
		cancel:   cancel,
		syncUrl:  syncUrl,
		channel:  channel,
		send:     make(chan *syncAnnouncement, settings.AnnounceBuffer),
		settings: settings,
	}
	go transport.run()
	return transport
}

func (self *SyncTransport) run() {
	defer self.cancel()

	for {
		reconnect := newReconnect(self.settings.ReconnectTimeout)

		self.runOnce()

		select {
		case <-self.ctx.Done():
			return
		case <-reconnect.After():
		}
	}
}

// one connection lifetime. returns on any read or write error and the
// caller reconnects.
func (self *SyncTransport) runOnce() {
	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	dialer := &websocket.Dialer{
		HandshakeTimeout: self.settings.HandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(handleCtx, self.syncUrl, nil)
	if err != nil {
		glog.Infof("[t]sync connect error = %s\n", err)
		return
	}
	defer ws.Close()

	go func() {
		defer handleCancel()

		for {
			select {
			case <-handleCtx.Done():
				return
			case announcement := <-self.send:
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteJSON(announcement); err != nil {
					glog.Infof("[t]sync write error = %s\n", err)
					return
				}
				glog.V(2).Infof("[t]sync-> %s\n", announcement.StorageKey)
			case <-time.After(self.settings.PingTimeout):
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
					glog.Infof("[t]sync ping error = %s\n", err)
					return
				}
			}
		}
	}()

	for {
		select {
		case <-handleCtx.Done():
			return
		default:
		}

		ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		_, message, err := ws.ReadMessage()
		if err != nil {
			glog.Infof("[t]sync read error = %s\n", err)
			return
		}

		var announcement syncAnnouncement
		if err := json.Unmarshal(message, &announcement); err != nil {
			glog.Infof("[t]sync bad announcement = %s\n", err)
			continue
		}
		glog.V(2).Infof("[t]sync<- %s\n", announcement.StorageKey)
		self.channel.RemoteChanged(announcement.StorageKey, announcement.Origin)
	}
}

// best-effort: announcements made while disconnected or with a full buffer
// are dropped. receivers converge on the next announcement because they
// re-read the full collection from storage.
func (self *SyncTransport) Announce(storageKey string) {
	announcement := &syncAnnouncement{
		StorageKey: storageKey,
		Origin:     self.channel.InstanceId(),
	}
	select {
	case self.send <- announcement:
	default:
		glog.Infof("[t]sync drop %s (buffer full)\n", storageKey)
	}
}

func (self *SyncTransport) Close() {
	self.cancel()
}
