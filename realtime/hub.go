package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"kiosk-service/models"

	"go.uber.org/zap"
)

// DefaultSendBuffer is the number of outbound messages a client may have
// queued before further broadcasts to it are dropped.
const DefaultSendBuffer = 64

// DeviceTracker persists device liveness.
type DeviceTracker interface {
	Heartbeat(ctx context.Context, deviceID string, deviceType models.DeviceType) error
	Disconnect(ctx context.Context, deviceID string) error
}

// Hub is the registry of live connections and the rooms they belong to.
// Every client joins a room named after its device id and the room of its
// device type. Broadcasts are at most once: a client whose buffer is full
// misses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	devices    DeviceTracker
	sendBuffer int
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-client outbound buffer size.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// NewHub creates an empty Hub. devices may be nil.
func NewHub(devices DeviceTracker, logger *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		devices:    devices,
		sendBuffer: DefaultSendBuffer,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for _, room := range c.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
}

// unregister removes c and closes its send channel. It reports false when
// c was already gone, and how many other connections share c's device id.
func (h *Hub) unregister(c *Client) (bool, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false, 0
	}
	delete(h.clients, c)
	for _, room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(c.send)
	return true, len(h.rooms[c.deviceID])
}

// Broadcast sends event to every client in rooms, or to every client when
// no room is given. A client in several of the rooms receives it once.
func (h *Hub) Broadcast(event string, payload interface{}, rooms ...string) {
	msg, err := encode(Message{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("Failed to encode broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(rooms) == 0 {
		for c := range h.clients {
			h.deliver(c, event, msg)
		}
		return
	}
	seen := make(map[*Client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			h.deliver(c, event, msg)
		}
	}
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(c *Client, event string, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("Client buffer full, dropping message",
			zap.String("device_id", c.deviceID), zap.String("event", event))
	}
}

// Counts reports live connections overall and per type room.
func (h *Hub) Counts() models.ConnectionCounts {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return models.ConnectionCounts{
		Total:   len(h.clients),
		Kiosks:  len(h.rooms[models.RoomAllKiosks]),
		Admin:   len(h.rooms[models.RoomAdmin]),
		Kitchen: len(h.rooms[models.RoomKitchen]),
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.close()
	}
}

// Message is the wire envelope in both directions.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	AckID string      `json:"ack_id,omitempty"`
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	AckID string          `json:"ack_id"`
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
