package realtime

import (
	"context"
	"sync"
	"time"

	"kiosk-service/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	trackerTimeout = 5 * time.Second
)

// Client is one live device connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	deviceID   string
	deviceType models.DeviceType
	rooms      []string
	closeOnce  sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, deviceID string, deviceType models.DeviceType) *Client {
	rooms := []string{deviceID}
	if room := models.RoomForDevice(deviceType); room != "" && room != deviceID {
		rooms = append(rooms, room)
	}
	return &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuffer),
		deviceID:   deviceID,
		deviceType: deviceType,
		rooms:      rooms,
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// reply queues a message for this client only.
func (c *Client) reply(m Message) {
	msg, err := encode(m)
	if err != nil {
		c.hub.logger.Error("Failed to encode reply", zap.String("event", m.Event), zap.Error(err))
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	c.hub.deliver(c, m.Event, msg)
}

// readPump dispatches inbound messages until the connection fails, then
// disconnects the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("Websocket read failed", zap.String("device_id", c.deviceID), zap.Error(err))
			}
			return
		}
		c.hub.dispatch(c, in)
	}
}

// writePump drains the send channel and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) trackerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), trackerTimeout)
}
