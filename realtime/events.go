package realtime

import (
	"encoding/json"
	"time"

	"kiosk-service/models"

	"go.uber.org/zap"
)

// EventAck answers a client message that carried an ack_id.
const EventAck = "ack"

type connectedPayload struct {
	DeviceID         string    `json:"device_id"`
	ServerTime       time.Time `json:"server_time"`
	ConnectedDevices int       `json:"connected_devices"`
}

type presencePayload struct {
	DeviceID   string            `json:"device_id"`
	DeviceType models.DeviceType `json:"device_type"`
	Timestamp  time.Time         `json:"timestamp"`
}

type ackPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// statusUpdate is relayed as-is; ids and numbers are whatever the client sent.
type statusUpdate struct {
	OrderID     json.RawMessage `json:"order_id"`
	OrderNumber json.RawMessage `json:"order_number"`
	OldStatus   string          `json:"old_status"`
	NewStatus   string          `json:"new_status"`
	Timestamp   time.Time       `json:"timestamp"`
}

type availabilityToggle struct {
	ItemID      uint   `json:"item_id"`
	ItemName    string `json:"item_name"`
	IsAvailable bool   `json:"is_available"`
}

// connect registers c, greets it and tells the admin room it is online.
func (h *Hub) connect(c *Client) {
	h.register(c)
	h.logger.Info("Device connected", zap.String("device_id", c.deviceID), zap.String("device_type", string(c.deviceType)))

	now := h.now().UTC()
	c.reply(Message{Event: models.EventConnected, Data: connectedPayload{
		DeviceID:         c.deviceID,
		ServerTime:       now,
		ConnectedDevices: h.Counts().Total,
	}})
	h.Broadcast(models.EventDeviceOnline, presencePayload{
		DeviceID: c.deviceID, DeviceType: c.deviceType, Timestamp: now,
	}, models.RoomAdmin)
	h.heartbeat(c)
}

// disconnect unregisters c. The device goes offline only when c was its
// last connection; a device that already reconnected stays online.
func (h *Hub) disconnect(c *Client) {
	removed, remaining := h.unregister(c)
	if !removed {
		return
	}
	if remaining > 0 {
		h.logger.Info("Stale connection closed", zap.String("device_id", c.deviceID), zap.Int("connections", remaining))
		return
	}
	h.logger.Info("Device disconnected", zap.String("device_id", c.deviceID))
	h.Broadcast(models.EventDeviceOffline, presencePayload{
		DeviceID: c.deviceID, DeviceType: c.deviceType, Timestamp: h.now().UTC(),
	}, models.RoomAdmin)

	if h.devices != nil {
		ctx, cancel := h.trackerContext()
		defer cancel()
		if err := h.devices.Disconnect(ctx, c.deviceID); err != nil {
			h.logger.Error("Failed to mark device offline", zap.String("device_id", c.deviceID), zap.Error(err))
		}
	}
}

func (h *Hub) heartbeat(c *Client) {
	if h.devices == nil {
		return
	}
	ctx, cancel := h.trackerContext()
	defer cancel()
	// the tracker logs its own failures
	_ = h.devices.Heartbeat(ctx, c.deviceID, c.deviceType)
}

// dispatch handles one inbound client message.
func (h *Hub) dispatch(c *Client, in inbound) {
	switch in.Event {
	case models.EventHeartbeat:
		h.heartbeat(c)

	case models.EventOrderCreate:
		h.Broadcast(models.EventOrderNew, in.Data, models.RoomKitchen, models.RoomAdmin)
		h.ack(c, in, nil)

	case models.EventOrderUpdateStatus:
		var upd statusUpdate
		if err := json.Unmarshal(in.Data, &upd); err != nil {
			h.ack(c, in, err)
			return
		}
		upd.Timestamp = h.now().UTC()
		h.Broadcast(models.EventOrderStatusChanged, upd)
		h.ack(c, in, nil)

	case models.EventMenuUpdate:
		h.Broadcast(models.EventMenuItemUpdated, in.Data, models.RoomAllKiosks)

	case models.EventMenuToggleAvailability:
		var t availabilityToggle
		if err := json.Unmarshal(in.Data, &t); err != nil {
			h.logger.Warn("Malformed availability toggle", zap.String("device_id", c.deviceID), zap.Error(err))
			return
		}
		event := models.EventMenuItemUnavailable
		if t.IsAvailable {
			event = models.EventMenuItemAvailable
		}
		h.Broadcast(event, models.AvailabilityEvent{ItemID: t.ItemID, ItemName: t.ItemName}, models.RoomAllKiosks)

	default:
		h.logger.Debug("Ignoring unknown event", zap.String("device_id", c.deviceID), zap.String("event", in.Event))
	}
}

func (h *Hub) ack(c *Client, in inbound, err error) {
	if in.AckID == "" {
		return
	}
	payload := ackPayload{Success: err == nil}
	if err != nil {
		payload.Error = err.Error()
	}
	c.reply(Message{Event: EventAck, Data: payload, AckID: in.AckID})
}
