package models

// Broadcast rooms.
const (
	RoomAllKiosks = "all-kiosks"
	RoomAdmin     = "admin"
	RoomKitchen   = "kitchen"
)

// RoomForDevice returns the type-scoped room a device joins.
func RoomForDevice(t DeviceType) string {
	switch t {
	case DeviceKiosk:
		return RoomAllKiosks
	case DeviceAdmin:
		return RoomAdmin
	case DeviceKitchen:
		return RoomKitchen
	}
	return ""
}

// Server to client events.
const (
	EventConnected           = "connected"
	EventDeviceOnline        = "device:online"
	EventDeviceOffline       = "device:offline"
	EventOrderNew            = "order:new"
	EventOrderConfirmed      = "order:confirmed"
	EventOrderStatusChanged  = "order:status-changed"
	EventMenuItemUpdated     = "menu:item-updated"
	EventMenuItemAvailable   = "menu:item-available"
	EventMenuItemUnavailable = "menu:item-unavailable"
)

// Client to server events.
const (
	EventHeartbeat              = "heartbeat"
	EventOrderCreate            = "order:create"
	EventOrderUpdateStatus      = "order:update-status"
	EventMenuUpdate             = "menu:update"
	EventMenuToggleAvailability = "menu:toggle-availability"
)

// AvailabilityEvent is broadcast when an item is switched on or off.
type AvailabilityEvent struct {
	ItemID   uint   `json:"item_id"`
	ItemName string `json:"item_name"`
}
