package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeviceType is the role a connected device plays.
type DeviceType string

const (
	DeviceKiosk   DeviceType = "kiosk"
	DeviceAdmin   DeviceType = "admin"
	DeviceKitchen DeviceType = "kitchen"
)

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceKiosk, DeviceAdmin, DeviceKitchen:
		return true
	}
	return false
}

// DeviceStatus is the liveness reading of a device.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceOffline DeviceStatus = "offline"
)

// Device is the persisted liveness record of a kiosk, admin or kitchen screen.
type Device struct {
	DeviceID      string       `gorm:"primaryKey;type:varchar(100)" json:"device_id"`
	DeviceType    DeviceType   `gorm:"type:varchar(20);not null" json:"device_type"`
	LastHeartbeat time.Time    `gorm:"not null;index" json:"last_heartbeat"`
	Status        DeviceStatus `gorm:"type:varchar(10);not null" json:"status"`
}

// SalesReport is the payload of GET /api/reports/sales.
type SalesReport struct {
	Total    int64                 `json:"total"`
	Revenue  decimal.Decimal       `json:"revenue"`
	ByStatus map[OrderStatus]int64 `json:"by_status"`
}

// ConnectionCounts is the number of live connections overall and per room.
type ConnectionCounts struct {
	Total   int `json:"total"`
	Kiosks  int `json:"kiosks"`
	Admin   int `json:"admin"`
	Kitchen int `json:"kitchen"`
}

// Health is the payload of GET /api/health.
type Health struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    float64          `json:"uptime"`
	Version   string           `json:"version"`
	Database  string           `json:"database"`
	Devices   ConnectionCounts `json:"devices"`
}
