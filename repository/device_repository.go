package repository

import (
	"context"
	"time"

	"kiosk-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceRepository defines data access for device liveness records.
type DeviceRepository interface {
	Heartbeat(ctx context.Context, deviceID string, deviceType models.DeviceType, at time.Time) error
	SetStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error
	MarkStale(ctx context.Context, cutoff time.Time) (int64, error)
	FindAll(ctx context.Context) ([]models.Device, error)
	FindByID(ctx context.Context, deviceID string) (*models.Device, error)
}

// GormDeviceRepository implements DeviceRepository using GORM.
type GormDeviceRepository struct {
	db *gorm.DB
}

// NewGormDeviceRepository creates a new GormDeviceRepository.
func NewGormDeviceRepository(db *gorm.DB) DeviceRepository {
	return &GormDeviceRepository{db: db}
}

// Heartbeat upserts the device as online, last seen at.
func (r *GormDeviceRepository) Heartbeat(ctx context.Context, deviceID string, deviceType models.DeviceType, at time.Time) error {
	device := models.Device{
		DeviceID:      deviceID,
		DeviceType:    deviceType,
		LastHeartbeat: at.UTC(),
		Status:        models.DeviceOnline,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"device_type", "last_heartbeat", "status"}),
		}).
		Create(&device).Error
}

// SetStatus flips a known device's status.
func (r *GormDeviceRepository) SetStatus(ctx context.Context, deviceID string, status models.DeviceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Update("status", status).Error
}

// MarkStale flips online devices whose last heartbeat predates cutoff to offline.
func (r *GormDeviceRepository) MarkStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("status = ? AND last_heartbeat < ?", models.DeviceOnline, cutoff.UTC()).
		Update("status", models.DeviceOffline)
	return result.RowsAffected, result.Error
}

// FindAll lists devices ordered by id.
func (r *GormDeviceRepository) FindAll(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.WithContext(ctx).Order("device_id").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// FindByID retrieves a device.
func (r *GormDeviceRepository) FindByID(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}
