package database

import (
	"context"
	"fmt"
	"time"

	"kiosk-service/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	ExecutedAt time.Time `gorm:"not null"`
}

// TableName keeps the bookkeeping table name stable.
func (SchemaMigration) TableName() string { return "migrations" }

type migration struct {
	name string
	up   func(tx *gorm.DB) error
}

var migrations = []migration{
	{
		name: "001_catalog",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Category{}, &models.CategorySize{}, &models.CategoryIngredient{}, &models.MenuItem{})
		},
	},
	{
		name: "002_orders",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.OrderItemCustomization{})
		},
	},
	{
		name: "003_devices",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Device{})
		},
	},
}

// Migrate applies every migration not yet recorded in the migrations table
// and returns the names it applied.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) ([]string, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []string
	if err := db.Model(&SchemaMigration{}).Pluck("name", &executed).Error; err != nil {
		return nil, fmt.Errorf("failed to list executed migrations: %w", err)
	}
	done := make(map[string]bool, len(executed))
	for _, name := range executed {
		done[name] = true
	}

	var applied []string
	for _, m := range migrations {
		if done[m.name] {
			log.Debug("Migration already executed", zap.String("migration", m.name))
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Name: m.name, ExecutedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		log.Info("Migration applied", zap.String("migration", m.name))
		applied = append(applied, m.name)
	}
	return applied, nil
}
