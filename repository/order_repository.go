package repository

import (
	"context"
	"strconv"
	"time"

	"kiosk-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderDateLayout formats the calendar day an order number belongs to.
const OrderDateLayout = "2006-01-02"

// OrderRepository defines data access for orders.
type OrderRepository interface {
	CreateWithNumber(ctx context.Context, order *models.Order) error
	FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	Transition(ctx context.Context, id uint, from models.OrderStatus, updates map[string]interface{}) (bool, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateWithNumber assigns the next per-day order number and inserts the
// order, its items and their customizations in one transaction.
// order.CreatedAt must be set; its UTC date selects the numbering day.
func (r *GormOrderRepository) CreateWithNumber(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.CreatedAt = order.CreatedAt.UTC()
		order.OrderDate = order.CreatedAt.Format(OrderDateLayout)

		var last int64
		err := tx.Raw(
			"SELECT COALESCE(MAX(CAST(order_number AS INTEGER)), 0) FROM orders WHERE order_date = ?",
			order.OrderDate,
		).Scan(&last).Error
		if err != nil {
			return err
		}
		order.OrderNumber = strconv.FormatInt(last+1, 10)

		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
				return err
			}
			for j := range item.Customizations {
				c := &item.Customizations[j]
				c.OrderItemID = item.ID
				if err := tx.Create(c).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Customizations", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "image_url") })
}

// FindAll lists orders newest first with items and customizations.
func (r *GormOrderRepository) FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DeviceID != "" {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var orders []models.Order
	if err := r.withItems(query).Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByID retrieves an order with items and customizations.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(r.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition applies updates only while the order is still in status from.
// It reports false when the order is missing or has moved on.
func (r *GormOrderRepository) Transition(ctx context.Context, id uint, from models.OrderStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteTerminalBefore removes completed and cancelled orders created before
// cutoff. Customizations and items go first, then the orders.
func (r *GormOrderRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	terminal := []models.OrderStatus{models.StatusCompleted, models.StatusCancelled}
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := func() *gorm.DB {
			return tx.Model(&models.Order{}).Select("id").Where("status IN ? AND created_at < ?", terminal, cutoff.UTC())
		}
		items := tx.Model(&models.OrderItem{}).Select("id").Where("order_id IN (?)", expired())

		if err := tx.Where("order_item_id IN (?)", items).Delete(&models.OrderItemCustomization{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id IN (?)", expired()).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("status IN ? AND created_at < ?", terminal, cutoff.UTC()).Delete(&models.Order{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}
