package repository

import (
	"context"

	"kiosk-service/models"

	"gorm.io/gorm"
)

// MenuRepository defines data access for menu items.
type MenuRepository interface {
	FindAll(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error)
	FindByID(ctx context.Context, id uint) (*models.MenuItem, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

// GormMenuRepository implements MenuRepository using GORM.
type GormMenuRepository struct {
	db *gorm.DB
}

// NewGormMenuRepository creates a new GormMenuRepository.
func NewGormMenuRepository(db *gorm.DB) MenuRepository {
	return &GormMenuRepository{db: db}
}

// FindAll lists menu items with their category's display name and icon.
func (r *GormMenuRepository) FindAll(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	query := r.db.WithContext(ctx).Model(&models.MenuItem{}).Preload("Category")
	if filter.BaseType != "" {
		query = query.Where("base_type = ?", filter.BaseType)
	}
	if filter.Available != nil {
		query = query.Where("is_available = ?", *filter.Available)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	var items []models.MenuItem
	if err := query.Order("display_order, name").Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].FillCategory()
	}
	return items, nil
}

// FindByID retrieves a menu item with its category's display fields.
func (r *GormMenuRepository) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		return nil, err
	}
	item.FillCategory()
	return &item, nil
}

// FindByIDs fetches the given items in one query, keyed by id. Missing ids
// are simply absent from the result.
func (r *GormMenuRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	out := make(map[uint]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Select("id", "name", "price", "image_url").
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// Create inserts a new menu item.
func (r *GormMenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	if err := r.db.WithContext(ctx).Omit("Category").Create(item).Error; err != nil {
		return err
	}
	return r.reload(ctx, item)
}

// Update applies updates to item and reloads it.
func (r *GormMenuRepository) Update(ctx context.Context, item *models.MenuItem, updates map[string]interface{}) error {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", item.ID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return r.reload(ctx, item)
}

// Delete removes a menu item.
func (r *GormMenuRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormMenuRepository) reload(ctx context.Context, item *models.MenuItem) error {
	fresh, err := r.FindByID(ctx, item.ID)
	if err != nil {
		return err
	}
	*item = *fresh
	return nil
}
