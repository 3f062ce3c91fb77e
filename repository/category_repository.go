package repository

import (
	"context"

	"kiosk-service/models"

	"gorm.io/gorm"
)

// CategoryRepository defines data access for categories and their sizes and ingredients.
type CategoryRepository interface {
	FindAll(ctx context.Context, active *bool) ([]models.Category, error)
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	LoadOptions(ctx context.Context, categories []models.Category, activeOnly bool) error
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	CountMenuItems(ctx context.Context, id uint) (int64, error)
	Delete(ctx context.Context, id uint) error

	FindSize(ctx context.Context, categoryID, sizeID uint) (*models.CategorySize, error)
	CreateSize(ctx context.Context, size *models.CategorySize) error
	UpdateSize(ctx context.Context, size *models.CategorySize, updates map[string]interface{}) error
	DeleteSize(ctx context.Context, size *models.CategorySize) error

	FindIngredient(ctx context.Context, categoryID, ingredientID uint) (*models.CategoryIngredient, error)
	CreateIngredient(ctx context.Context, ingredient *models.CategoryIngredient) error
	UpdateIngredient(ctx context.Context, ingredient *models.CategoryIngredient, updates map[string]interface{}) error
	DeleteIngredient(ctx context.Context, ingredient *models.CategoryIngredient) error
}

// GormCategoryRepository implements CategoryRepository using GORM.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository.
func NewGormCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindAll lists categories by display order, optionally filtered on is_active.
func (r *GormCategoryRepository) FindAll(ctx context.Context, active *bool) ([]models.Category, error) {
	var categories []models.Category
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}
	if err := query.Order("display_order, id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByID retrieves a category without its options.
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// LoadOptions fills Sizes and Ingredients for the customizable and
// build-your-own categories in the slice, two queries for the whole batch.
// Other categories get empty option lists.
func (r *GormCategoryRepository) LoadOptions(ctx context.Context, categories []models.Category, activeOnly bool) error {
	index := make(map[uint]int)
	var ids []uint
	for i := range categories {
		categories[i].Sizes = []models.CategorySize{}
		categories[i].Ingredients = []models.CategoryIngredient{}
		if categories[i].HasOptions() {
			index[categories[i].ID] = i
			ids = append(ids, categories[i].ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("category_id IN ?", ids)
		if activeOnly {
			db = db.Where("is_active = ?", true)
		}
		return db.Order("display_order, id")
	}

	var sizes []models.CategorySize
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&sizes).Error; err != nil {
		return err
	}
	for _, s := range sizes {
		c := &categories[index[s.CategoryID]]
		c.Sizes = append(c.Sizes, s)
	}

	var ingredients []models.CategoryIngredient
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&ingredients).Error; err != nil {
		return err
	}
	for _, ing := range ingredients {
		c := &categories[index[ing.CategoryID]]
		c.Ingredients = append(c.Ingredients, ing)
	}
	return nil
}

// Create inserts a new category.
func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Omit("Sizes", "Ingredients").Create(category).Error
}

// Update applies a partial update and reports gorm.ErrRecordNotFound for unknown ids.
func (r *GormCategoryRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountMenuItems counts the menu items referencing the category.
func (r *GormCategoryRepository) CountMenuItems(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the category together with its sizes and ingredients.
func (r *GormCategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.CategorySize{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.CategoryIngredient{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindSize retrieves a size belonging to the category.
func (r *GormCategoryRepository) FindSize(ctx context.Context, categoryID, sizeID uint) (*models.CategorySize, error) {
	var size models.CategorySize
	err := r.db.WithContext(ctx).
		Where("id = ? AND category_id = ?", sizeID, categoryID).
		First(&size).Error
	if err != nil {
		return nil, err
	}
	return &size, nil
}

// CreateSize inserts a new size.
func (r *GormCategoryRepository) CreateSize(ctx context.Context, size *models.CategorySize) error {
	return r.db.WithContext(ctx).Create(size).Error
}

// UpdateSize applies updates and reloads size.
func (r *GormCategoryRepository) UpdateSize(ctx context.Context, size *models.CategorySize, updates map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	if len(updates) > 0 {
		if err := db.Model(size).Updates(updates).Error; err != nil {
			return err
		}
	}
	return db.First(size, size.ID).Error
}

// DeleteSize removes a size.
func (r *GormCategoryRepository) DeleteSize(ctx context.Context, size *models.CategorySize) error {
	return r.db.WithContext(ctx).Delete(size).Error
}

// FindIngredient retrieves an ingredient belonging to the category.
func (r *GormCategoryRepository) FindIngredient(ctx context.Context, categoryID, ingredientID uint) (*models.CategoryIngredient, error) {
	var ingredient models.CategoryIngredient
	err := r.db.WithContext(ctx).
		Where("id = ? AND category_id = ?", ingredientID, categoryID).
		First(&ingredient).Error
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// CreateIngredient inserts a new ingredient.
func (r *GormCategoryRepository) CreateIngredient(ctx context.Context, ingredient *models.CategoryIngredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

// UpdateIngredient applies updates and reloads ingredient.
func (r *GormCategoryRepository) UpdateIngredient(ctx context.Context, ingredient *models.CategoryIngredient, updates map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	if len(updates) > 0 {
		if err := db.Model(ingredient).Updates(updates).Error; err != nil {
			return err
		}
	}
	return db.First(ingredient, ingredient.ID).Error
}

// DeleteIngredient removes an ingredient.
func (r *GormCategoryRepository) DeleteIngredient(ctx context.Context, ingredient *models.CategoryIngredient) error {
	return r.db.WithContext(ctx).Delete(ingredient).Error
}
