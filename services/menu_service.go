package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"kiosk-service/models"
	"kiosk-service/repository"
	"kiosk-service/storage"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MenuService manages menu items and their images.
type MenuService interface {
	ListMenu(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, *ServiceError)
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, *ServiceError)
	CreateMenuItem(ctx context.Context, req models.MenuItemRequest, image *multipart.FileHeader) (*models.MenuItem, *ServiceError)
	UpdateMenuItem(ctx context.Context, id uint, req models.MenuItemRequest, image *multipart.FileHeader) (*models.MenuItem, *ServiceError)
	DeleteMenuItem(ctx context.Context, id uint) *ServiceError
	SetAvailability(ctx context.Context, id uint, available bool) (*models.MenuItem, *ServiceError)
}

type menuServiceImpl struct {
	repo        repository.MenuRepository
	categories  repository.CategoryRepository
	images      storage.ImageStore
	cache       CatalogCache
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewMenuService creates a new MenuService.
func NewMenuService(
	repo repository.MenuRepository,
	categories repository.CategoryRepository,
	images storage.ImageStore,
	cache CatalogCache,
	broadcaster Broadcaster,
	logger *zap.Logger,
) MenuService {
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	return &menuServiceImpl{
		repo:        repo,
		categories:  categories,
		images:      images,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

var emptyIngredients = datatypes.JSON("[]")

func menuCacheKey(f models.MenuFilter) string {
	key := "menu:base=" + f.BaseType
	if f.Available != nil {
		key += fmt.Sprintf(":avail=%t", *f.Available)
	}
	if f.CategoryID != nil {
		key += fmt.Sprintf(":cat=%d", *f.CategoryID)
	}
	return key
}

func (s *menuServiceImpl) ListMenu(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, *ServiceError) {
	key := menuCacheKey(filter)
	var cached []models.MenuItem
	version, hit := s.cache.Get(ctx, key, &cached)
	if hit {
		return cached, nil
	}

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list menu", zap.Error(err))
		return nil, internalError("Failed to fetch menu")
	}
	for i := range items {
		normalizeIngredients(&items[i])
	}
	s.cache.Set(version, key, items)
	return items, nil
}

func (s *menuServiceImpl) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, *ServiceError) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "Failed to fetch menu item")
	}
	normalizeIngredients(item)
	return item, nil
}

// CreateMenuItem stores the image first and removes it again if the row
// cannot be written.
func (s *menuServiceImpl) CreateMenuItem(ctx context.Context, req models.MenuItemRequest, image *multipart.FileHeader) (*models.MenuItem, *ServiceError) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Price == nil {
		return nil, badRequest("Name and price are required")
	}
	if svcErr := s.validate(ctx, req); svcErr != nil {
		return nil, svcErr
	}

	item := &models.MenuItem{
		Name:         strings.TrimSpace(*req.Name),
		BaseType:     models.BaseTomato,
		Price:        *req.Price,
		Ingredients:  emptyIngredients,
		IsAvailable:  req.IsAvailable == nil || *req.IsAvailable,
		CategoryID:   req.CategoryID,
		DisplayOrder: intOr(req.DisplayOrder, 0),
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.BaseType != nil {
		item.BaseType = *req.BaseType
	}
	if len(req.Ingredients) > 0 {
		item.Ingredients = req.Ingredients
	}
	if image != nil {
		name, err := s.images.Save(ctx, image)
		if err != nil {
			s.logger.Error("Failed to store menu image", zap.Error(err))
			return nil, internalError("Failed to store image")
		}
		item.ImageURL = &name
	}

	if err := s.repo.Create(ctx, item); err != nil {
		removeImage(ctx, s.images, s.logger, item.ImageURL)
		s.logger.Error("Failed to create menu item", zap.Error(err))
		return nil, internalError("Failed to create menu item")
	}
	normalizeIngredients(item)
	s.cache.Invalidate(ctx)
	s.broadcaster.Broadcast(models.EventMenuItemUpdated, item, models.RoomAllKiosks)
	s.logger.Info("Menu item created", zap.Uint("id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// UpdateMenuItem applies a partial update. A new image replaces the stored
// one and the old file is removed once the row points at the new file.
func (s *menuServiceImpl) UpdateMenuItem(ctx context.Context, id uint, req models.MenuItemRequest, image *multipart.FileHeader) (*models.MenuItem, *ServiceError) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "Failed to update menu item")
	}
	if svcErr := s.validate(ctx, req); svcErr != nil {
		return nil, svcErr
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, badRequest("Name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.BaseType != nil {
		updates["base_type"] = *req.BaseType
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if len(req.Ingredients) > 0 {
		updates["ingredients"] = req.Ingredients
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}

	previous := item.ImageURL
	var stored *string
	if image != nil {
		name, err := s.images.Save(ctx, image)
		if err != nil {
			s.logger.Error("Failed to store menu image", zap.Error(err))
			return nil, internalError("Failed to store image")
		}
		stored = &name
		updates["image_url"] = name
	}

	if err := s.repo.Update(ctx, item, updates); err != nil {
		removeImage(ctx, s.images, s.logger, stored)
		return nil, s.lookupError(err, "Failed to update menu item")
	}
	if stored != nil {
		removeImage(ctx, s.images, s.logger, previous)
	}
	normalizeIngredients(item)
	s.cache.Invalidate(ctx)
	s.broadcaster.Broadcast(models.EventMenuItemUpdated, item, models.RoomAllKiosks)
	return item, nil
}

// DeleteMenuItem removes the row, then its image file.
func (s *menuServiceImpl) DeleteMenuItem(ctx context.Context, id uint) *ServiceError {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.lookupError(err, "Failed to delete menu item")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.lookupError(err, "Failed to delete menu item")
	}
	removeImage(ctx, s.images, s.logger, item.ImageURL)
	s.cache.Invalidate(ctx)
	s.broadcaster.Broadcast(models.EventMenuItemUpdated, map[string]interface{}{"id": id, "deleted": true}, models.RoomAllKiosks)
	s.logger.Info("Menu item deleted", zap.Uint("id", id))
	return nil
}

// SetAvailability flips is_available only.
func (s *menuServiceImpl) SetAvailability(ctx context.Context, id uint, available bool) (*models.MenuItem, *ServiceError) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "Failed to update availability")
	}
	if err := s.repo.Update(ctx, item, map[string]interface{}{"is_available": available}); err != nil {
		return nil, s.lookupError(err, "Failed to update availability")
	}
	s.cache.Invalidate(ctx)

	event := models.EventMenuItemUnavailable
	if available {
		event = models.EventMenuItemAvailable
	}
	s.broadcaster.Broadcast(event, models.AvailabilityEvent{ItemID: item.ID, ItemName: item.Name}, models.RoomAllKiosks)
	return item, nil
}

func (s *menuServiceImpl) validate(ctx context.Context, req models.MenuItemRequest) *ServiceError {
	if req.Price != nil && req.Price.IsNegative() {
		return badRequest("Price cannot be negative")
	}
	if req.BaseType != nil && *req.BaseType != models.BaseTomato && *req.BaseType != models.BaseCream {
		return badRequest("base_type must be tomato or cream")
	}
	if len(req.Ingredients) > 0 {
		trimmed := bytes.TrimSpace(req.Ingredients)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return badRequest("ingredients must be a JSON array")
		}
	}
	if req.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return badRequest("Category not found")
			}
			s.logger.Error("Failed to look up category", zap.Error(err))
			return internalError("Failed to validate category")
		}
	}
	return nil
}

func (s *menuServiceImpl) lookupError(err error, failMsg string) *ServiceError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Menu item not found")
	}
	s.logger.Error(failMsg, zap.Error(err))
	return internalError(failMsg)
}

// normalizeIngredients reports a missing ingredient list as [].
func normalizeIngredients(item *models.MenuItem) {
	trimmed := bytes.TrimSpace(item.Ingredients)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		item.Ingredients = emptyIngredients
	}
}
