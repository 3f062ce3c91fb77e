package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"kiosk-service/models"
	"kiosk-service/repository"
	"kiosk-service/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CategoryService manages categories and their sizes and ingredients.
type CategoryService interface {
	ListCategories(ctx context.Context, active *bool) ([]models.Category, *ServiceError)
	GetCategory(ctx context.Context, id uint) (*models.Category, *ServiceError)
	CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, *ServiceError)
	UpdateCategory(ctx context.Context, id uint, req models.UpdateCategoryRequest) (*models.Category, *ServiceError)
	DeleteCategory(ctx context.Context, id uint) *ServiceError

	CreateSize(ctx context.Context, categoryID uint, req models.OptionRequest) (*models.CategorySize, *ServiceError)
	UpdateSize(ctx context.Context, categoryID, sizeID uint, req models.OptionRequest) (*models.CategorySize, *ServiceError)
	DeleteSize(ctx context.Context, categoryID, sizeID uint) *ServiceError

	CreateIngredient(ctx context.Context, categoryID uint, req models.OptionRequest, image *multipart.FileHeader) (*models.CategoryIngredient, *ServiceError)
	UpdateIngredient(ctx context.Context, categoryID, ingredientID uint, req models.OptionRequest, image *multipart.FileHeader) (*models.CategoryIngredient, *ServiceError)
	DeleteIngredient(ctx context.Context, categoryID, ingredientID uint) *ServiceError
}

type categoryServiceImpl struct {
	repo   repository.CategoryRepository
	images storage.ImageStore
	cache  CatalogCache
	logger *zap.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repository.CategoryRepository, images storage.ImageStore, cache CatalogCache, logger *zap.Logger) CategoryService {
	return &categoryServiceImpl{repo: repo, images: images, cache: cache, logger: logger}
}

func categoriesCacheKey(active *bool) string {
	if active == nil {
		return "categories:all"
	}
	return fmt.Sprintf("categories:active=%t", *active)
}

// ListCategories returns categories by display order. Customizable and
// build-your-own categories carry their active sizes and ingredients.
func (s *categoryServiceImpl) ListCategories(ctx context.Context, active *bool) ([]models.Category, *ServiceError) {
	key := categoriesCacheKey(active)
	var cached []models.Category
	version, hit := s.cache.Get(ctx, key, &cached)
	if hit {
		return cached, nil
	}

	categories, err := s.repo.FindAll(ctx, active)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, internalError("Failed to fetch categories")
	}
	if err := s.repo.LoadOptions(ctx, categories, true); err != nil {
		s.logger.Error("Failed to load category options", zap.Error(err))
		return nil, internalError("Failed to fetch categories")
	}
	s.cache.Set(version, key, categories)
	return categories, nil
}

// GetCategory returns one category with all of its sizes and ingredients,
// inactive ones included.
func (s *categoryServiceImpl) GetCategory(ctx context.Context, id uint) (*models.Category, *ServiceError) {
	category, svcErr := s.findCategory(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	batch := []models.Category{*category}
	if err := s.repo.LoadOptions(ctx, batch, false); err != nil {
		s.logger.Error("Failed to load category options", zap.Uint("id", id), zap.Error(err))
		return nil, internalError("Failed to fetch category")
	}
	return &batch[0], nil
}

func (s *categoryServiceImpl) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, *ServiceError) {
	name := strings.TrimSpace(req.Name)
	displayName := strings.TrimSpace(req.DisplayName)
	if name == "" || displayName == "" {
		return nil, badRequest("Name and display_name are required")
	}

	category := &models.Category{
		Name:           name,
		DisplayName:    displayName,
		Icon:           req.Icon,
		DisplayOrder:   req.DisplayOrder,
		IsActive:       req.IsActive == nil || *req.IsActive,
		IsCustomizable: req.IsCustomizable,
		IsBuildYourOwn: req.IsBuildYourOwn,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("Category name already exists")
		}
		s.logger.Error("Failed to create category", zap.Error(err))
		return nil, internalError("Failed to create category")
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Category created", zap.Uint("id", category.ID), zap.String("name", category.Name))
	return s.GetCategory(ctx, category.ID)
}

func (s *categoryServiceImpl) UpdateCategory(ctx context.Context, id uint, req models.UpdateCategoryRequest) (*models.Category, *ServiceError) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, badRequest("Name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.DisplayName != nil {
		if strings.TrimSpace(*req.DisplayName) == "" {
			return nil, badRequest("Display name cannot be empty")
		}
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsCustomizable != nil {
		updates["is_customizable"] = *req.IsCustomizable
	}
	if req.IsBuildYourOwn != nil {
		updates["is_build_your_own"] = *req.IsBuildYourOwn
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, notFound("Category not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, conflict("Category name already exists")
		}
		s.logger.Error("Failed to update category", zap.Uint("id", id), zap.Error(err))
		return nil, internalError("Failed to update category")
	}
	s.cache.Invalidate(ctx)
	return s.GetCategory(ctx, id)
}

// DeleteCategory refuses while menu items reference the category. Its sizes,
// ingredients and ingredient images go with it.
func (s *categoryServiceImpl) DeleteCategory(ctx context.Context, id uint) *ServiceError {
	category, svcErr := s.GetCategory(ctx, id)
	if svcErr != nil {
		return svcErr
	}
	count, err := s.repo.CountMenuItems(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count category items", zap.Uint("id", id), zap.Error(err))
		return internalError("Failed to delete category")
	}
	if count > 0 {
		return badRequest("Cannot delete category with menu items. Remove items first.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Category not found")
		}
		s.logger.Error("Failed to delete category", zap.Uint("id", id), zap.Error(err))
		return internalError("Failed to delete category")
	}
	for _, ing := range category.Ingredients {
		s.removeImage(ctx, ing.ImageURL)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Category deleted", zap.Uint("id", id))
	return nil
}

// --- Sizes ---

func (s *categoryServiceImpl) CreateSize(ctx context.Context, categoryID uint, req models.OptionRequest) (*models.CategorySize, *ServiceError) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Price == nil {
		return nil, badRequest("Name and price are required")
	}
	if req.Price.IsNegative() {
		return nil, badRequest("Price cannot be negative")
	}
	if _, svcErr := s.findCategory(ctx, categoryID); svcErr != nil {
		return nil, svcErr
	}

	size := &models.CategorySize{
		CategoryID:   categoryID,
		Name:         strings.TrimSpace(*req.Name),
		Price:        *req.Price,
		DisplayOrder: intOr(req.DisplayOrder, 0),
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.CreateSize(ctx, size); err != nil {
		s.logger.Error("Failed to create size", zap.Uint("category_id", categoryID), zap.Error(err))
		return nil, internalError("Failed to create size")
	}
	s.cache.Invalidate(ctx)
	return size, nil
}

func (s *categoryServiceImpl) UpdateSize(ctx context.Context, categoryID, sizeID uint, req models.OptionRequest) (*models.CategorySize, *ServiceError) {
	size, err := s.repo.FindSize(ctx, categoryID, sizeID)
	if err != nil {
		return nil, s.lookupError(err, "Size not found", "Failed to update size")
	}
	updates, svcErr := optionUpdates(req)
	if svcErr != nil {
		return nil, svcErr
	}
	if err := s.repo.UpdateSize(ctx, size, updates); err != nil {
		s.logger.Error("Failed to update size", zap.Uint("id", sizeID), zap.Error(err))
		return nil, internalError("Failed to update size")
	}
	s.cache.Invalidate(ctx)
	return size, nil
}

func (s *categoryServiceImpl) DeleteSize(ctx context.Context, categoryID, sizeID uint) *ServiceError {
	size, err := s.repo.FindSize(ctx, categoryID, sizeID)
	if err != nil {
		return s.lookupError(err, "Size not found", "Failed to delete size")
	}
	if err := s.repo.DeleteSize(ctx, size); err != nil {
		s.logger.Error("Failed to delete size", zap.Uint("id", sizeID), zap.Error(err))
		return internalError("Failed to delete size")
	}
	s.cache.Invalidate(ctx)
	return nil
}

// --- Ingredients ---

func (s *categoryServiceImpl) CreateIngredient(ctx context.Context, categoryID uint, req models.OptionRequest, image *multipart.FileHeader) (*models.CategoryIngredient, *ServiceError) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Price == nil {
		return nil, badRequest("Name and price are required")
	}
	if req.Price.IsNegative() {
		return nil, badRequest("Price cannot be negative")
	}
	if _, svcErr := s.findCategory(ctx, categoryID); svcErr != nil {
		return nil, svcErr
	}

	ingredient := &models.CategoryIngredient{
		CategoryID:   categoryID,
		Name:         strings.TrimSpace(*req.Name),
		Price:        *req.Price,
		DisplayOrder: intOr(req.DisplayOrder, 0),
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if image != nil {
		name, err := s.images.Save(ctx, image)
		if err != nil {
			s.logger.Error("Failed to store ingredient image", zap.Error(err))
			return nil, internalError("Failed to store image")
		}
		ingredient.ImageURL = &name
	}

	if err := s.repo.CreateIngredient(ctx, ingredient); err != nil {
		s.removeImage(ctx, ingredient.ImageURL)
		s.logger.Error("Failed to create ingredient", zap.Uint("category_id", categoryID), zap.Error(err))
		return nil, internalError("Failed to create ingredient")
	}
	s.cache.Invalidate(ctx)
	return ingredient, nil
}

// UpdateIngredient keeps the stored image unless a new one is uploaded, in
// which case the previous file is removed after the row is updated.
func (s *categoryServiceImpl) UpdateIngredient(ctx context.Context, categoryID, ingredientID uint, req models.OptionRequest, image *multipart.FileHeader) (*models.CategoryIngredient, *ServiceError) {
	ingredient, err := s.repo.FindIngredient(ctx, categoryID, ingredientID)
	if err != nil {
		return nil, s.lookupError(err, "Ingredient not found", "Failed to update ingredient")
	}
	updates, svcErr := optionUpdates(req)
	if svcErr != nil {
		return nil, svcErr
	}

	previous := ingredient.ImageURL
	var stored *string
	if image != nil {
		name, err := s.images.Save(ctx, image)
		if err != nil {
			s.logger.Error("Failed to store ingredient image", zap.Error(err))
			return nil, internalError("Failed to store image")
		}
		stored = &name
		updates["image_url"] = name
	}

	if err := s.repo.UpdateIngredient(ctx, ingredient, updates); err != nil {
		s.removeImage(ctx, stored)
		s.logger.Error("Failed to update ingredient", zap.Uint("id", ingredientID), zap.Error(err))
		return nil, internalError("Failed to update ingredient")
	}
	if stored != nil {
		s.removeImage(ctx, previous)
	}
	s.cache.Invalidate(ctx)
	return ingredient, nil
}

func (s *categoryServiceImpl) DeleteIngredient(ctx context.Context, categoryID, ingredientID uint) *ServiceError {
	ingredient, err := s.repo.FindIngredient(ctx, categoryID, ingredientID)
	if err != nil {
		return s.lookupError(err, "Ingredient not found", "Failed to delete ingredient")
	}
	if err := s.repo.DeleteIngredient(ctx, ingredient); err != nil {
		s.logger.Error("Failed to delete ingredient", zap.Uint("id", ingredientID), zap.Error(err))
		return internalError("Failed to delete ingredient")
	}
	s.removeImage(ctx, ingredient.ImageURL)
	s.cache.Invalidate(ctx)
	return nil
}

// --- helpers ---

func (s *categoryServiceImpl) findCategory(ctx context.Context, id uint) (*models.Category, *ServiceError) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "Category not found", "Failed to fetch category")
	}
	return category, nil
}

func (s *categoryServiceImpl) lookupError(err error, notFoundMsg, failMsg string) *ServiceError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(notFoundMsg)
	}
	s.logger.Error(failMsg, zap.Error(err))
	return internalError(failMsg)
}

// removeImage deletes a stored image. Failures are logged only.
func (s *categoryServiceImpl) removeImage(ctx context.Context, name *string) {
	removeImage(ctx, s.images, s.logger, name)
}

func removeImage(ctx context.Context, images storage.ImageStore, logger *zap.Logger, name *string) {
	if name == nil || *name == "" {
		return
	}
	if err := images.Delete(ctx, *name); err != nil {
		logger.Warn("Failed to delete image file", zap.String("image", *name), zap.Error(err))
	}
}

func optionUpdates(req models.OptionRequest) (map[string]interface{}, *ServiceError) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, badRequest("Name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, badRequest("Price cannot be negative")
		}
		updates["price"] = *req.Price
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	return updates, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
