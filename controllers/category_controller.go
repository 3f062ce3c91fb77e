package controllers

import (
	"net/http"

	"kiosk-service/models"
	"kiosk-service/services"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	service   services.CategoryService
	validator *RequestValidator
}

func NewCategoryController(s services.CategoryService, v *RequestValidator) *CategoryController {
	return &CategoryController{service: s, validator: v}
}

func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	active, err := ctrl.validator.QueryBool(c, "active")
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	categories, svcErr := ctrl.service.ListCategories(c.Request.Context(), active)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, categories)
}

func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, svcErr := ctrl.service.GetCategory(c.Request.Context(), id)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, category)
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.DisplayName == "" {
		fail(c, http.StatusBadRequest, "Name and display_name are required")
		return
	}
	if err := ctrl.validator.Struct(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	category, svcErr := ctrl.service.CreateCategory(c.Request.Context(), req)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusCreated, category)
}

func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ctrl.validator.Struct(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	category, svcErr := ctrl.service.UpdateCategory(c.Request.Context(), id, req)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, category)
}

func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteCategory(c.Request.Context(), id); svcErr != nil {
		failService(c, svcErr)
		return
	}
	respondMessage(c, "Category deleted successfully")
}

// --- sizes ---

func (ctrl *CategoryController) CreateSize(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, err := ctrl.validator.ParseOptionRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	size, svcErr := ctrl.service.CreateSize(c.Request.Context(), id, req)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusCreated, size)
}

func (ctrl *CategoryController) UpdateSize(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sizeID, ok := idParam(c, "sizeId")
	if !ok {
		return
	}
	req, err := ctrl.validator.ParseOptionRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	size, svcErr := ctrl.service.UpdateSize(c.Request.Context(), id, sizeID, req)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, size)
}

func (ctrl *CategoryController) DeleteSize(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sizeID, ok := idParam(c, "sizeId")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteSize(c.Request.Context(), id, sizeID); svcErr != nil {
		failService(c, svcErr)
		return
	}
	respondMessage(c, "Size deleted successfully")
}

// --- ingredients ---

func (ctrl *CategoryController) CreateIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, err := ctrl.validator.ParseOptionRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	image, err := ctrl.validator.OptionalImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ingredient, svcErr := ctrl.service.CreateIngredient(c.Request.Context(), id, req, image)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusCreated, ingredient)
}

func (ctrl *CategoryController) UpdateIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ingredientID, ok := idParam(c, "ingredientId")
	if !ok {
		return
	}
	req, err := ctrl.validator.ParseOptionRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	image, err := ctrl.validator.OptionalImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ingredient, svcErr := ctrl.service.UpdateIngredient(c.Request.Context(), id, ingredientID, req, image)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, ingredient)
}

func (ctrl *CategoryController) DeleteIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ingredientID, ok := idParam(c, "ingredientId")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteIngredient(c.Request.Context(), id, ingredientID); svcErr != nil {
		failService(c, svcErr)
		return
	}
	respondMessage(c, "Ingredient deleted successfully")
}
