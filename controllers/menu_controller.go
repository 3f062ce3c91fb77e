package controllers

import (
	"net/http"

	"kiosk-service/models"
	"kiosk-service/services"

	"github.com/gin-gonic/gin"
)

type MenuController struct {
	service   services.MenuService
	validator *RequestValidator
}

func NewMenuController(s services.MenuService, v *RequestValidator) *MenuController {
	return &MenuController{service: s, validator: v}
}

func (ctrl *MenuController) ListMenu(c *gin.Context) {
	filter, err := ctrl.validator.ParseMenuFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	items, svcErr := ctrl.service.ListMenu(c.Request.Context(), filter)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, items)
}

func (ctrl *MenuController) GetMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, svcErr := ctrl.service.GetMenuItem(c.Request.Context(), id)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, item)
}

func (ctrl *MenuController) CreateMenuItem(c *gin.Context) {
	req, err := ctrl.validator.ParseMenuItemRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	image, err := ctrl.validator.OptionalImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	item, svcErr := ctrl.service.CreateMenuItem(c.Request.Context(), req, image)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusCreated, item)
}

func (ctrl *MenuController) UpdateMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, err := ctrl.validator.ParseMenuItemRequest(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	image, err := ctrl.validator.OptionalImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	item, svcErr := ctrl.service.UpdateMenuItem(c.Request.Context(), id, req, image)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, item)
}

func (ctrl *MenuController) DeleteMenuItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if svcErr := ctrl.service.DeleteMenuItem(c.Request.Context(), id); svcErr != nil {
		failService(c, svcErr)
		return
	}
	respondMessage(c, "Menu item deleted successfully")
}

func (ctrl *MenuController) SetAvailability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "is_available is required")
		return
	}
	item, svcErr := ctrl.service.SetAvailability(c.Request.Context(), id, *req.IsAvailable)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": item.ID, "is_available": item.IsAvailable})
}
