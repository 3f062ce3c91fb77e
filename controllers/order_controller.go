package controllers

import (
	"fmt"
	"net/http"

	"kiosk-service/models"
	"kiosk-service/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	service   services.OrderService
	validator *RequestValidator
}

func NewOrderController(s services.OrderService, v *RequestValidator) *OrderController {
	return &OrderController{service: s, validator: v}
}

func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, svcErr := ctrl.service.CreateOrder(c.Request.Context(), req)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order, "order_number": order.OrderNumber})
}

func (ctrl *OrderController) ListOrders(c *gin.Context) {
	filter, err := ctrl.validator.ParseOrderFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	orders, svcErr := ctrl.service.ListOrders(c.Request.Context(), filter)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders, "total": len(orders)})
}

func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, svcErr := ctrl.service.GetOrder(c.Request.Context(), id)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, order)
}

func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, svcErr := ctrl.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, order)
}

func (ctrl *OrderController) ConfirmOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, svcErr := ctrl.service.ConfirmOrder(c.Request.Context(), id, req.PaymentMethod)
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, order)
}

func (ctrl *OrderController) Cleanup(c *gin.Context) {
	result, svcErr := ctrl.service.Cleanup(c.Request.Context())
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("Deleted %d completed or cancelled orders", result.DeletedCount),
		"deleted_count": result.DeletedCount,
	})
}
