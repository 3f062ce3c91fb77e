package controllers

import (
	"context"
	"net/http"
	"strings"

	"kiosk-service/models"
	"kiosk-service/printer"
	"kiosk-service/services"

	"github.com/gin-gonic/gin"
)

// PrinterAPI is the printer gateway as seen by the HTTP layer.
type PrinterAPI interface {
	PrintReceipt(ctx context.Context, deviceID string, order models.OrderResponse) printer.Result
	PrintTest(ctx context.Context, deviceID string) printer.Result
	Status(ctx context.Context, deviceID string) (printer.Status, bool)
	List(ctx context.Context) []string
	Devices() []map[string]string
}

type PrinterController struct {
	printers PrinterAPI
	orders   services.OrderService
}

func NewPrinterController(p PrinterAPI, orders services.OrderService) *PrinterController {
	return &PrinterController{printers: p, orders: orders}
}

type printTestRequest struct {
	DeviceID string `json:"device_id"`
}

// printReceiptRequest carries either the order itself or the id of a stored one.
type printReceiptRequest struct {
	DeviceID string                `json:"device_id"`
	OrderID  *uint                 `json:"order_id"`
	Order    *models.OrderResponse `json:"order"`
}

func printResult(c *gin.Context, res printer.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
		if strings.HasPrefix(res.Error, "No printer configured") {
			status = http.StatusNotFound
		}
	}
	c.JSON(status, res)
}

func (ctrl *PrinterController) PrintTest(c *gin.Context) {
	var req printTestRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DeviceID) == "" {
		fail(c, http.StatusBadRequest, "device_id is required")
		return
	}
	printResult(c, ctrl.printers.PrintTest(c.Request.Context(), req.DeviceID))
}

func (ctrl *PrinterController) PrintReceipt(c *gin.Context) {
	var req printReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DeviceID) == "" {
		fail(c, http.StatusBadRequest, "device_id and order are required")
		return
	}

	order := req.Order
	if order == nil {
		if req.OrderID == nil {
			fail(c, http.StatusBadRequest, "device_id and order are required")
			return
		}
		stored, svcErr := ctrl.orders.GetOrder(c.Request.Context(), *req.OrderID)
		if svcErr != nil {
			failService(c, svcErr)
			return
		}
		order = stored
	}
	printResult(c, ctrl.printers.PrintReceipt(c.Request.Context(), req.DeviceID, *order))
}

func (ctrl *PrinterController) ListPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       ctrl.printers.List(c.Request.Context()),
		"configured": ctrl.printers.Devices(),
	})
}

func (ctrl *PrinterController) Status(c *gin.Context) {
	st, ok := ctrl.printers.Status(c.Request.Context(), c.Param("deviceId"))
	if !ok {
		fail(c, http.StatusNotFound, st.Error)
		return
	}
	respond(c, http.StatusOK, st)
}
