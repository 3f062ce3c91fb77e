package controllers

import (
	"net/http"

	"kiosk-service/services"

	"github.com/gin-gonic/gin"
)

type DeviceController struct {
	service services.DeviceService
}

func NewDeviceController(s services.DeviceService) *DeviceController {
	return &DeviceController{service: s}
}

func (ctrl *DeviceController) ListDevices(c *gin.Context) {
	devices, svcErr := ctrl.service.ListDevices(c.Request.Context())
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, devices)
}
