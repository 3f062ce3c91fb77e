package controllers

import (
	"net/http"

	"kiosk-service/services"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	service services.ReportService
}

func NewReportController(s services.ReportService) *ReportController {
	return &ReportController{service: s}
}

func (ctrl *ReportController) Sales(c *gin.Context) {
	report, svcErr := ctrl.service.Sales(c.Request.Context())
	if svcErr != nil {
		failService(c, svcErr)
		return
	}
	respond(c, http.StatusOK, report)
}

// Health answers 503 when the database is unreachable.
func (ctrl *ReportController) Health(c *gin.Context) {
	health, ok := ctrl.service.Health(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
