package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"kiosk-service/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageController serves uploaded images out of the configured store.
type ImageController struct {
	store  storage.ImageStore
	logger *zap.Logger
}

func NewImageController(store storage.ImageStore, logger *zap.Logger) *ImageController {
	return &ImageController{store: store, logger: logger}
}

func (ctrl *ImageController) Serve(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	obj, err := ctrl.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fail(c, http.StatusNotFound, "Image not found")
			return
		}
		ctrl.logger.Error("Failed to open image", zap.String("name", name), zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to load image")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	if obj.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj.Body); err != nil {
		ctrl.logger.Warn("Image write interrupted", zap.String("name", name), zap.Error(err))
	}
}
