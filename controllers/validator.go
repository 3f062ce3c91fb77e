package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"kiosk-service/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DefaultMaxUploadSize caps image uploads.
const DefaultMaxUploadSize = 5 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// RequestValidator parses and validates request input.
type RequestValidator struct {
	validate      *validator.Validate
	maxUploadSize int64
}

func NewRequestValidator(maxUploadSize int64) *RequestValidator {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &RequestValidator{validate: validator.New(), maxUploadSize: maxUploadSize}
}

// Struct runs the validate tags of v.
func (rv *RequestValidator) Struct(v interface{}) error {
	if err := rv.validate.Struct(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// IsValidImageType accepts an upload whose extension and content type are
// both on the image allow list.
func (rv *RequestValidator) IsValidImageType(file *multipart.FileHeader) bool {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		return false
	}
	ct := file.Header.Get("Content-Type")
	return ct == "" || ct == "application/octet-stream" || allowedImageTypes[ct]
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > rv.maxUploadSize {
		return fmt.Errorf("File too large (max %dMB)", rv.maxUploadSize/(1024*1024))
	}
	return nil
}

// OptionalImage returns the `image` upload when one was sent.
func (rv *RequestValidator) OptionalImage(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.New("Invalid multipart form")
	}
	if !rv.IsValidImageType(file) {
		return nil, errors.New("Only image files are allowed")
	}
	if err := rv.ValidateFileSize(file); err != nil {
		return nil, err
	}
	return file, nil
}

func isMultipart(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == gin.MIMEMultipartPOSTForm || ct == gin.MIMEPOSTForm
}

// formValue returns a form field and whether it was sent at all.
func formValue(c *gin.Context, key string) (string, bool) {
	return c.GetPostForm(key)
}

func formString(c *gin.Context, key string) *string {
	if v, ok := formValue(c, key); ok {
		return &v
	}
	return nil
}

func formDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v, ok := formValue(c, key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("Invalid %s", key)
	}
	return &d, nil
}

func formInt(c *gin.Context, key string) (*int, error) {
	v, ok := formValue(c, key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("Invalid %s", key)
	}
	return &n, nil
}

// formBool treats anything but "false" and "0" as true.
func formBool(c *gin.Context, key string) *bool {
	v, ok := formValue(c, key)
	if !ok {
		return nil
	}
	b := v != "false" && v != "0"
	return &b
}

// ingredientsValue accepts a JSON array, or a comma separated list.
func ingredientsValue(raw string) (datatypes.JSON, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return datatypes.JSON("[]"), nil
	}
	if strings.HasPrefix(raw, "[") {
		if !json.Valid([]byte(raw)) {
			return nil, errors.New("Ingredients must be a JSON array")
		}
		return datatypes.JSON(raw), nil
	}
	parts := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

type menuItemJSON struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	BaseType     *models.BaseType `json:"base_type"`
	Price        *decimal.Decimal `json:"price"`
	Ingredients  json.RawMessage  `json:"ingredients"`
	IsAvailable  *bool            `json:"is_available"`
	CategoryID   *uint            `json:"category_id"`
	DisplayOrder *int             `json:"display_order"`
}

// ParseMenuItemRequest reads a menu item from a multipart form or a JSON body.
func (rv *RequestValidator) ParseMenuItemRequest(c *gin.Context) (models.MenuItemRequest, error) {
	if !isMultipart(c) {
		var body menuItemJSON
		if err := c.ShouldBindJSON(&body); err != nil {
			return models.MenuItemRequest{}, errors.New("Invalid request body")
		}
		req := models.MenuItemRequest{
			Name: body.Name, Description: body.Description, BaseType: body.BaseType, Price: body.Price,
			IsAvailable: body.IsAvailable, CategoryID: body.CategoryID, DisplayOrder: body.DisplayOrder,
		}
		if len(body.Ingredients) > 0 && string(body.Ingredients) != "null" {
			var s string
			if json.Unmarshal(body.Ingredients, &s) == nil {
				ing, err := ingredientsValue(s)
				if err != nil {
					return models.MenuItemRequest{}, err
				}
				req.Ingredients = ing
			} else {
				req.Ingredients = datatypes.JSON(body.Ingredients)
			}
		}
		return req, nil
	}

	var req models.MenuItemRequest
	var err error
	req.Name = formString(c, "name")
	req.Description = formString(c, "description")
	if v, ok := formValue(c, "base_type"); ok && v != "" {
		bt := models.BaseType(v)
		req.BaseType = &bt
	}
	if req.Price, err = formDecimal(c, "price"); err != nil {
		return req, err
	}
	if v, ok := formValue(c, "ingredients"); ok {
		if req.Ingredients, err = ingredientsValue(v); err != nil {
			return req, err
		}
	}
	req.IsAvailable = formBool(c, "is_available")
	if v, ok := formValue(c, "category_id"); ok && strings.TrimSpace(v) != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return req, errors.New("Invalid category_id")
		}
		cid := uint(id)
		req.CategoryID = &cid
	}
	if req.DisplayOrder, err = formInt(c, "display_order"); err != nil {
		return req, err
	}
	return req, nil
}

// ParseOptionRequest reads a size or ingredient from a form or a JSON body.
func (rv *RequestValidator) ParseOptionRequest(c *gin.Context) (models.OptionRequest, error) {
	var req models.OptionRequest
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, errors.New("Invalid request body")
		}
		return req, nil
	}
	var err error
	req.Name = formString(c, "name")
	if req.Price, err = formDecimal(c, "price"); err != nil {
		return req, err
	}
	if req.DisplayOrder, err = formInt(c, "display_order"); err != nil {
		return req, err
	}
	req.IsActive = formBool(c, "is_active")
	return req, nil
}

// QueryBool parses an optional boolean query parameter.
func (rv *RequestValidator) QueryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid boolean value for '%s'", key)
	}
	return &v, nil
}

// ParseMenuFilter reads GET /api/menu query parameters.
func (rv *RequestValidator) ParseMenuFilter(c *gin.Context) (models.MenuFilter, error) {
	var f models.MenuFilter
	f.BaseType = strings.TrimSpace(c.Query("base_type"))
	var err error
	if f.Available, err = rv.QueryBool(c, "available"); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return f, errors.New("Invalid category_id")
		}
		cid := uint(id)
		f.CategoryID = &cid
	}
	return f, nil
}

// ParseOrderFilter reads GET /api/orders query parameters.
func (rv *RequestValidator) ParseOrderFilter(c *gin.Context) (models.OrderFilter, error) {
	f := models.OrderFilter{
		Status:   strings.TrimSpace(c.Query("status")),
		DeviceID: strings.TrimSpace(c.Query("device_id")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, errors.New("Invalid limit")
		}
		f.Limit = n
	}
	return f, nil
}
