package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Category groups menu items on the kiosk. Customizable and build-your-own
// categories own the sizes and ingredients offered for their items.
type Category struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	Name           string               `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	DisplayName    string               `gorm:"type:varchar(100);not null" json:"display_name"`
	Icon           string               `gorm:"type:varchar(50);not null" json:"icon"`
	DisplayOrder   int                  `gorm:"not null" json:"display_order"`
	IsActive       bool                 `gorm:"not null" json:"is_active"`
	IsCustomizable bool                 `gorm:"not null" json:"is_customizable"`
	IsBuildYourOwn bool                 `gorm:"not null" json:"is_build_your_own"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Sizes          []CategorySize       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"sizes"`
	Ingredients    []CategoryIngredient `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

// HasOptions reports whether sizes and ingredients belong in the category's payload.
func (c *Category) HasOptions() bool {
	return c.IsCustomizable || c.IsBuildYourOwn
}

// CategorySize is a size choice (and its price) offered within a category.
type CategorySize struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CategoryID   uint            `gorm:"not null;index" json:"category_id"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	DisplayOrder int             `gorm:"not null" json:"display_order"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CategoryIngredient is an extra ingredient offered within a category.
type CategoryIngredient struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CategoryID   uint            `gorm:"not null;index" json:"category_id"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL     *string         `gorm:"type:varchar(255)" json:"image_url"`
	DisplayOrder int             `gorm:"not null" json:"display_order"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CreateCategoryRequest is the payload for POST /api/categories.
type CreateCategoryRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	DisplayName    string `json:"display_name" validate:"required,max=100"`
	Icon           string `json:"icon" validate:"max=50"`
	DisplayOrder   int    `json:"display_order"`
	IsActive       *bool  `json:"is_active"`
	IsCustomizable bool   `json:"is_customizable"`
	IsBuildYourOwn bool   `json:"is_build_your_own"`
}

// UpdateCategoryRequest is a partial update: nil fields keep their stored value.
type UpdateCategoryRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	DisplayName    *string `json:"display_name" validate:"omitempty,min=1,max=100"`
	Icon           *string `json:"icon" validate:"omitempty,max=50"`
	DisplayOrder   *int    `json:"display_order"`
	IsActive       *bool   `json:"is_active"`
	IsCustomizable *bool   `json:"is_customizable"`
	IsBuildYourOwn *bool   `json:"is_build_your_own"`
}

// OptionRequest creates or updates a size or an ingredient. On create, name
// and price are required; on update, nil fields keep their stored value.
type OptionRequest struct {
	Name         *string          `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	DisplayOrder *int             `json:"display_order"`
	IsActive     *bool            `json:"is_active"`
}
