package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BaseType is the sauce base of a pizza.
type BaseType string

const (
	BaseTomato BaseType = "tomato"
	BaseCream  BaseType = "cream"
)

// MenuItem is a catalog entry shown on the kiosk.
type MenuItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(150);not null" json:"name"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	BaseType     BaseType        `gorm:"type:varchar(20);not null;index" json:"base_type"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL     *string         `gorm:"type:varchar(255)" json:"image_url"`
	Ingredients  datatypes.JSON  `gorm:"type:text" json:"ingredients"`
	IsAvailable  bool            `gorm:"not null;index" json:"is_available"`
	CategoryID   *uint           `gorm:"index" json:"category_id"`
	Category     *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	DisplayOrder int             `gorm:"not null" json:"display_order"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	CategoryName *string `gorm:"-" json:"category_name,omitempty"`
	CategoryIcon *string `gorm:"-" json:"category_icon,omitempty"`
}

// FillCategory copies the joined category's display fields onto the item.
func (m *MenuItem) FillCategory() {
	if m.Category == nil {
		return
	}
	name, icon := m.Category.DisplayName, m.Category.Icon
	m.CategoryName = &name
	m.CategoryIcon = &icon
}

// MenuFilter narrows GET /api/menu.
type MenuFilter struct {
	BaseType   string
	Available  *bool
	CategoryID *uint
}

// MenuItemRequest carries a create or update of a menu item. On update,
// nil fields keep their stored value.
type MenuItemRequest struct {
	Name         *string
	Description  *string
	BaseType     *BaseType
	Price        *decimal.Decimal
	Ingredients  datatypes.JSON
	IsAvailable  *bool
	CategoryID   *uint
	DisplayOrder *int
}

// AvailabilityRequest is the payload for PATCH /api/menu/:id/availability.
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
