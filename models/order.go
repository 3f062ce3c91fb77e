package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentMethod is how a confirmed order was paid.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// CustomizationType tags a snapshotted customization row.
type CustomizationType string

const (
	CustomizationSize       CustomizationType = "size"
	CustomizationIngredient CustomizationType = "ingredient"
)

// Order is a kiosk order. TotalAmount is fixed at creation.
type Order struct {
	ID            uint            `gorm:"primaryKey"`
	OrderNumber   string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_orders_day_number,priority:2"`
	OrderDate     string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_orders_day_number,priority:1"`
	DeviceID      string          `gorm:"type:varchar(100);not null;index"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Notes         *string         `gorm:"type:text"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index"`
	PaymentMethod *PaymentMethod  `gorm:"type:varchar(10)"`
	CreatedAt     time.Time       `gorm:"index"`
	CompletedAt   *time.Time
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is one line of an order with its price snapshot.
type OrderItem struct {
	ID             uint                     `gorm:"primaryKey"`
	OrderID        uint                     `gorm:"not null;index"`
	MenuItemID     *uint                    `gorm:"index"`
	MenuItem       *MenuItem                `gorm:"foreignKey:MenuItemID;constraint:OnDelete:SET NULL"`
	Quantity       int                      `gorm:"not null"`
	PriceAtOrder   decimal.Decimal          `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal          `gorm:"type:decimal(10,2);not null"`
	Instructions   *string                  `gorm:"type:text"`
	Name           *string                  `gorm:"type:varchar(150)"`
	Customizations []OrderItemCustomization `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
}

// OrderItemCustomization is a size or ingredient copied from the catalog at order time.
type OrderItemCustomization struct {
	ID          uint              `gorm:"primaryKey"`
	OrderItemID uint              `gorm:"not null;index"`
	Type        CustomizationType `gorm:"type:varchar(20);not null"`
	Name        string            `gorm:"type:varchar(150);not null"`
	Price       decimal.Decimal   `gorm:"type:decimal(10,2);not null"`
}

// --- Requests ---

// CreateOrderRequest is the payload for POST /api/orders.
type CreateOrderRequest struct {
	DeviceID string             `json:"device_id"`
	Items    []OrderItemRequest `json:"items"`
	Notes    *string            `json:"notes"`
}

// OrderItemRequest is one requested line. Lines without MenuItemID are
// build-your-own and carry their own name and price.
type OrderItemRequest struct {
	MenuItemID     *uint                 `json:"menu_item_id"`
	Quantity       int                   `json:"quantity"`
	Price          *decimal.Decimal      `json:"price"`
	Name           *string               `json:"name"`
	Instructions   *string               `json:"instructions"`
	BuildYourOwn   *CustomizationRequest `json:"build_your_own"`
	Customizations *CustomizationRequest `json:"customizations"`
}

// UnmarshalJSON accepts `build_your_own` as either a flag or a selection object.
func (r *OrderItemRequest) UnmarshalJSON(data []byte) error {
	type alias OrderItemRequest
	aux := struct {
		*alias
		BuildYourOwn rawBuildYourOwn `json:"build_your_own"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.BuildYourOwn = aux.BuildYourOwn.selection
	return nil
}

type rawBuildYourOwn struct {
	selection *CustomizationRequest
}

func (r *rawBuildYourOwn) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var sel CustomizationRequest
	if err := json.Unmarshal(data, &sel); err != nil {
		return err
	}
	r.selection = &sel
	return nil
}

// IsBuildYourOwn reports whether the line is priced by the caller instead of the catalog.
func (r *OrderItemRequest) IsBuildYourOwn() bool {
	return r.MenuItemID == nil
}

// Selection returns the size/ingredient selection attached to the line, if any.
func (r *OrderItemRequest) Selection() *CustomizationRequest {
	if r.Customizations != nil {
		return r.Customizations
	}
	return r.BuildYourOwn
}

// CustomizationRequest is the size and ingredient selection of a line.
type CustomizationRequest struct {
	Size        *CustomizationChoice  `json:"size"`
	Ingredients []CustomizationChoice `json:"ingredients"`
}

// CustomizationChoice is a named, priced option.
type CustomizationChoice struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderFilter narrows GET /api/orders.
type OrderFilter struct {
	Status   string
	DeviceID string
	Limit    int
}

// UpdateStatusRequest is the payload for PATCH /api/orders/:id/status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// ConfirmOrderRequest is the payload for PATCH /api/orders/:id/confirm.
type ConfirmOrderRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// --- Responses ---

// OrderResponse is the wire form of an order with its items.
type OrderResponse struct {
	ID            uint                `json:"id"`
	OrderNumber   string              `json:"order_number"`
	DeviceID      string              `json:"device_id"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Notes         *string             `json:"notes"`
	Status        OrderStatus         `json:"status"`
	PaymentMethod *PaymentMethod      `json:"payment_method"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Items         []OrderItemResponse `json:"items"`
}

// OrderItemResponse is the wire form of an order line. Customizations is
// null when the line has none.
type OrderItemResponse struct {
	ID             uint                  `json:"id"`
	OrderID        uint                  `json:"order_id"`
	MenuItemID     *uint                 `json:"menu_item_id"`
	Name           *string               `json:"name"`
	ImageURL       *string               `json:"image_url"`
	Quantity       int                   `json:"quantity"`
	PriceAtOrder   decimal.Decimal       `json:"price_at_order"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	Instructions   *string               `json:"instructions"`
	Customizations *CustomizationRequest `json:"customizations"`
}

// NewOrderResponse assembles the wire form, regrouping the flat
// customization rows into {size, ingredients} per item.
func NewOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		DeviceID:      o.DeviceID,
		TotalAmount:   o.TotalAmount,
		Notes:         o.Notes,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		CompletedAt:   o.CompletedAt,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:           it.ID,
			OrderID:      it.OrderID,
			MenuItemID:   it.MenuItemID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtOrder,
			Subtotal:     it.Subtotal,
			Instructions: it.Instructions,
		}
		if it.MenuItem != nil {
			if item.Name == nil {
				name := it.MenuItem.Name
				item.Name = &name
			}
			item.ImageURL = it.MenuItem.ImageURL
		}
		item.Customizations = groupCustomizations(it.Customizations)
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func groupCustomizations(rows []OrderItemCustomization) *CustomizationRequest {
	if len(rows) == 0 {
		return nil
	}
	set := &CustomizationRequest{Ingredients: []CustomizationChoice{}}
	for _, c := range rows {
		choice := CustomizationChoice{Name: c.Name, Price: c.Price}
		switch c.Type {
		case CustomizationSize:
			set.Size = &choice
		case CustomizationIngredient:
			set.Ingredients = append(set.Ingredients, choice)
		}
	}
	return set
}

// StatusChangedEvent is broadcast when an order's status moves.
type StatusChangedEvent struct {
	ID            uint           `json:"id"`
	Status        OrderStatus    `json:"status"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
}

// CleanupResult reports how many orders a cleanup pass removed.
type CleanupResult struct {
	DeletedCount int64 `json:"deleted_count"`
}
