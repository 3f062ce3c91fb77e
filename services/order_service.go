package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"kiosk-service/models"
	"kiosk-service/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultOrderLimit caps GET /api/orders when no limit is given.
const DefaultOrderLimit = 100

const publishTimeout = 2 * time.Second

// StatusPolicy decides which status transitions the generic status update accepts.
type StatusPolicy string

const (
	// PolicyPermissive accepts any known status from any prior status.
	PolicyPermissive StatusPolicy = "permissive"
	// PolicyStrict only accepts the forward lifecycle plus cancellation.
	PolicyStrict StatusPolicy = "strict"
)

var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusCompleted},
}

// Allows reports whether the policy lets an order move from one status to another.
func (p StatusPolicy) Allows(from, to models.OrderStatus) bool {
	if p != PolicyStrict || from == to {
		return true
	}
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService handles order placement and the order lifecycle.
type OrderService interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderResponse, *ServiceError)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderResponse, *ServiceError)
	GetOrder(ctx context.Context, id uint) (*models.OrderResponse, *ServiceError)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.OrderResponse, *ServiceError)
	ConfirmOrder(ctx context.Context, id uint, method models.PaymentMethod) (*models.OrderResponse, *ServiceError)
	Cleanup(ctx context.Context) (*models.CleanupResult, *ServiceError)
}

// OrderServiceConfig tunes the order lifecycle.
type OrderServiceConfig struct {
	Policy    StatusPolicy
	Retention time.Duration
	Now       func() time.Time
}

type orderServiceImpl struct {
	repo        repository.OrderRepository
	menu        repository.MenuRepository
	broadcaster Broadcaster
	publisher   EventPublisher
	cfg         OrderServiceConfig
	logger      *zap.Logger

	// serializes number assignment within the process
	createMu sync.Mutex
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(
	repo repository.OrderRepository,
	menu repository.MenuRepository,
	broadcaster Broadcaster,
	publisher EventPublisher,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) OrderService {
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyPermissive
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 5 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &orderServiceImpl{
		repo:        repo,
		menu:        menu,
		broadcaster: broadcaster,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateOrder prices every line, snapshots names and customizations and
// writes the order in one transaction. Lines with a caller price keep it;
// others take the current catalog price.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderResponse, *ServiceError) {
	if strings.TrimSpace(req.DeviceID) == "" || len(req.Items) == 0 {
		return nil, badRequest("Device ID and items are required")
	}

	var ids []uint
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, badRequest(fmt.Sprintf("Item %d: quantity must be a positive integer", i+1))
		}
		if line.Price != nil && line.Price.IsNegative() {
			return nil, badRequest(fmt.Sprintf("Item %d: price cannot be negative", i+1))
		}
		if line.IsBuildYourOwn() {
			if line.Name == nil || strings.TrimSpace(*line.Name) == "" || line.Price == nil {
				return nil, badRequest(fmt.Sprintf("Item %d: build-your-own items require a name and a price", i+1))
			}
			continue
		}
		ids = append(ids, *line.MenuItemID)
	}

	catalog, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load menu items for order", zap.Error(err))
		return nil, internalError("Failed to create order")
	}

	order := &models.Order{
		DeviceID:    req.DeviceID,
		Notes:       req.Notes,
		Status:      models.StatusPending,
		CreatedAt:   s.cfg.Now(),
		TotalAmount: decimal.Zero,
		Items:       make([]models.OrderItem, 0, len(req.Items)),
	}
	for _, line := range req.Items {
		item := models.OrderItem{
			MenuItemID:   line.MenuItemID,
			Quantity:     line.Quantity,
			Instructions: line.Instructions,
		}
		if line.IsBuildYourOwn() {
			name := strings.TrimSpace(*line.Name)
			item.Name = &name
			item.PriceAtOrder = *line.Price
		} else {
			entry, ok := catalog[*line.MenuItemID]
			if !ok {
				return nil, notFound(fmt.Sprintf("Menu item %d not found", *line.MenuItemID))
			}
			name := entry.Name
			item.Name = &name
			item.PriceAtOrder = entry.Price
			if line.Price != nil {
				item.PriceAtOrder = *line.Price
			}
		}
		item.Subtotal = item.PriceAtOrder.Mul(decimal.NewFromInt(int64(line.Quantity)))
		item.Customizations = snapshotCustomizations(line.Selection())
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal)
		order.Items = append(order.Items, item)
	}

	s.createMu.Lock()
	err = s.repo.CreateWithNumber(ctx, order)
	s.createMu.Unlock()
	if err != nil {
		s.logger.Error("Failed to create order", zap.String("device_id", req.DeviceID), zap.Error(err))
		return nil, internalError("Failed to create order")
	}

	resp, svcErr := s.GetOrder(ctx, order.ID)
	if svcErr != nil {
		return nil, svcErr
	}
	s.logger.Info("Order created",
		zap.Uint("id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("device_id", order.DeviceID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	s.broadcaster.Broadcast(models.EventOrderNew, resp, models.RoomKitchen, models.RoomAdmin)
	s.publish(ctx, models.EventOrderNew, resp.ID, resp)
	return resp, nil
}

func snapshotCustomizations(sel *models.CustomizationRequest) []models.OrderItemCustomization {
	if sel == nil {
		return nil
	}
	var rows []models.OrderItemCustomization
	if sel.Size != nil {
		rows = append(rows, models.OrderItemCustomization{
			Type: models.CustomizationSize, Name: sel.Size.Name, Price: sel.Size.Price,
		})
	}
	for _, ing := range sel.Ingredients {
		rows = append(rows, models.OrderItemCustomization{
			Type: models.CustomizationIngredient, Name: ing.Name, Price: ing.Price,
		})
	}
	return rows
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderResponse, *ServiceError) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultOrderLimit
	}
	orders, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, internalError("Failed to fetch orders")
	}
	out := make([]models.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, models.NewOrderResponse(&orders[i]))
	}
	return out, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id uint) (*models.OrderResponse, *ServiceError) {
	order, svcErr := s.findOrder(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	resp := models.NewOrderResponse(order)
	return &resp, nil
}

// UpdateStatus moves an order to status under the configured policy.
// completed_at is stamped when the order reaches completed.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.OrderResponse, *ServiceError) {
	if !status.Valid() {
		return nil, badRequest("Invalid status")
	}
	order, svcErr := s.findOrder(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if !s.cfg.Policy.Allows(order.Status, status) {
		return nil, badRequest(fmt.Sprintf("Cannot change status from %s to %s", order.Status, status))
	}

	updates := map[string]interface{}{"status": status}
	if status == models.StatusCompleted {
		updates["completed_at"] = s.cfg.Now().UTC()
	}
	ok, err := s.repo.Transition(ctx, id, order.Status, updates)
	if err != nil {
		s.logger.Error("Failed to update order status", zap.Uint("id", id), zap.Error(err))
		return nil, internalError("Failed to update order status")
	}
	if !ok {
		return nil, conflict("Order status changed concurrently, retry")
	}

	resp, svcErr := s.GetOrder(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	s.logger.Info("Order status updated",
		zap.Uint("id", id), zap.String("from", string(order.Status)), zap.String("to", string(status)))
	event := models.StatusChangedEvent{ID: id, Status: status}
	s.broadcaster.Broadcast(models.EventOrderStatusChanged, event, models.RoomKitchen, models.RoomAdmin)
	s.publish(ctx, models.EventOrderStatusChanged, id, event)
	return resp, nil
}

// ConfirmOrder records the payment method and moves a pending order to confirmed.
func (s *orderServiceImpl) ConfirmOrder(ctx context.Context, id uint, method models.PaymentMethod) (*models.OrderResponse, *ServiceError) {
	if method != models.PaymentCard && method != models.PaymentCash {
		return nil, badRequest("Payment method must be card or cash")
	}
	order, svcErr := s.findOrder(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	if order.Status != models.StatusPending {
		return nil, badRequest("Can only confirm pending orders")
	}

	ok, err := s.repo.Transition(ctx, id, models.StatusPending, map[string]interface{}{
		"status":         models.StatusConfirmed,
		"payment_method": method,
	})
	if err != nil {
		s.logger.Error("Failed to confirm order", zap.Uint("id", id), zap.Error(err))
		return nil, internalError("Failed to confirm order")
	}
	if !ok {
		return nil, badRequest("Can only confirm pending orders")
	}

	resp, svcErr := s.GetOrder(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}
	s.logger.Info("Order confirmed", zap.Uint("id", id), zap.String("payment_method", string(method)))
	event := models.StatusChangedEvent{ID: id, Status: models.StatusConfirmed, PaymentMethod: &method}
	s.broadcaster.Broadcast(models.EventOrderConfirmed, resp, models.RoomKitchen)
	s.broadcaster.Broadcast(models.EventOrderStatusChanged, event, models.RoomAdmin)
	s.publish(ctx, models.EventOrderConfirmed, id, resp)
	return resp, nil
}

// Cleanup deletes completed and cancelled orders older than the retention window.
func (s *orderServiceImpl) Cleanup(ctx context.Context) (*models.CleanupResult, *ServiceError) {
	cutoff := s.cfg.Now().Add(-s.cfg.Retention)
	deleted, err := s.repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Order cleanup failed", zap.Error(err))
		return nil, internalError("Failed to clean up orders")
	}
	if deleted > 0 {
		s.logger.Info("Old orders cleaned up", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return &models.CleanupResult{DeletedCount: deleted}, nil
}

// RunCleanup adapts Cleanup to StartPeriodic.
func RunCleanup(svc OrderService) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, svcErr := svc.Cleanup(ctx); svcErr != nil {
			return svcErr
		}
		return nil
	}
}

func (s *orderServiceImpl) findOrder(ctx context.Context, id uint) (*models.Order, *ServiceError) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Order not found")
		}
		s.logger.Error("Failed to fetch order", zap.Uint("id", id), zap.Error(err))
		return nil, internalError("Failed to fetch order")
	}
	return order, nil
}

func (s *orderServiceImpl) publish(ctx context.Context, event string, id uint, data interface{}) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event, strconv.FormatUint(uint64(id), 10), data); err != nil {
		s.logger.Warn("Order event not mirrored", zap.String("event", event), zap.Uint("id", id), zap.Error(err))
	}
}
