package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"kiosk-service/models"
	"kiosk-service/repository"
	"kiosk-service/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event, _ string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type orderFixture struct {
	svc   services.OrderService
	db    *gorm.DB
	rec   *recordingBroadcaster
	pub   *recordingPublisher
	clock *time.Time
}

func newOrderFixture(t *testing.T, policy services.StatusPolicy) *orderFixture {
	db := newTestDB(t)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	f := &orderFixture{db: db, rec: &recordingBroadcaster{}, pub: &recordingPublisher{}, clock: &now}
	f.svc = services.NewOrderService(
		repository.NewGormOrderRepository(db),
		repository.NewGormMenuRepository(db),
		f.rec, f.pub,
		services.OrderServiceConfig{Policy: policy, Retention: 5 * time.Hour, Now: func() time.Time { return *f.clock }},
		zap.NewNop(),
	)
	return f
}

func (f *orderFixture) menuItem(t *testing.T, name, price string) *models.MenuItem {
	t.Helper()
	m := &models.MenuItem{Name: name, BaseType: models.BaseTomato, Price: *dec(price), IsAvailable: true, Ingredients: datatypes.JSON("[]")}
	require.NoError(t, f.db.Create(m).Error)
	return m
}

func (f *orderFixture) place(t *testing.T, items ...models.OrderItemRequest) *models.OrderResponse {
	t.Helper()
	resp, svcErr := f.svc.CreateOrder(context.Background(), models.CreateOrderRequest{DeviceID: "kiosk-1", Items: items})
	require.Nil(t, svcErr)
	return resp
}

func TestCreateOrder_TotalsAndSnapshots(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "8.00")

	resp := f.place(t,
		models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 2, Price: dec("9.50")},
		models.OrderItemRequest{Name: strPtr("Custom"), Price: dec("12.00"), Quantity: 1},
	)

	assert.Equal(t, "31.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, models.StatusPending, resp.Status)
	assert.Equal(t, "1", resp.OrderNumber)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "19.00", resp.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "Margherita", *resp.Items[0].Name)
	assert.Equal(t, "Custom", *resp.Items[1].Name)
	assert.Nil(t, resp.Items[1].MenuItemID)

	newEvents := f.rec.byEvent(models.EventOrderNew)
	require.Len(t, newEvents, 1)
	assert.ElementsMatch(t, []string{models.RoomKitchen, models.RoomAdmin}, newEvents[0].Rooms)
	assert.Equal(t, []string{models.EventOrderNew}, f.pub.events)

	// a later catalog change does not touch the stored order
	require.NoError(t, f.db.Model(m).Update("price", decimal.RequireFromString("20")).Error)
	again, svcErr := f.svc.GetOrder(context.Background(), resp.ID)
	require.Nil(t, svcErr)
	assert.Equal(t, "31.00", again.TotalAmount.StringFixed(2))
}

func TestCreateOrder_CatalogPriceFallback(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Regina", "11.50")

	resp := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 3})
	assert.Equal(t, "34.50", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "11.50", resp.Items[0].PriceAtOrder.StringFixed(2))
}

func TestCreateOrder_Customizations(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")

	resp := f.place(t, models.OrderItemRequest{
		MenuItemID: &m.ID, Quantity: 1, Price: dec("13.50"),
		Customizations: &models.CustomizationRequest{
			Size:        &models.CustomizationChoice{Name: "Large", Price: decimal.RequireFromString("3")},
			Ingredients: []models.CustomizationChoice{{Name: "Olives", Price: decimal.RequireFromString("1.5")}},
		},
	}, models.OrderItemRequest{Name: strPtr("Plain"), Price: dec("8"), Quantity: 1})

	c := resp.Items[0].Customizations
	require.NotNil(t, c)
	require.NotNil(t, c.Size)
	assert.Equal(t, "Large", c.Size.Name)
	require.Len(t, c.Ingredients, 1)
	assert.Equal(t, "Olives", c.Ingredients[0].Name)
	assert.Nil(t, resp.Items[1].Customizations)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")
	ctx := context.Background()

	cases := []struct {
		name   string
		req    models.CreateOrderRequest
		status int
	}{
		{"missing device", models.CreateOrderRequest{Items: []models.OrderItemRequest{{MenuItemID: &m.ID, Quantity: 1}}}, http.StatusBadRequest},
		{"no items", models.CreateOrderRequest{DeviceID: "kiosk-1"}, http.StatusBadRequest},
		{"zero quantity", models.CreateOrderRequest{DeviceID: "kiosk-1", Items: []models.OrderItemRequest{{MenuItemID: &m.ID}}}, http.StatusBadRequest},
		{"byo without name", models.CreateOrderRequest{DeviceID: "kiosk-1", Items: []models.OrderItemRequest{{Price: dec("5"), Quantity: 1}}}, http.StatusBadRequest},
		{"unknown menu item", models.CreateOrderRequest{DeviceID: "kiosk-1", Items: []models.OrderItemRequest{
			{MenuItemID: &m.ID, Quantity: 1},
			{MenuItemID: uintPtr(m.ID + 100), Quantity: 1},
		}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, svcErr := f.svc.CreateOrder(ctx, tc.req)
			require.NotNil(t, svcErr)
			assert.Equal(t, tc.status, svcErr.StatusCode)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.rec.byEvent(models.EventOrderNew))
}

func TestCreateOrder_ConcurrentNumbersAreUnique(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")

	const n = 8
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, svcErr := f.svc.CreateOrder(context.Background(), models.CreateOrderRequest{
				DeviceID: "kiosk-2", Items: []models.OrderItemRequest{{MenuItemID: &m.ID, Quantity: 1}},
			})
			if svcErr == nil {
				numbers <- resp.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestCreateOrder_PublisherFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	f.pub.err = errors.New("broker down")
	m := f.menuItem(t, "Margherita", "9")
	resp := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	assert.NotZero(t, resp.ID)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")
	order := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	ctx := context.Background()

	_, svcErr := f.svc.UpdateStatus(ctx, order.ID, "bogus")
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	unchanged, _ := f.svc.GetOrder(ctx, order.ID)
	assert.Equal(t, models.StatusPending, unchanged.Status)

	_, svcErr = f.svc.UpdateStatus(ctx, 999, models.StatusReady)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)

	// permissive: pending straight to ready
	resp, svcErr := f.svc.UpdateStatus(ctx, order.ID, models.StatusReady)
	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusReady, resp.Status)
	assert.Nil(t, resp.CompletedAt)

	resp, svcErr = f.svc.UpdateStatus(ctx, order.ID, models.StatusCompleted)
	require.Nil(t, svcErr)
	require.NotNil(t, resp.CompletedAt)

	changed := f.rec.byEvent(models.EventOrderStatusChanged)
	require.Len(t, changed, 2)
	assert.Equal(t, models.StatusChangedEvent{ID: order.ID, Status: models.StatusCompleted}, changed[1].Payload)
	assert.ElementsMatch(t, []string{models.RoomKitchen, models.RoomAdmin}, changed[1].Rooms)
}

func TestUpdateStatus_StrictPolicy(t *testing.T) {
	f := newOrderFixture(t, services.PolicyStrict)
	m := f.menuItem(t, "Margherita", "9")
	order := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	ctx := context.Background()

	_, svcErr := f.svc.UpdateStatus(ctx, order.ID, models.StatusReady)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)

	for _, st := range []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusReady, models.StatusCompleted} {
		_, svcErr = f.svc.UpdateStatus(ctx, order.ID, st)
		require.Nil(t, svcErr, "to %s", st)
	}
	_, svcErr = f.svc.UpdateStatus(ctx, order.ID, models.StatusCancelled)
	require.NotNil(t, svcErr)
}

func TestStatusPolicy_Allows(t *testing.T) {
	assert.True(t, services.PolicyPermissive.Allows(models.StatusCompleted, models.StatusPending))
	assert.True(t, services.PolicyStrict.Allows(models.StatusPending, models.StatusCancelled))
	assert.True(t, services.PolicyStrict.Allows(models.StatusReady, models.StatusReady))
	assert.False(t, services.PolicyStrict.Allows(models.StatusReady, models.StatusCancelled))
	assert.False(t, services.PolicyStrict.Allows(models.StatusCancelled, models.StatusPending))
}

func TestConfirmOrder(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")
	order := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	ctx := context.Background()

	_, svcErr := f.svc.ConfirmOrder(ctx, order.ID, "bitcoin")
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)

	_, svcErr = f.svc.ConfirmOrder(ctx, 999, models.PaymentCard)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)

	resp, svcErr := f.svc.ConfirmOrder(ctx, order.ID, models.PaymentCard)
	require.Nil(t, svcErr)
	assert.Equal(t, models.StatusConfirmed, resp.Status)
	require.NotNil(t, resp.PaymentMethod)
	assert.Equal(t, models.PaymentCard, *resp.PaymentMethod)

	confirmed := f.rec.byEvent(models.EventOrderConfirmed)
	require.Len(t, confirmed, 1)
	assert.Equal(t, []string{models.RoomKitchen}, confirmed[0].Rooms)
	changed := f.rec.byEvent(models.EventOrderStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, []string{models.RoomAdmin}, changed[0].Rooms)
	event := changed[0].Payload.(models.StatusChangedEvent)
	assert.Equal(t, models.PaymentCard, *event.PaymentMethod)

	// second confirm is a precondition failure and leaves the order alone
	_, svcErr = f.svc.ConfirmOrder(ctx, order.ID, models.PaymentCash)
	require.NotNil(t, svcErr)
	assert.Equal(t, "Can only confirm pending orders", svcErr.Message)
	again, _ := f.svc.GetOrder(ctx, order.ID)
	assert.Equal(t, models.PaymentCard, *again.PaymentMethod)
}

func TestCleanup(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")
	ctx := context.Background()

	old := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	oldPending := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	_, svcErr := f.svc.UpdateStatus(ctx, old.ID, models.StatusCompleted)
	require.Nil(t, svcErr)

	*f.clock = f.clock.Add(6 * time.Hour)
	recent := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
	_, svcErr = f.svc.UpdateStatus(ctx, recent.ID, models.StatusCancelled)
	require.Nil(t, svcErr)

	result, svcErr := f.svc.Cleanup(ctx)
	require.Nil(t, svcErr)
	assert.Equal(t, int64(1), result.DeletedCount)

	_, svcErr = f.svc.GetOrder(ctx, old.ID)
	require.NotNil(t, svcErr)
	_, svcErr = f.svc.GetOrder(ctx, oldPending.ID)
	assert.Nil(t, svcErr)
	_, svcErr = f.svc.GetOrder(ctx, recent.ID)
	assert.Nil(t, svcErr)

	var orphans int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Where("order_id = ?", old.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "9")
	for i := 0; i < 3; i++ {
		f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1})
		*f.clock = f.clock.Add(time.Minute)
	}

	orders, svcErr := f.svc.ListOrders(context.Background(), models.OrderFilter{})
	require.Nil(t, svcErr)
	require.Len(t, orders, 3)
	assert.Equal(t, "3", orders[0].OrderNumber)

	orders, svcErr = f.svc.ListOrders(context.Background(), models.OrderFilter{Limit: 2, Status: "pending"})
	require.Nil(t, svcErr)
	assert.Len(t, orders, 2)
}
