package services_test

import (
	"context"
	"testing"
	"time"

	"kiosk-service/database"
	"kiosk-service/models"
	"kiosk-service/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedCounter models.ConnectionCounts

func (c fixedCounter) Counts() models.ConnectionCounts { return models.ConnectionCounts(c) }

func TestSalesReport(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	m := f.menuItem(t, "Margherita", "10")
	ctx := context.Background()

	a := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 2})
	b := f.place(t, models.OrderItemRequest{MenuItemID: &m.ID, Quantity: 1, Price: dec("7.25")})
	f.place(t, models.OrderItemRequest{Name: strPtr("Custom"), Price: dec("12.50"), Quantity: 1})
	_, svcErr := f.svc.UpdateStatus(ctx, a.ID, models.StatusCompleted)
	require.Nil(t, svcErr)
	_, svcErr = f.svc.UpdateStatus(ctx, b.ID, models.StatusCancelled)
	require.Nil(t, svcErr)

	reports := services.NewReportService(database.NewGateway(f.db), nil, "test", zap.NewNop())
	report, svcErr := reports.Sales(ctx)
	require.Nil(t, svcErr)

	assert.Equal(t, int64(3), report.Total)
	assert.Equal(t, "32.5", report.Revenue.String())
	assert.Equal(t, int64(1), report.ByStatus[models.StatusPending])
	assert.Equal(t, int64(1), report.ByStatus[models.StatusCompleted])
	assert.Equal(t, int64(1), report.ByStatus[models.StatusCancelled])
	assert.Equal(t, int64(0), report.ByStatus[models.StatusReady])
	assert.Len(t, report.ByStatus, len(models.OrderStatuses))
}

func TestSalesReport_RevenueIsExact(t *testing.T) {
	f := newOrderFixture(t, services.PolicyPermissive)
	ctx := context.Background()

	a := f.place(t, models.OrderItemRequest{Name: strPtr("Espresso"), Price: dec("0.10"), Quantity: 1})
	b := f.place(t, models.OrderItemRequest{Name: strPtr("Sugar"), Price: dec("0.20"), Quantity: 1})
	for _, id := range []uint{a.ID, b.ID} {
		_, svcErr := f.svc.UpdateStatus(ctx, id, models.StatusCompleted)
		require.Nil(t, svcErr)
	}

	report, svcErr := services.NewReportService(database.NewGateway(f.db), nil, "test", zap.NewNop()).Sales(ctx)
	require.Nil(t, svcErr)
	assert.Equal(t, "0.3", report.Revenue.String())
	assert.True(t, report.Revenue.Equal(decimal.RequireFromString("0.30")))
}

func TestSalesReport_Empty(t *testing.T) {
	db := newTestDB(t)
	report, svcErr := services.NewReportService(database.NewGateway(db), nil, "test", zap.NewNop()).Sales(context.Background())
	require.Nil(t, svcErr)
	assert.Zero(t, report.Total)
	assert.True(t, report.Revenue.IsZero())
}

func TestHealth(t *testing.T) {
	db := newTestDB(t)
	counter := fixedCounter{Total: 3, Kiosks: 2, Kitchen: 1}
	svc := services.NewReportService(database.NewGateway(db), counter, "1.2.3", zap.NewNop())

	h, ok := svc.Health(context.Background())
	require.True(t, ok)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "connected", h.Database)
	assert.Equal(t, "1.2.3", h.Version)
	assert.Equal(t, 2, h.Devices.Kiosks)
	assert.WithinDuration(t, time.Now().UTC(), h.Timestamp, time.Minute)

	require.NoError(t, database.Close(db))
	h, ok = svc.Health(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "error", h.Status)
	assert.Equal(t, "error", h.Database)
}
