package services

import (
	"context"
	"time"

	"kiosk-service/database"
	"kiosk-service/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService serves aggregate reads that do not map onto a model.
type ReportService interface {
	Sales(ctx context.Context) (*models.SalesReport, *ServiceError)
	Health(ctx context.Context) (*models.Health, bool)
}

// ConnectionCounter reports live connections.
type ConnectionCounter interface {
	Counts() models.ConnectionCounts
}

type reportServiceImpl struct {
	gateway     *database.Gateway
	connections ConnectionCounter
	version     string
	startedAt   time.Time
	logger      *zap.Logger
}

// NewReportService creates a ReportService.
func NewReportService(gateway *database.Gateway, connections ConnectionCounter, version string, logger *zap.Logger) ReportService {
	return &reportServiceImpl{
		gateway:     gateway,
		connections: connections,
		version:     version,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// Sales counts all orders, sums revenue over non-cancelled orders and
// breaks the count down by status. Revenue is summed in integer cents;
// SQLite stores the amounts as REAL and a float SUM drifts.
func (s *reportServiceImpl) Sales(ctx context.Context) (*models.SalesReport, *ServiceError) {
	var totals struct {
		Total        int64
		RevenueCents int64
	}
	err := s.gateway.QueryOne(ctx, &totals,
		`SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status <> ? THEN CAST(ROUND(total_amount * 100) AS INTEGER) ELSE 0 END), 0) AS revenue_cents
		FROM orders`,
		models.StatusCancelled)
	if err != nil {
		s.logger.Error("Failed to compute sales totals", zap.Error(err))
		return nil, internalError("Failed to compute sales report")
	}

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := s.gateway.Query(ctx, &rows, "SELECT status, COUNT(*) AS count FROM orders GROUP BY status"); err != nil {
		s.logger.Error("Failed to compute sales by status", zap.Error(err))
		return nil, internalError("Failed to compute sales report")
	}

	report := &models.SalesReport{
		Total:    totals.Total,
		Revenue:  decimal.New(totals.RevenueCents, -2),
		ByStatus: make(map[models.OrderStatus]int64, len(models.OrderStatuses)),
	}
	for _, st := range models.OrderStatuses {
		report.ByStatus[st] = 0
	}
	for _, r := range rows {
		report.ByStatus[r.Status] = r.Count
	}
	return report, nil
}

// Health reports liveness, database reachability and connected devices.
// The bool is false when the database check failed.
func (s *reportServiceImpl) Health(ctx context.Context) (*models.Health, bool) {
	h := &models.Health{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.startedAt).Seconds(),
		Version:   s.version,
		Database:  "connected",
	}
	if err := s.gateway.Ping(ctx); err != nil {
		s.logger.Error("Database health check failed", zap.Error(err))
		h.Database = "error"
		h.Status = "error"
	}
	if s.connections != nil {
		h.Devices = s.connections.Counts()
	}
	return h, h.Status == "ok"
}
