package services

import (
	"context"
	"time"

	"kiosk-service/models"
	"kiosk-service/repository"

	"go.uber.org/zap"
)

// DeviceService tracks device liveness.
type DeviceService interface {
	Heartbeat(ctx context.Context, deviceID string, deviceType models.DeviceType) error
	Disconnect(ctx context.Context, deviceID string) error
	Sweep(ctx context.Context) (int64, error)
	ListDevices(ctx context.Context) ([]models.Device, *ServiceError)
}

type deviceServiceImpl struct {
	repo    repository.DeviceRepository
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewDeviceService creates a DeviceService. Devices silent for longer than
// timeout are marked offline by Sweep.
func NewDeviceService(repo repository.DeviceRepository, timeout time.Duration, now func() time.Time, logger *zap.Logger) DeviceService {
	if now == nil {
		now = time.Now
	}
	return &deviceServiceImpl{repo: repo, timeout: timeout, now: now, logger: logger}
}

// Heartbeat records the device as online now.
func (s *deviceServiceImpl) Heartbeat(ctx context.Context, deviceID string, deviceType models.DeviceType) error {
	if err := s.repo.Heartbeat(ctx, deviceID, deviceType, s.now()); err != nil {
		s.logger.Error("Heartbeat update failed", zap.String("device_id", deviceID), zap.Error(err))
		return err
	}
	return nil
}

func (s *deviceServiceImpl) Disconnect(ctx context.Context, deviceID string) error {
	return s.repo.SetStatus(ctx, deviceID, models.DeviceOffline)
}

// Sweep marks devices offline once their last heartbeat is older than the timeout.
func (s *deviceServiceImpl) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkStale(ctx, s.now().Add(-s.timeout))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Stale devices marked offline", zap.Int64("count", n))
	}
	return n, nil
}

func (s *deviceServiceImpl) ListDevices(ctx context.Context) ([]models.Device, *ServiceError) {
	devices, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list devices", zap.Error(err))
		return nil, internalError("Failed to fetch devices")
	}
	return devices, nil
}

// RunSweep adapts Sweep to StartPeriodic.
func RunSweep(svc DeviceService) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := svc.Sweep(ctx)
		return err
	}
}
