package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"kiosk-service/services"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStartPeriodic_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs int32
	done := services.StartPeriodic(ctx, "test", 5*time.Millisecond, zap.NewNop(), func(context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
