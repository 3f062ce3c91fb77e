package services

import (
	"context"
	"net/http"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

func badRequest(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg}
}

func notFound(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Message: msg}
}

func conflict(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Message: msg}
}

func internalError(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: msg}
}

// Broadcaster pushes an event to every connection in the given rooms.
// Delivery is at most once.
type Broadcaster interface {
	Broadcast(event string, payload interface{}, rooms ...string)
}

// CatalogCache caches catalog reads. Get returns the catalog version it
// looked under; a miss is filled with Set under that same version so a read
// racing a write is never stored as current. Set must not block the caller.
type CatalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) (version int64, hit bool)
	Set(version int64, key string, value interface{})
	Invalidate(ctx context.Context)
}

// EventPublisher mirrors domain events to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event, key string, data interface{}) error
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, interface{}, ...string) {}
