package services_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sync"
	"testing"

	"kiosk-service/cache"
	"kiosk-service/database"
	"kiosk-service/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = database.Migrate(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	return db
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }
func boolPtr(b bool) *bool    { return &b }

// ---- broadcast recorder ----

type broadcast struct {
	Event   string
	Payload interface{}
	Rooms   []string
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (r *recordingBroadcaster) Broadcast(event string, payload interface{}, rooms ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcast{Event: event, Payload: payload, Rooms: rooms})
}

func (r *recordingBroadcaster) byEvent(event string) []broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broadcast
	for _, b := range r.events {
		if b.Event == event {
			out = append(out, b)
		}
	}
	return out
}

// ---- in-memory image store ----

type memoryImages struct {
	mu      sync.Mutex
	files   map[string][]byte
	next    int
	saveErr error
}

func newMemoryImages() *memoryImages {
	return &memoryImages{files: map[string][]byte{}}
}

func (m *memoryImages) Save(_ context.Context, fh *multipart.FileHeader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	name := fmt.Sprintf("img-%d%s", m.next, filepath.Ext(fh.Filename))
	m.files[name] = data
	return name, nil
}

func (m *memoryImages) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	return nil
}

func (m *memoryImages) Open(_ context.Context, name string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

func (m *memoryImages) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *memoryImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func upload(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

var noCache = cache.Noop{}
