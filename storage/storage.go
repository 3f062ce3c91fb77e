package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when no image is stored under the name.
var ErrNotFound = errors.New("image not found")

// ImageStore keeps uploaded menu and ingredient images. Records reference
// images by the bare file name returned from Save.
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, name string) error
	Open(ctx context.Context, name string) (*Object, error)
}

// Object is an opened image ready to be streamed to a client.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// NewFileName builds `<unix-ms>-<random><ext>` for an upload, keeping the
// original lower-cased extension.
func NewFileName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), uuid.New().ID()%1_000_000_000, ext)
}

// cleanName rejects anything that is not a single path element.
func cleanName(name string) (string, error) {
	base := path.Base(filepath.ToSlash(name))
	if name == "" || base != name || base == "." || base == ".." {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	return base, nil
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
