package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/yungbote/signage-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("blob not found")

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeGCS    Mode = "gcs"
	ModeMemory Mode = "memory"
)

// Object is an open blob; callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store holds media bytes addressable by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	// Delete is idempotent: a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Mode         Mode
	LocalDir     string
	GCSBucket    string
	EmulatorHost string
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(string(cfg.Mode)))) {
	case "", ModeLocal:
		return NewLocalStore(cfg.LocalDir, log)
	case ModeGCS:
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.EmulatorHost, log)
	case ModeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported BLOB_MODE %q", cfg.Mode)
	}
}

// ValidKey rejects keys that could escape a directory or bucket prefix.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return false
		}
	}
	return true
}

func contentTypeFor(key, declared string) string {
	if declared != "" {
		return declared
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
