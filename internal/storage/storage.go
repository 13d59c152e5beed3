package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/PauloHFS/hcportal/internal/config"
)

// Store persists uploaded files and returns the URL they are served from.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New escolhe o backend a partir de STORAGE_DRIVER.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir, "/storage/")
	case "minio":
		return NewMinIO(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
