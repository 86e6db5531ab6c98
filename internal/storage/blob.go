package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mind-engage/mindengage-alloy/internal/config"
)

var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore holds raw uploads such as archived CSV imports.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string) (string, error) // fs returns "file://..." for dev
}

// Open selects the blob backend named by cfg.BlobDriver.
func Open(ctx context.Context, cfg config.Config) (BlobStore, error) {
	switch cfg.BlobDriver {
	case "", "fs":
		return NewFSStore(cfg.BlobBasePath)
	case "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.BlobDriver)
	}
}
