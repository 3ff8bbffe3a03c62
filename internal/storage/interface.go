package storage

import (
	"context"
	"io"
)

// Storage archives uploaded CSV payloads and serves them back for replay.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, key string, data io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}
