// Package storage abstracts where uploaded photo bytes live.
package storage

import (
	"context"
	"io"
)

// Storage is the backend for photo blobs. Paths are relative keys chosen
// by the caller.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}
