// Package metadata is the client's key/value store. The vault keeps the
// sealed identity and the device identifier here.
package metadata

import (
	"context"
)

// Repository reads and writes opaque values by key. Get reports a missing
// key as common.ErrorNotFound.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
