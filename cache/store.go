// cache/store.go
package cache

import (
	"context"
	"time"
)

// Store is the pluggable cache layer. Values are JSON documents; callers
// own (de)serialization of their types.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
