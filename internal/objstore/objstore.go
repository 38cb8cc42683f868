// Package objstore is the object-storage collaborator contract. The core
// only ever signs keys it resolved from URLs already recorded on a record's
// attachment list; implementations just move bytes and mint URLs.
package objstore

import (
	"context"
	"time"
)

// Storage stores attachment blobs and mints URLs for them.
type Storage interface {
	// Put writes the object and returns its durable URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// SignedGet returns a time-limited download URL for the key.
	SignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// KeyFromURL maps a URL this store minted back to its key. Returns
	// false for URLs that did not come from this store.
	KeyFromURL(url string) (string, bool)
}
