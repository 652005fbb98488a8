// Package cache provides a best-effort cache on top of the document store.
// Read failures degrade to misses and write failures are logged and dropped,
// so a broken cache never fails the request it was meant to speed up.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// Cache collection names.
const (
	URLCollection       = "urlCache"
	ProcessCollection   = "processCache"
	SignedURLCollection = "signedUrlCache"
	SummaryCollection   = "summaryCache"
)

// Key derives a stable document ID from the given parts joined with "|".
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// ProcessKey derives the cache key for one inference result.
func ProcessKey(gsURI, model, prompt string) string {
	return Key(gsURI, model, prompt)
}

// URLKey derives the cache key for a downloaded URL.
func URLKey(url string) string {
	return Key(url)
}

// Cache decorates a document store with best-effort semantics.
type Cache struct {
	store port.DocumentStore
}

// New creates a Cache over the given store.
func New(store port.DocumentStore) *Cache {
	return &Cache{store: store}
}

// Read returns the cached entry, or (nil, false) on a miss. Store errors are
// treated as misses and logged.
func (c *Cache) Read(ctx context.Context, collection, key string) (map[string]any, bool) {
	data, err := c.store.Get(ctx, collection, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("cache: read %s/%s failed, treating as miss: %v", collection, key, err)
		}
		return nil, false
	}
	return data, true
}

// Write stores the entry. Failures are logged and dropped.
func (c *Cache) Write(ctx context.Context, collection, key string, data map[string]any) {
	if err := c.store.Upsert(ctx, collection, key, data); err != nil {
		log.Printf("cache: write %s/%s failed: %v", collection, key, err)
	}
}
