package service

import (
	"context"
	"time"

	"invoscan/internal/cache"
	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// Signed URL TTL bounds, in seconds. The provider rejects anything above
// seven days.
const (
	MinSignedURLTTLSec     = 60
	MaxSignedURLTTLSec     = 604800
	DefaultSignedURLTTLSec = 3600
)

// URLService mints short-lived read URLs for stored objects, reusing cached
// URLs while they still have comfortable validity left.
type URLService struct {
	storage port.ObjectStorage
	cache   *cache.Cache
}

// NewURLService wires a URLService.
func NewURLService(storage port.ObjectStorage, c *cache.Cache) *URLService {
	return &URLService{storage: storage, cache: c}
}

// SignedURL returns a signed GET URL for the gs:// URI. A cached URL is reused
// while it has more than a minute of validity left. With reset the cache is
// bypassed and repopulated.
func (s *URLService) SignedURL(ctx context.Context, gsURI string, ttlSec int64, reset bool) (*domain.SignedURLResult, error) {
	bucket, object, err := splitGSURI(gsURI)
	if err != nil {
		return nil, err
	}
	if ttlSec <= 0 {
		ttlSec = DefaultSignedURLTTLSec
	}
	if ttlSec < MinSignedURLTTLSec {
		ttlSec = MinSignedURLTTLSec
	}
	if ttlSec > MaxSignedURLTTLSec {
		ttlSec = MaxSignedURLTTLSec
	}

	key := cache.Key("signedurl", gsURI)
	if !reset {
		if entry, ok := s.cache.Read(ctx, cache.SignedURLCollection, key); ok {
			url, _ := entry["url"].(string)
			expires, _ := entry["expires"].(float64)
			cachedAt, _ := entry["cachedAt"].(string)
			if url != "" && int64(expires)-time.Now().Unix() > MinSignedURLTTLSec {
				return &domain.SignedURLResult{
					URL:      url,
					Expires:  int64(expires),
					Cached:   true,
					CachedAt: cachedAt,
				}, nil
			}
		}
	}

	url, err := s.storage.SignedURL(ctx, bucket, object, time.Duration(ttlSec)*time.Second)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Unix() + ttlSec
	s.cache.Write(ctx, cache.SignedURLCollection, key, map[string]any{
		"url":      url,
		"expires":  expires,
		"gsUri":    gsURI,
		"cachedAt": nowISO(),
	})
	return &domain.SignedURLResult{URL: url, Expires: expires}, nil
}
