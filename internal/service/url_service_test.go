package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoscan/internal/cache"
	"invoscan/internal/domain"
	"invoscan/mocks"
)

func TestSignedURLInvalidURI(t *testing.T) {
	svc := NewURLService(new(mocks.MockObjectStorage), cache.New(new(mocks.MockDocumentStore)))

	for _, uri := range []string{"", "http://x/y", "gs://", "gs://bucket", "gs://bucket/"} {
		_, err := svc.SignedURL(context.Background(), uri, 0, false)
		assert.ErrorIs(t, err, domain.ErrInvalidGSURI, "uri %q", uri)
	}
}

func TestSignedURLClampsTTL(t *testing.T) {
	tests := []struct {
		name    string
		ttlSec  int64
		wantTTL time.Duration
	}{
		{"default", 0, time.Duration(DefaultSignedURLTTLSec) * time.Second},
		{"below minimum", 5, time.Duration(MinSignedURLTTLSec) * time.Second},
		{"above maximum", 10_000_000, time.Duration(MaxSignedURLTTLSec) * time.Second},
		{"in range", 7200, 7200 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.MockDocumentStore)
			store.On("Get", mock.Anything, cache.SignedURLCollection, mock.Anything).Return(nil, domain.ErrNotFound)
			store.On("Upsert", mock.Anything, cache.SignedURLCollection, mock.Anything, mock.Anything).Return(nil)

			storage := new(mocks.MockObjectStorage)
			storage.On("SignedURL", mock.Anything, "bucket", "uploads/a.pdf", tt.wantTTL).
				Return("https://signed.example/x", nil)

			svc := NewURLService(storage, cache.New(store))
			result, err := svc.SignedURL(context.Background(), "gs://bucket/uploads/a.pdf", tt.ttlSec, false)
			require.NoError(t, err)
			assert.Equal(t, "https://signed.example/x", result.URL)
			assert.False(t, result.Cached)
			storage.AssertExpectations(t)
		})
	}
}

func TestSignedURLReusesCachedWhileValid(t *testing.T) {
	expires := time.Now().Unix() + 600
	store := new(mocks.MockDocumentStore)
	store.On("Get", mock.Anything, cache.SignedURLCollection, mock.Anything).Return(map[string]any{
		"url":      "https://signed.example/cached",
		"expires":  float64(expires),
		"cachedAt": nowISO(),
	}, nil)

	storage := new(mocks.MockObjectStorage)
	svc := NewURLService(storage, cache.New(store))

	result, err := svc.SignedURL(context.Background(), "gs://bucket/uploads/a.pdf", 3600, false)
	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, "https://signed.example/cached", result.URL)
	assert.Equal(t, expires, result.Expires)
	storage.AssertNotCalled(t, "SignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignedURLNearExpiryMintsFresh(t *testing.T) {
	// Less than a minute of validity left means the cached URL is not worth
	// handing out.
	store := new(mocks.MockDocumentStore)
	store.On("Get", mock.Anything, cache.SignedURLCollection, mock.Anything).Return(map[string]any{
		"url":      "https://signed.example/stale",
		"expires":  float64(time.Now().Unix() + 30),
		"cachedAt": nowISO(),
	}, nil)
	store.On("Upsert", mock.Anything, cache.SignedURLCollection, mock.Anything, mock.Anything).Return(nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("SignedURL", mock.Anything, "bucket", "uploads/a.pdf", mock.Anything).
		Return("https://signed.example/fresh", nil)

	svc := NewURLService(storage, cache.New(store))
	result, err := svc.SignedURL(context.Background(), "gs://bucket/uploads/a.pdf", 3600, false)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, "https://signed.example/fresh", result.URL)
}

func TestSignedURLResetBypassesCache(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("Upsert", mock.Anything, cache.SignedURLCollection, mock.Anything, mock.Anything).Return(nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("SignedURL", mock.Anything, "bucket", "uploads/a.pdf", mock.Anything).
		Return("https://signed.example/fresh", nil)

	svc := NewURLService(storage, cache.New(store))
	result, err := svc.SignedURL(context.Background(), "gs://bucket/uploads/a.pdf", 3600, true)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}
