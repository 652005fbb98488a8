// Package gcs implements object storage on Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"invoscan/internal/port"
)

// Client wraps a Cloud Storage client. It implements port.ObjectStorage.
type Client struct {
	client *storage.Client
}

// NewClient creates a Client using application default credentials.
func NewClient(ctx context.Context) (*Client, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &Client{client: c}, nil
}

// Upload writes the body to the given bucket and key and returns the gs:// URI
// along with the stored size.
func (c *Client) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	w := c.client.Bucket(input.Bucket).Object(input.Key).NewWriter(ctx)
	if input.ContentType != "" {
		w.ContentType = input.ContentType
	}
	if _, err := w.Write(input.Body); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("writing object %s: %w", input.Key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing object %s: %w", input.Key, err)
	}
	return &port.UploadOutput{
		URI:       fmt.Sprintf("gs://%s/%s", input.Bucket, input.Key),
		SizeBytes: int64(len(input.Body)),
	}, nil
}

// SignedURL returns a V4 signed GET URL for the object with the given TTL.
func (c *Client) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	url, err := c.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("signing url for gs://%s/%s: %w", bucket, object, err)
	}
	return url, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}
