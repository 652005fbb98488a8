package port

import (
	"context"
	"time"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	URI       string
	SizeBytes int64
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)
}
