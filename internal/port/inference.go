package port

import (
	"context"
	"encoding/json"
)

// InvokeInput carries one inference request. Exactly one of GSURI (with
// MimeType) or InlineData (with InlineMimeType) must be set.
type InvokeInput struct {
	Location       string
	Model          string
	Prompt         string
	GSURI          string
	MimeType       string
	InlineData     []byte
	InlineMimeType string
	UseBatch       bool
}

// Inference abstracts the model inference capability. The raw provider
// response is returned untouched so callers keep full diagnostic detail.
type Inference interface {
	Invoke(ctx context.Context, in InvokeInput) (json.RawMessage, error)
}
