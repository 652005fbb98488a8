package port

import "context"

// Document is one stored document with its decoded field map.
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentStore abstracts the document database. Get returns
// domain.ErrNotFound when the document does not exist. Upsert overwrites the
// full document; partial updates are never observable.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	List(ctx context.Context, collection string, pageSize int) ([]Document, error)
	Upsert(ctx context.Context, collection, id string, data map[string]any) error
}
