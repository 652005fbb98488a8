// Package fsdb implements the document store on Firestore.
package fsdb

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// Store wraps a Firestore client. It implements port.DocumentStore.
type Store struct {
	client *firestore.Client
}

// New wraps an existing Firestore client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Resolve opens the named Firestore database, falling back to the default
// database when the named one does not exist. An empty databaseID selects the
// default database directly.
func Resolve(ctx context.Context, projectID, databaseID string) (*Store, error) {
	if databaseID == "" || databaseID == firestore.DefaultDatabaseID {
		c, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("creating firestore client: %w", err)
		}
		return New(c), nil
	}

	c, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client for database %s: %w", databaseID, err)
	}

	// The client connects lazily, so probe with a cheap read. A missing
	// document is fine; a missing database comes back NOT_FOUND naming the
	// database resource.
	_, err = c.Collection("Sampling").Doc("__resolve_probe__").Get(ctx)
	if err != nil && status.Code(err) == codes.NotFound && strings.Contains(strings.ToLower(err.Error()), "database") {
		log.Printf("fsdb: database %s not found, falling back to default database", databaseID)
		_ = c.Close()
		fallback, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("creating fallback firestore client: %w", err)
		}
		return New(fallback), nil
	}
	return New(c), nil
}

// Get fetches one document. Returns domain.ErrNotFound when it does not exist.
func (s *Store) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}
	return snap.Data(), nil
}

// List returns up to pageSize documents from the collection. A pageSize of
// zero or less returns all documents.
func (s *Store) List(ctx context.Context, collection string, pageSize int) ([]port.Document, error) {
	q := s.client.Collection(collection).Query
	if pageSize > 0 {
		q = q.Limit(pageSize)
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var docs []port.Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", collection, err)
		}
		docs = append(docs, port.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// Upsert writes the full document, replacing any existing content.
func (s *Store) Upsert(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
