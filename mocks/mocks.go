// Package mocks provides testify mocks for the port interfaces.
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// MockDocumentStore is a mock implementation of port.DocumentStore.
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockDocumentStore) List(ctx context.Context, collection string, pageSize int) ([]port.Document, error) {
	args := m.Called(ctx, collection, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.Document), args.Error(1)
}

func (m *MockDocumentStore) Upsert(ctx context.Context, collection, id string, data map[string]any) error {
	args := m.Called(ctx, collection, id, data)
	return args.Error(0)
}

// MockObjectStorage is a mock implementation of port.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutput), args.Error(1)
}

func (m *MockObjectStorage) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, object, ttl)
	return args.String(0), args.Error(1)
}

// MockInference is a mock implementation of port.Inference.
type MockInference struct {
	mock.Mock
}

func (m *MockInference) Invoke(ctx context.Context, in port.InvokeInput) (json.RawMessage, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockDriveSource is a mock implementation of port.DriveSource.
type MockDriveSource struct {
	mock.Mock
}

func (m *MockDriveSource) ListPDFs(ctx context.Context, folderID string, pageSize int) ([]domain.SourceFile, error) {
	args := m.Called(ctx, folderID, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceFile), args.Error(1)
}

func (m *MockDriveSource) Download(ctx context.Context, fileID string) ([]byte, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockZohoSource is a mock implementation of port.ZohoSource.
type MockZohoSource struct {
	mock.Mock
}

func (m *MockZohoSource) ListFiles(ctx context.Context, reportURL string, count int) ([]domain.SourceFile, error) {
	args := m.Called(ctx, reportURL, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceFile), args.Error(1)
}

// MockFileFetcher is a mock implementation of port.FileFetcher.
type MockFileFetcher struct {
	mock.Mock
}

func (m *MockFileFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
