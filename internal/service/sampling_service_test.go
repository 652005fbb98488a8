package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoscan/internal/domain"
	"invoscan/internal/extract"
	"invoscan/internal/port"
	"invoscan/internal/schema"
	"invoscan/mocks"
)

func newSamplingService(
	store *mocks.MockDocumentStore,
	storage *mocks.MockObjectStorage,
	infer *mocks.MockInference,
	driveSrc *mocks.MockDriveSource,
	zohoSrc *mocks.MockZohoSource,
	fetch *mocks.MockFileFetcher,
) *SamplingService {
	return NewSamplingService(
		store, storage, infer, driveSrc, zohoSrc, fetch,
		extract.NewReconciler(schema.NewTable(nil)), testConfig(),
	)
}

func driveFile(id, name string) domain.SourceFile {
	return domain.SourceFile{
		SourceID:        id,
		Origin:          domain.OriginDrive,
		OriginalLocator: "folder123",
		DisplayName:     name,
	}
}

func TestRunDriveProcessesEveryFile(t *testing.T) {
	files := []domain.SourceFile{
		driveFile("f1", "a.pdf"),
		driveFile("f2", "b.pdf"),
		driveFile("f3", "c.pdf"),
	}

	driveSrc := new(mocks.MockDriveSource)
	driveSrc.On("ListPDFs", mock.Anything, "folder123", DefaultDriveLimit).Return(files, nil)
	driveSrc.On("Download", mock.Anything, mock.Anything).Return([]byte("%PDF"), nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{URI: "gs://test-bucket/uploads/u.pdf", SizeBytes: 4}, nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.Anything).Return(vertexRaw(t, map[string]any{
		"fields":            map[string]any{"Invoice_Number": "INV-1"},
		"fields_confidence": map[string]any{"Invoice_Number": 0.8},
	}), nil)

	store := new(mocks.MockDocumentStore)
	store.On("Upsert", mock.Anything, CollectionSampling, mock.Anything, mock.Anything).Return(nil)

	svc := newSamplingService(store, storage, infer, driveSrc, new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	result, err := svc.RunDrive(context.Background(), "folder123", 0, 2, "")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Zero(t, result.Failed)
	assert.Len(t, result.Results, 3)
	assert.InDelta(t, 0.8, result.AvgConfidenceOverall, 1e-9)
	store.AssertNumberOfCalls(t, "Upsert", 3)
}

func TestRunDriveAcceptsFolderLink(t *testing.T) {
	driveSrc := new(mocks.MockDriveSource)
	driveSrc.On("ListPDFs", mock.Anything, "abc_DEF-123", DefaultDriveLimit).Return([]domain.SourceFile{}, nil)

	svc := newSamplingService(new(mocks.MockDocumentStore), new(mocks.MockObjectStorage), new(mocks.MockInference), driveSrc, new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	result, err := svc.RunDrive(context.Background(), "https://drive.google.com/drive/folders/abc_DEF-123?usp=sharing", 0, 1, "")
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	driveSrc.AssertExpectations(t)
}

func TestRunDriveUnitFailureDoesNotAbortSiblings(t *testing.T) {
	files := []domain.SourceFile{
		driveFile("good", "a.pdf"),
		driveFile("bad", "b.pdf"),
	}

	driveSrc := new(mocks.MockDriveSource)
	driveSrc.On("ListPDFs", mock.Anything, "folder123", DefaultDriveLimit).Return(files, nil)
	driveSrc.On("Download", mock.Anything, "good").Return([]byte("%PDF"), nil)
	driveSrc.On("Download", mock.Anything, "bad").Return(nil, fmt.Errorf("download exploded"))

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{URI: "gs://test-bucket/uploads/u.pdf", SizeBytes: 4}, nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.Anything).Return(vertexRaw(t, map[string]any{
		"fields":            map[string]any{"Invoice_Number": "INV-1"},
		"fields_confidence": map[string]any{"Invoice_Number": 0.9},
	}), nil)

	store := new(mocks.MockDocumentStore)
	store.On("Upsert", mock.Anything, CollectionSampling, "good", mock.Anything).Return(nil)

	svc := newSamplingService(store, storage, infer, driveSrc, new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	result, err := svc.RunDrive(context.Background(), "folder123", 0, 1, "")

	// The run is a success even though a unit failed.
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad", result.Errors[0].RecordID)
	assert.Contains(t, result.Errors[0].Error, "download exploded")
}

func TestRunDriveUnparseableOutputRecordsZeroConfidence(t *testing.T) {
	files := []domain.SourceFile{
		driveFile("good", "a.pdf"),
		driveFile("junk", "b.pdf"),
	}

	driveSrc := new(mocks.MockDriveSource)
	driveSrc.On("ListPDFs", mock.Anything, "folder123", DefaultDriveLimit).Return(files, nil)
	driveSrc.On("Download", mock.Anything, "good").Return([]byte("%PDF-good"), nil)
	driveSrc.On("Download", mock.Anything, "junk").Return([]byte("%PDF-junk"), nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{URI: "gs://test-bucket/uploads/u.pdf", SizeBytes: 4}, nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.MatchedBy(func(in port.InvokeInput) bool {
		return bytes.Equal(in.InlineData, []byte("%PDF-good"))
	})).Return(vertexRaw(t, map[string]any{
		"fields":            map[string]any{"Invoice_Number": "INV-1"},
		"fields_confidence": map[string]any{"Invoice_Number": 0.8},
	}), nil)
	infer.On("Invoke", mock.Anything, mock.MatchedBy(func(in port.InvokeInput) bool {
		return bytes.Equal(in.InlineData, []byte("%PDF-junk"))
	})).Return(vertexRawText(t, "I'm sorry, I cannot read this document."), nil)

	store := new(mocks.MockDocumentStore)
	store.On("Upsert", mock.Anything, CollectionSampling, "good", mock.Anything).Return(nil)
	// The garbage unit still lands as a record, at zero confidence.
	store.On("Upsert", mock.Anything, CollectionSampling, "junk", mock.MatchedBy(func(data map[string]any) bool {
		return data["avg_confidence_score"] == float64(0) && data["extracted"] != nil
	})).Return(nil)

	svc := newSamplingService(store, storage, infer, driveSrc, new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	result, err := svc.RunDrive(context.Background(), "folder123", 0, 1, "")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Failed)
	// The run average counts the zero-confidence unit instead of dropping it.
	assert.InDelta(t, 0.4, result.AvgConfidenceOverall, 1e-9)
	store.AssertExpectations(t)
}

func TestRunDriveLimitClamped(t *testing.T) {
	driveSrc := new(mocks.MockDriveSource)
	driveSrc.On("ListPDFs", mock.Anything, "folder123", MaxDriveLimit).Return([]domain.SourceFile{}, nil)

	svc := newSamplingService(new(mocks.MockDocumentStore), new(mocks.MockObjectStorage), new(mocks.MockInference), driveSrc, new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	_, err := svc.RunDrive(context.Background(), "folder123", 5000, 1, "")
	require.NoError(t, err)
	driveSrc.AssertExpectations(t)
}

func TestRunDriveRecordShape(t *testing.T) {
	driveSrc := new(mocks.MockDriveSource)
	driveSrc.On("ListPDFs", mock.Anything, "folder123", DefaultDriveLimit).Return([]domain.SourceFile{driveFile("f1", "a.pdf")}, nil)
	driveSrc.On("Download", mock.Anything, "f1").Return([]byte("%PDF"), nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{URI: "gs://test-bucket/uploads/u.pdf", SizeBytes: 4}, nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.Anything).Return(vertexRaw(t, map[string]any{
		"fields":            map[string]any{"Invoice_Number": "INV-1"},
		"fields_confidence": map[string]any{"Invoice_Number": 0.8},
	}), nil)

	store := new(mocks.MockDocumentStore)
	store.On("Upsert", mock.Anything, CollectionSampling, "f1", mock.MatchedBy(func(data map[string]any) bool {
		return data["tag"] == "prasoon-sampling" &&
			data["driveFileId"] == "f1" &&
			data["driveFileName"] == "a.pdf" &&
			data["driveFolderId"] == "folder123" &&
			data["downloadUrl"] == "https://drive.google.com/file/d/f1/view" &&
			data["gcsUri"] == "gs://test-bucket/uploads/u.pdf"
	})).Return(nil)

	svc := newSamplingService(store, storage, infer, driveSrc, new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	_, err := svc.RunDrive(context.Background(), "folder123", 0, 1, "")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRunZoho(t *testing.T) {
	const reportURL = "https://creatorapp.zohopublic.in/owner/app/report/Rep/link123"
	files := []domain.SourceFile{{
		SourceID:        "z1",
		Origin:          domain.OriginZoho,
		OriginalLocator: "https://creatorapp.zohopublic.in/file/z1/download",
		DisplayName:     "inv.pdf",
	}}

	zohoSrc := new(mocks.MockZohoSource)
	zohoSrc.On("ListFiles", mock.Anything, reportURL, 0).Return(files, nil)

	fetch := new(mocks.MockFileFetcher)
	fetch.On("Fetch", mock.Anything, files[0].OriginalLocator).Return([]byte("%PDF"), "application/pdf", nil)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).
		Return(&port.UploadOutput{URI: "gs://test-bucket/uploads/z.pdf", SizeBytes: 4}, nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.Anything).Return(vertexRaw(t, map[string]any{
		"fields":            map[string]any{"Invoice_Number": "INV-Z"},
		"fields_confidence": map[string]any{"Invoice_Number": 0.7},
	}), nil)

	store := new(mocks.MockDocumentStore)
	store.On("Upsert", mock.Anything, CollectionSampling, "z1", mock.MatchedBy(func(data map[string]any) bool {
		return data["downloadUrl"] == files[0].OriginalLocator && data["sourceLocator"] == reportURL
	})).Return(nil)

	svc := newSamplingService(store, storage, infer, new(mocks.MockDriveSource), zohoSrc, fetch)
	result, err := svc.RunZoho(context.Background(), reportURL, 0, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	store.AssertExpectations(t)
}

func TestRunZohoNoReportURL(t *testing.T) {
	svc := newSamplingService(new(mocks.MockDocumentStore), new(mocks.MockObjectStorage), new(mocks.MockInference), new(mocks.MockDriveSource), new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	_, err := svc.RunZoho(context.Background(), "", 0, 1, "")
	assert.ErrorIs(t, err, domain.ErrMissingReportURL)
}

func TestRetryRecord(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("Get", mock.Anything, CollectionSampling, "r1").Return(map[string]any{
		"recordId": "r1",
		"tag":      "prasoon-sampling",
		"gcsUri":   "gs://test-bucket/uploads/r1.pdf",
		"extracted": map[string]any{
			"fields":            map[string]any{"Invoice_Number": "OLD"},
			"fields_confidence": map[string]any{"Invoice_Number": 0.2},
		},
		"avg_confidence_score": 0.2,
		"createdAt":            "2026-08-01T00:00:00Z",
	}, nil)
	store.On("Upsert", mock.Anything, CollectionSampling, "r1", mock.MatchedBy(func(data map[string]any) bool {
		return data["gcsUri"] == "gs://test-bucket/uploads/r1.pdf"
	})).Return(nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.MatchedBy(func(in port.InvokeInput) bool {
		return in.Model == "gemini-2.5-flash" && in.GSURI == "gs://test-bucket/uploads/r1.pdf"
	})).Return(vertexRaw(t, map[string]any{
		"fields":            map[string]any{"Invoice_Number": "NEW"},
		"fields_confidence": map[string]any{"Invoice_Number": 0.95},
	}), nil)

	svc := newSamplingService(store, new(mocks.MockObjectStorage), infer, new(mocks.MockDriveSource), new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	result, err := svc.RetryRecord(context.Background(), RetryInput{RecordID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, "r1", result.RecordID)
	assert.InDelta(t, 0.95, result.AvgConfidenceScore, 1e-9)
	infer.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRetryRecordUnparseableOutput(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("Get", mock.Anything, CollectionSampling, "r1").Return(map[string]any{
		"recordId": "r1",
		"gcsUri":   "gs://test-bucket/uploads/r1.pdf",
	}, nil)
	store.On("Upsert", mock.Anything, CollectionSampling, "r1", mock.MatchedBy(func(data map[string]any) bool {
		return data["avg_confidence_score"] == float64(0) && data["extracted"] != nil
	})).Return(nil)

	infer := new(mocks.MockInference)
	infer.On("Invoke", mock.Anything, mock.Anything).
		Return(vertexRawText(t, "no structured data here"), nil)

	svc := newSamplingService(store, new(mocks.MockObjectStorage), infer, new(mocks.MockDriveSource), new(mocks.MockZohoSource), new(mocks.MockFileFetcher))
	result, err := svc.RetryRecord(context.Background(), RetryInput{RecordID: "r1"})
	require.NoError(t, err)
	assert.Zero(t, result.AvgConfidenceScore)
	store.AssertExpectations(t)
}

func TestRetryRecordErrors(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("Get", mock.Anything, CollectionSampling, "missing").Return(nil, domain.ErrNotFound)
	store.On("Get", mock.Anything, CollectionSampling, "no-uri").Return(map[string]any{"recordId": "no-uri"}, nil)

	svc := newSamplingService(store, new(mocks.MockObjectStorage), new(mocks.MockInference), new(mocks.MockDriveSource), new(mocks.MockZohoSource), new(mocks.MockFileFetcher))

	_, err := svc.RetryRecord(context.Background(), RetryInput{})
	assert.ErrorIs(t, err, domain.ErrMissingRecordID)

	_, err = svc.RetryRecord(context.Background(), RetryInput{RecordID: "missing"})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = svc.RetryRecord(context.Background(), RetryInput{RecordID: "no-uri"})
	assert.ErrorIs(t, err, domain.ErrRecordMissingURI)
}
