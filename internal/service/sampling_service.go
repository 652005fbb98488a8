package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"invoscan/internal/config"
	"invoscan/internal/domain"
	"invoscan/internal/extract"
	"invoscan/internal/port"
	"invoscan/internal/schema"
	"invoscan/internal/source/drive"
)

// CollectionSampling is the document collection holding extraction records.
const CollectionSampling = "Sampling"

// retryModel is the fixed model used when re-inferring a stored record.
const retryModel = "gemini-2.5-flash"

// Drive listing bounds. An absent limit must not walk an entire folder.
const (
	DefaultDriveLimit = 200
	MaxDriveLimit     = 500
)

// SamplingService runs batch extraction over Drive folders and Zoho reports,
// persisting one record per source file.
type SamplingService struct {
	store   port.DocumentStore
	storage port.ObjectStorage
	infer   port.Inference
	drive   port.DriveSource
	zoho    port.ZohoSource
	fetch   port.FileFetcher
	rec     *extract.Reconciler
	cfg     *config.Config
}

// NewSamplingService wires a SamplingService.
func NewSamplingService(
	store port.DocumentStore,
	storage port.ObjectStorage,
	infer port.Inference,
	driveSrc port.DriveSource,
	zohoSrc port.ZohoSource,
	fetch port.FileFetcher,
	rec *extract.Reconciler,
	cfg *config.Config,
) *SamplingService {
	return &SamplingService{
		store:   store,
		storage: storage,
		infer:   infer,
		drive:   driveSrc,
		zoho:    zohoSrc,
		fetch:   fetch,
		rec:     rec,
		cfg:     cfg,
	}
}

// RunDrive processes up to limit PDFs from the given Drive folder. The folder
// argument accepts a raw ID or a folder link; empty falls back to the
// configured folder. The run itself succeeds even when every unit fails; unit
// outcomes are reported in the result.
func (s *SamplingService) RunDrive(ctx context.Context, folder string, limit, concurrency int, tag string) (*domain.BatchResult, error) {
	if folder == "" {
		folder = s.cfg.Sampling.DriveFolderID
	}
	folderID, err := drive.ExtractFolderID(folder)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultDriveLimit
	}
	if limit > MaxDriveLimit {
		limit = MaxDriveLimit
	}

	files, err := s.drive.ListPDFs(ctx, folderID, limit)
	if err != nil {
		return nil, err
	}
	log.Printf("samplingService: drive folder %s has %d eligible files", folderID, len(files))

	return s.runBatch(ctx, files, concurrency, func(ctx context.Context, f domain.SourceFile) (*domain.ExtractionRecord, error) {
		body, err := s.drive.Download(ctx, f.SourceID)
		if err != nil {
			return nil, err
		}
		record, err := s.extractAndStore(ctx, f, body, "application/pdf", tag)
		if err != nil {
			return nil, err
		}
		record.DriveFileID = f.SourceID
		record.DriveFileName = f.DisplayName
		record.DriveFolderID = folderID
		record.DownloadURL = drive.ViewURL(f.SourceID)
		return record, s.persist(ctx, record)
	})
}

// RunZoho processes up to count attachments from the given Zoho report URL.
// Empty falls back to the configured report.
func (s *SamplingService) RunZoho(ctx context.Context, reportURL string, count, concurrency int, tag string) (*domain.BatchResult, error) {
	if reportURL == "" {
		reportURL = s.cfg.Sampling.ZohoReportURL
	}
	if reportURL == "" {
		return nil, domain.ErrMissingReportURL
	}

	files, err := s.zoho.ListFiles(ctx, reportURL, count)
	if err != nil {
		return nil, err
	}
	log.Printf("samplingService: zoho report has %d eligible files", len(files))

	return s.runBatch(ctx, files, concurrency, func(ctx context.Context, f domain.SourceFile) (*domain.ExtractionRecord, error) {
		body, contentType, err := s.fetch.Fetch(ctx, f.OriginalLocator)
		if err != nil {
			return nil, err
		}
		if contentType == "" {
			contentType = "application/pdf"
		}
		record, err := s.extractAndStore(ctx, f, body, contentType, tag)
		if err != nil {
			return nil, err
		}
		record.DownloadURL = f.OriginalLocator
		record.SourceLocator = reportURL
		return record, s.persist(ctx, record)
	})
}

// runBatch fans the files out over a bounded worker pool and aggregates unit
// outcomes. A unit failure is recorded and never aborts its siblings.
func (s *SamplingService) runBatch(
	ctx context.Context,
	files []domain.SourceFile,
	concurrency int,
	unit func(ctx context.Context, f domain.SourceFile) (*domain.ExtractionRecord, error),
) (*domain.BatchResult, error) {
	workers := concurrency
	if workers <= 0 {
		workers = s.cfg.Sampling.Concurrency
	}
	workers = ClampConcurrency(workers)

	var mu sync.Mutex
	result := &domain.BatchResult{
		Results: []domain.BatchUnitResult{},
		Errors:  []domain.BatchUnitResult{},
	}

	RunBounded(ctx, len(files), workers, func(ctx context.Context, i int) {
		f := files[i]
		record, err := unit(ctx, f)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("samplingService: unit %s failed: %v", f.SourceID, err)
			result.Failed++
			result.Errors = append(result.Errors, domain.BatchUnitResult{
				RecordID:    f.SourceID,
				DownloadURL: f.OriginalLocator,
				Error:       err.Error(),
			})
			return
		}
		result.Processed++
		result.Results = append(result.Results, domain.BatchUnitResult{
			RecordID:           record.RecordID,
			AvgConfidenceScore: record.AvgConfidenceScore,
			DownloadURL:        record.DownloadURL,
		})
	})

	// Overall average spans every successful unit, zero-confidence ones
	// included, so garbage extractions drag the run average down.
	if len(result.Results) > 0 {
		var sum float64
		for _, r := range result.Results {
			sum += r.AvgConfidenceScore
		}
		result.AvgConfidenceOverall = sum / float64(len(result.Results))
	}
	return result, nil
}

// extractAndStore uploads the body, runs inference and builds the record. The
// caller fills source-specific fields and persists.
func (s *SamplingService) extractAndStore(ctx context.Context, f domain.SourceFile, body []byte, contentType, tag string) (*domain.ExtractionRecord, error) {
	ext := extFromContentType(contentType, f.DisplayName)
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.GCP.Bucket,
		Key:         objectKey(f.SourceID, ext),
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", f.SourceID, err)
	}

	raw, err := s.infer.Invoke(ctx, port.InvokeInput{
		Model:          s.cfg.Vertex.Model,
		Prompt:         schema.BuildPrompt(),
		GSURI:          out.URI,
		MimeType:       contentType,
		InlineData:     body,
		InlineMimeType: contentType,
		UseBatch:       s.cfg.Vertex.UseBatch,
	})
	if err != nil {
		return nil, err
	}

	parsed := extract.ParseJSONLoose(extract.TextFromVertex(raw))
	extraction := s.rec.Extraction(parsed)
	usage := extract.UsageFromVertex(raw)

	if tag == "" {
		tag = s.cfg.Sampling.DefaultTag
	}
	now := time.Now().UTC()
	record := &domain.ExtractionRecord{
		RecordID:           f.SourceID,
		Tag:                tag,
		GCSURI:             out.URI,
		Extracted:          extraction,
		AvgConfidenceScore: extract.AvgConfidence(extraction.FieldsConfidence),
		Usage:              usage,
		SizeBytes:          out.SizeBytes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if usage != nil {
		inTok, outTok := usage.PromptTokenCount, usage.CandidatesTokenCount
		record.InputTokens = &inTok
		record.OutputTokens = &outTok
	}
	return record, nil
}

func (s *SamplingService) persist(ctx context.Context, record *domain.ExtractionRecord) error {
	data, err := recordToMap(record)
	if err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, CollectionSampling, record.RecordID, data); err != nil {
		return fmt.Errorf("persisting record %s: %w", record.RecordID, err)
	}
	return nil
}

// RetryRecord re-runs inference for a stored record from its uploaded copy and
// overwrites the extraction in place.
// RetryInput names the record to re-infer plus optional call overrides.
type RetryInput struct {
	RecordID string
	Location string
	UseBatch bool
}

func (s *SamplingService) RetryRecord(ctx context.Context, in RetryInput) (*domain.RetryResult, error) {
	recordID := in.RecordID
	if recordID == "" {
		return nil, domain.ErrMissingRecordID
	}
	data, err := s.store.Get(ctx, CollectionSampling, recordID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	record, err := mapToRecord(data)
	if err != nil {
		return nil, err
	}
	if record.GCSURI == "" {
		return nil, domain.ErrRecordMissingURI
	}

	raw, err := s.infer.Invoke(ctx, port.InvokeInput{
		Location: in.Location,
		Model:    retryModel,
		Prompt:   schema.BuildPrompt(),
		GSURI:    record.GCSURI,
		MimeType: "application/pdf",
		UseBatch: in.UseBatch,
	})
	if err != nil {
		return nil, err
	}

	parsed := extract.ParseJSONLoose(extract.TextFromVertex(raw))
	extraction := s.rec.Extraction(parsed)
	usage := extract.UsageFromVertex(raw)

	record.RecordID = recordID
	record.Extracted = extraction
	record.AvgConfidenceScore = extract.AvgConfidence(extraction.FieldsConfidence)
	record.Usage = usage
	record.UpdatedAt = time.Now().UTC()
	if usage != nil {
		inTok, outTok := usage.PromptTokenCount, usage.CandidatesTokenCount
		record.InputTokens = &inTok
		record.OutputTokens = &outTok
	}
	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	return &domain.RetryResult{
		RecordID:           recordID,
		AvgConfidenceScore: record.AvgConfidenceScore,
		Usage:              usage,
	}, nil
}
