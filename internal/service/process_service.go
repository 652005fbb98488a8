package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"invoscan/internal/cache"
	"invoscan/internal/config"
	"invoscan/internal/domain"
	"invoscan/internal/extract"
	"invoscan/internal/port"
)

// ProcessService runs single-document extraction against a direct URL, with a
// download cache and an inference result cache in front of the expensive
// steps.
type ProcessService struct {
	cache   *cache.Cache
	storage port.ObjectStorage
	infer   port.Inference
	fetch   port.FileFetcher
	rec     *extract.Reconciler
	bucket  string
	model   string
	batch   bool
}

// NewProcessService wires a ProcessService.
func NewProcessService(
	c *cache.Cache,
	storage port.ObjectStorage,
	infer port.Inference,
	fetch port.FileFetcher,
	rec *extract.Reconciler,
	cfg *config.Config,
) *ProcessService {
	return &ProcessService{
		cache:   c,
		storage: storage,
		infer:   infer,
		fetch:   fetch,
		rec:     rec,
		bucket:  cfg.GCP.Bucket,
		model:   cfg.Vertex.Model,
		batch:   cfg.Vertex.UseBatch,
	}
}

// ProcessInput describes one extract-one request.
type ProcessInput struct {
	FileURL  string // http(s) URL or a gs:// locator of an already uploaded object
	Prompt   string
	Model    string
	Location string
	UseBatch *bool // nil keeps the configured default
	Reset    bool
}

// ProcessFile downloads (or reuses) the file behind the locator, uploads it to
// object storage, runs extraction and returns the reconciled result. A gs://
// locator skips the download and upload steps. With reset both caches are
// bypassed and repopulated.
func (s *ProcessService) ProcessFile(ctx context.Context, in ProcessInput) (*domain.ProcessResult, error) {
	fileURL := strings.TrimSpace(in.FileURL)
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, domain.ErrMissingPrompt
	}
	model := in.Model
	if model == "" {
		model = s.model
	}
	batch := s.batch
	if in.UseBatch != nil {
		batch = *in.UseBatch
	}

	var (
		gsURI, contentType string
		body               []byte
		err                error
	)
	switch {
	case strings.HasPrefix(fileURL, "gs://"):
		gsURI, contentType = fileURL, "application/pdf"
	case strings.HasPrefix(fileURL, "http://"), strings.HasPrefix(fileURL, "https://"):
		gsURI, contentType, body, err = s.resolveUpload(ctx, fileURL, in.Reset)
		if err != nil {
			return nil, err
		}
	default:
		return nil, domain.ErrInvalidFileURL
	}

	procKey := cache.ProcessKey(gsURI, model, in.Prompt)
	if !in.Reset {
		if entry, ok := s.cache.Read(ctx, cache.ProcessCollection, procKey); ok {
			return cachedProcessResult(gsURI, entry), nil
		}
	}

	raw, err := s.infer.Invoke(ctx, port.InvokeInput{
		Location:       in.Location,
		Model:          model,
		Prompt:         in.Prompt,
		GSURI:          gsURI,
		MimeType:       contentType,
		InlineData:     body,
		InlineMimeType: contentType,
		UseBatch:       batch,
	})
	if err != nil {
		return nil, err
	}

	text := extract.TextFromVertex(raw)
	parsed := extract.ParseJSONLoose(text)
	if parsed == nil {
		log.Printf("processService: model output for %s is not parseable JSON", gsURI)
	}
	extraction := s.rec.Extraction(parsed)

	result := &domain.ProcessResult{
		GCSURI: gsURI,
		Extracted: map[string]any{
			"fields":            extraction.Fields,
			"fields_confidence": extraction.FieldsConfidence,
		},
		ExtractedRaw: parsed,
		Vertex:       raw,
		Cached:       false,
	}
	s.cache.Write(ctx, cache.ProcessCollection, procKey, map[string]any{
		"gsUri":        gsURI,
		"model":        model,
		"extracted":    result.Extracted,
		"extractedRaw": result.ExtractedRaw,
		"vertex":       string(raw),
		"cachedAt":     nowISO(),
	})
	return result, nil
}

// resolveUpload returns the gs:// URI for the file, downloading and uploading
// only on a URL-cache miss. The raw body is returned only when freshly
// downloaded, so the inline inference fallback is available on that path.
func (s *ProcessService) resolveUpload(ctx context.Context, fileURL string, reset bool) (gsURI, contentType string, body []byte, err error) {
	urlKey := cache.URLKey(fileURL)
	if !reset {
		if entry, ok := s.cache.Read(ctx, cache.URLCollection, urlKey); ok {
			uri, _ := entry["gsUri"].(string)
			ct, _ := entry["contentType"].(string)
			if uri != "" {
				return uri, ct, nil, nil
			}
		}
	}

	buf, ct, err := s.fetch.Fetch(ctx, fileURL)
	if err != nil {
		return "", "", nil, err
	}
	if ct == "" {
		ct = "application/pdf"
	}

	ext := extFromContentType(ct, fileURL)
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         objectKey(urlKey[:12], ext),
		Body:        buf,
		ContentType: ct,
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("uploading %s: %w", fileURL, err)
	}

	s.cache.Write(ctx, cache.URLCollection, urlKey, map[string]any{
		"url":         fileURL,
		"gsUri":       out.URI,
		"contentType": ct,
		"sizeBytes":   out.SizeBytes,
		"cachedAt":    nowISO(),
	})
	return out.URI, ct, buf, nil
}

// cachedProcessResult rebuilds a ProcessResult from a cache entry.
func cachedProcessResult(gsURI string, entry map[string]any) *domain.ProcessResult {
	result := &domain.ProcessResult{GCSURI: gsURI, Cached: true}
	if extracted, ok := entry["extracted"].(map[string]any); ok {
		result.Extracted = extracted
	}
	if raw, ok := entry["extractedRaw"].(map[string]any); ok {
		result.ExtractedRaw = raw
	}
	if vertex, ok := entry["vertex"].(string); ok && vertex != "" {
		result.Vertex = json.RawMessage(vertex)
	}
	if at, ok := entry["cachedAt"].(string); ok {
		result.CachedAt = at
	}
	return result
}
