package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoscan/internal/domain"
)

// recordToMap flattens a record into the document store's field map via its
// JSON form, so stored shapes match the wire shapes exactly.
func recordToMap(r *domain.ExtractionRecord) (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record %s: %w", r.RecordID, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", r.RecordID, err)
	}
	return m, nil
}

// mapToRecord is the inverse of recordToMap.
func mapToRecord(m map[string]any) (*domain.ExtractionRecord, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var r domain.ExtractionRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &r, nil
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// objectKey builds a collision-safe upload path for one document.
func objectKey(base, ext string) string {
	base = sanitizeBase(base)
	if ext == "" {
		ext = "pdf"
	}
	return fmt.Sprintf("uploads/%s-%d-%s.%s",
		base, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

func sanitizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}

// extFromContentType guesses a file extension, defaulting to pdf.
func extFromContentType(contentType, url string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return "pdf"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	}
	clean := url
	if idx := strings.IndexAny(clean, "?#"); idx >= 0 {
		clean = clean[:idx]
	}
	if idx := strings.LastIndexByte(clean, '.'); idx >= 0 && len(clean)-idx <= 5 {
		return strings.ToLower(clean[idx+1:])
	}
	return "pdf"
}

// splitGSURI splits gs://bucket/object into its parts.
func splitGSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", domain.ErrInvalidGSURI
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", domain.ErrInvalidGSURI
	}
	return bucket, object, nil
}
