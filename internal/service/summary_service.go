package service

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"invoscan/internal/cache"
	"invoscan/internal/domain"
	"invoscan/internal/extract"
	"invoscan/internal/port"
	"invoscan/internal/schema"
)

// DefaultSummaryTTL is how long a cached summary stays fresh.
const DefaultSummaryTTL = 5 * time.Minute

// recomputeEpsilon is the threshold below which a stored average is
// considered already correct and left untouched.
const recomputeEpsilon = 1e-6

// SummaryService aggregates stored records into corpus-level views.
type SummaryService struct {
	store port.DocumentStore
	cache *cache.Cache
	group singleflight.Group
}

// NewSummaryService wires a SummaryService.
func NewSummaryService(store port.DocumentStore, c *cache.Cache) *SummaryService {
	return &SummaryService{store: store, cache: c}
}

// BuildSummary scans the full record collection and aggregates it under the
// filter's policy. Zero-fill counts every matching record, contributing 0 when
// it has no usable confidence. Exclude-missing counts only records whose
// invoice number is present.
func (s *SummaryService) BuildSummary(ctx context.Context, filter domain.SummaryFilter) (*domain.Summary, error) {
	docs, err := s.store.List(ctx, CollectionSampling, 0)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{Rows: []domain.SummaryRow{}}
	var sum float64
	for _, doc := range docs {
		record, err := mapToRecord(doc.Fields)
		if err != nil {
			log.Printf("summaryService: skipping malformed record %s: %v", doc.ID, err)
			continue
		}
		if record.RecordID == "" {
			record.RecordID = doc.ID
		}
		if filter.Tag != "" && record.Tag != filter.Tag {
			continue
		}
		if filter.FolderID != "" && record.DriveFolderID != filter.FolderID {
			continue
		}

		row := rowFromRecord(record)
		if filter.Policy == domain.PolicyExcludeMissing && !hasPresenceField(row.Fields) {
			continue
		}
		summary.Rows = append(summary.Rows, row)
		summary.Count++
		sum += row.AvgConfidenceRow
	}

	sort.Slice(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].RecordID < summary.Rows[j].RecordID
	})
	if summary.Count > 0 {
		summary.OverallAvgConfidence = sum / float64(summary.Count)
	}
	return summary, nil
}

// CachedSummary returns the summary, serving from the summary cache while the
// entry is younger than ttl. Concurrent misses for the same filter collapse
// into one rebuild. With reset the cache is bypassed and repopulated.
func (s *SummaryService) CachedSummary(ctx context.Context, filter domain.SummaryFilter, ttl time.Duration, reset bool) (*domain.Summary, bool, error) {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	key := cache.Key("summary", filter.Tag, filter.FolderID, string(filter.Policy))

	if !reset {
		if summary := s.readCachedSummary(ctx, key, ttl); summary != nil {
			return summary, true, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		summary, err := s.BuildSummary(ctx, filter)
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(summary); err == nil {
			s.cache.Write(ctx, cache.SummaryCollection, key, map[string]any{
				"summary":  string(encoded),
				"cachedAt": nowISO(),
			})
		}
		return summary, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Summary), false, nil
}

func (s *SummaryService) readCachedSummary(ctx context.Context, key string, ttl time.Duration) *domain.Summary {
	entry, ok := s.cache.Read(ctx, cache.SummaryCollection, key)
	if !ok {
		return nil
	}
	cachedAt, _ := entry["cachedAt"].(string)
	at, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil || time.Since(at) > ttl {
		return nil
	}
	encoded, _ := entry["summary"].(string)
	var summary domain.Summary
	if err := json.Unmarshal([]byte(encoded), &summary); err != nil {
		return nil
	}
	return &summary
}

// Recompute rescans every record and rewrites stored averages that drifted
// from the value derived from the confidence map. Writes happen only when the
// difference exceeds a small epsilon, so repeated runs are idempotent.
func (s *SummaryService) Recompute(ctx context.Context) (*domain.RecomputeResult, error) {
	docs, err := s.store.List(ctx, CollectionSampling, 0)
	if err != nil {
		return nil, err
	}

	result := &domain.RecomputeResult{Changes: []domain.RecomputeChange{}}
	for _, doc := range docs {
		result.Scanned++
		record, err := mapToRecord(doc.Fields)
		if err != nil {
			log.Printf("summaryService: skipping malformed record %s: %v", doc.ID, err)
			continue
		}
		var conf map[string]float64
		if record.Extracted != nil {
			conf = record.Extracted.FieldsConfidence
		}
		next := extract.AvgConfidence(conf)
		prev := record.AvgConfidenceScore
		if math.Abs(prev-next) <= recomputeEpsilon {
			continue
		}

		doc.Fields["avg_confidence_score"] = next
		doc.Fields["updatedAt"] = nowISO()
		if err := s.store.Upsert(ctx, CollectionSampling, doc.ID, doc.Fields); err != nil {
			log.Printf("summaryService: recompute write for %s failed: %v", doc.ID, err)
			continue
		}
		result.Updated++
		result.Changes = append(result.Changes, domain.RecomputeChange{
			RecordID: doc.ID,
			Prev:     prev,
			Next:     next,
		})
	}
	return result, nil
}

// rowFromRecord projects a record into its summary row. The row average is
// recomputed over schema fields only, so stray keys in the stored map never
// skew the aggregate.
func rowFromRecord(record *domain.ExtractionRecord) domain.SummaryRow {
	row := domain.SummaryRow{
		RecordID:         record.RecordID,
		GCSURI:           record.GCSURI,
		DownloadURL:      record.DownloadURL,
		DriveFileName:    record.DriveFileName,
		Fields:           map[string]any{},
		FieldsConfidence: map[string]float64{},
	}
	if !record.CreatedAt.IsZero() {
		row.CreatedAt = record.CreatedAt.UTC().Format(time.RFC3339)
	}
	if record.Extracted != nil {
		if record.Extracted.Fields != nil {
			row.Fields = record.Extracted.Fields
		}
		if record.Extracted.FieldsConfidence != nil {
			row.FieldsConfidence = record.Extracted.FieldsConfidence
		}
	}
	row.AvgConfidenceRow = extract.SchemaAvgConfidence(row.FieldsConfidence)
	return row
}

func hasPresenceField(fields map[string]any) bool {
	v, ok := fields[schema.PresenceField]
	if !ok || v == nil {
		return false
	}
	str, ok := v.(string)
	if !ok {
		return true
	}
	return strings.TrimSpace(str) != ""
}
