package domain

import (
	"encoding/json"
	"time"
)

// SourceOrigin identifies where an inbound document came from.
type SourceOrigin string

const (
	OriginDrive     SourceOrigin = "drive"
	OriginZoho      SourceOrigin = "zoho"
	OriginDirectURL SourceOrigin = "direct-url"
)

// SourceFile is a transient reference to an inbound document. It is consumed
// per job unit and never persisted.
type SourceFile struct {
	SourceID        string
	Origin          SourceOrigin
	OriginalLocator string
	DisplayName     string
	SizeBytes       int64
}

// StoredObject is the uploaded copy of a SourceFile in object storage.
type StoredObject struct {
	URI         string
	ContentType string
	SizeBytes   int64
}

// Extraction holds the model's structured output: field values plus a
// per-field confidence map.
type Extraction struct {
	Fields           map[string]any     `json:"fields" firestore:"fields"`
	FieldsConfidence map[string]float64 `json:"fields_confidence" firestore:"fields_confidence"`
}

// Usage carries token counts reported by the inference provider.
type Usage struct {
	PromptTokenCount     int64 `json:"promptTokenCount" firestore:"promptTokenCount"`
	CandidatesTokenCount int64 `json:"candidatesTokenCount" firestore:"candidatesTokenCount"`
	TotalTokenCount      int64 `json:"totalTokenCount" firestore:"totalTokenCount"`
}

// ExtractionRecord is the persisted unit of work result. The record ID is the
// source file id, so retries overwrite in place.
type ExtractionRecord struct {
	RecordID           string      `json:"recordId" firestore:"recordId"`
	Tag                string      `json:"tag,omitempty" firestore:"tag,omitempty"`
	SourceLocator      string      `json:"sourceLocator,omitempty" firestore:"sourceLocator,omitempty"`
	DownloadURL        string      `json:"downloadUrl,omitempty" firestore:"downloadUrl,omitempty"`
	DriveFileID        string      `json:"driveFileId,omitempty" firestore:"driveFileId,omitempty"`
	DriveFileName      string      `json:"driveFileName,omitempty" firestore:"driveFileName,omitempty"`
	DriveFolderID      string      `json:"driveFolderId,omitempty" firestore:"driveFolderId,omitempty"`
	GCSURI             string      `json:"gcsUri" firestore:"gcsUri"`
	Extracted          *Extraction `json:"extracted" firestore:"extracted"`
	AvgConfidenceScore float64     `json:"avg_confidence_score" firestore:"avg_confidence_score"`
	Usage              *Usage      `json:"vertex_usage,omitempty" firestore:"vertex_usage,omitempty"`
	InputTokens        *int64      `json:"inputTokens,omitempty" firestore:"inputTokens,omitempty"`
	OutputTokens       *int64      `json:"outputTokens,omitempty" firestore:"outputTokens,omitempty"`
	SizeBytes          int64       `json:"sizeBytes,omitempty" firestore:"sizeBytes,omitempty"`
	CreatedAt          time.Time   `json:"createdAt" firestore:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// SummaryPolicy selects how records contribute to aggregate confidence.
type SummaryPolicy string

const (
	// PolicyZeroFill counts every record; records with no usable confidence
	// values contribute 0 to the average.
	PolicyZeroFill SummaryPolicy = "zero-fill"
	// PolicyExcludeMissing counts only records whose presence field
	// (Invoice_Number) is non-empty after trimming.
	PolicyExcludeMissing SummaryPolicy = "exclude-missing"
)

// SummaryRow is one record's view in a summary or export.
type SummaryRow struct {
	RecordID         string             `json:"recordId"`
	GCSURI           string             `json:"gcsUri,omitempty"`
	DownloadURL      string             `json:"downloadUrl,omitempty"`
	DriveFileName    string             `json:"driveFileName,omitempty"`
	Fields           map[string]any     `json:"fields"`
	FieldsConfidence map[string]float64 `json:"fields_confidence"`
	AvgConfidenceRow float64            `json:"avg_confidence_row"`
	CreatedAt        string             `json:"createdAt,omitempty"`
}

// Summary is the aggregated view over the stored corpus.
type Summary struct {
	Count                int          `json:"count"`
	OverallAvgConfidence float64      `json:"overall_avg_confidence"`
	Rows                 []SummaryRow `json:"rows"`
}

// SummaryFilter narrows which records a summary covers.
type SummaryFilter struct {
	Tag      string
	FolderID string
	Policy   SummaryPolicy
}

// BatchUnitResult is the terminal outcome of one batch work unit.
type BatchUnitResult struct {
	RecordID           string  `json:"recordId,omitempty"`
	AvgConfidenceScore float64 `json:"avg_confidence_score,omitempty"`
	DownloadURL        string  `json:"downloadUrl,omitempty"`
	Error              string  `json:"error,omitempty"`
}

// BatchResult is the envelope returned by a batch run. The run itself is
// always an HTTP success; callers inspect processed/failed and the breakdown.
type BatchResult struct {
	Processed            int               `json:"processed"`
	Failed               int               `json:"failed"`
	AvgConfidenceOverall float64           `json:"avg_confidence_overall"`
	Results              []BatchUnitResult `json:"results"`
	Errors               []BatchUnitResult `json:"errors"`
}

// ProcessResult is the outcome of a single extract-one call.
type ProcessResult struct {
	GCSURI       string          `json:"gcsUri"`
	Extracted    map[string]any  `json:"extracted"`
	ExtractedRaw map[string]any  `json:"extractedRaw"`
	Vertex       json.RawMessage `json:"vertex"`
	Cached       bool            `json:"cached"`
	CachedAt     string          `json:"cachedAt,omitempty"`
}

// RetryResult is the outcome of re-inferring a stored record.
type RetryResult struct {
	RecordID           string  `json:"recordId"`
	AvgConfidenceScore float64 `json:"avg_confidence_score"`
	Usage              *Usage  `json:"usage"`
}

// RecomputeChange records one corrected average during a recompute pass.
type RecomputeChange struct {
	RecordID string  `json:"recordId"`
	Prev     float64 `json:"prev"`
	Next     float64 `json:"next"`
}

// RecomputeResult summarizes a recompute-averages pass.
type RecomputeResult struct {
	Scanned int               `json:"scanned"`
	Updated int               `json:"updated"`
	Changes []RecomputeChange `json:"changes"`
}

// CostCounts are the aggregate counters a cost estimate is built from.
type CostCounts struct {
	Records           int     `json:"records"`
	TotalInputTokens  int64   `json:"totalInputTokens"`
	TotalOutputTokens int64   `json:"totalOutputTokens"`
	TotalMB           float64 `json:"totalMB"`
	WriteOps          int64   `json:"writeOps"`
	ReadOps           int64   `json:"readOps"`
}

// CostPricing echoes the unit prices a cost estimate used. Nil means the
// category was unpriced.
type CostPricing struct {
	VertexInPer1K  *float64 `json:"vertex_in_per_1k_usd"`
	VertexOutPer1K *float64 `json:"vertex_out_per_1k_usd"`
	GCSPerGBMonth  float64  `json:"gcs_per_gb_month_usd"`
	FSWritePer100K float64  `json:"fs_write_per_100k_usd"`
	FSReadPer100K  float64  `json:"fs_read_per_100k_usd"`
}

// CostBreakdown itemizes estimated spend. A nil line item means "unpriced",
// which callers must distinguish from zero cost.
type CostBreakdown struct {
	VertexUSD            *float64 `json:"vertex_usd"`
	GCSMonthlyStorageUSD float64  `json:"gcs_monthly_storage_usd"`
	FirestoreUSD         float64  `json:"firestore_usd"`
	TotalUSD             float64  `json:"total_usd"`
}

// CostReport is the full cost estimation response.
type CostReport struct {
	Counts  CostCounts    `json:"counts"`
	Pricing CostPricing   `json:"pricing"`
	Costs   CostBreakdown `json:"costs"`
}

// SignedURLResult is a short-lived read URL for a stored object.
type SignedURLResult struct {
	URL      string `json:"url"`
	Expires  int64  `json:"expires"`
	Cached   bool   `json:"cached"`
	CachedAt string `json:"cachedAt,omitempty"`
}
