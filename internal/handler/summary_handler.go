package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"invoscan/internal/domain"
	"invoscan/internal/export"
	"invoscan/internal/service"
)

// SummaryHandler serves corpus summaries, exports, recomputes, cost estimates
// and signed URLs.
type SummaryHandler struct {
	summary *service.SummaryService
	cost    *service.CostService
	urls    *service.URLService
}

// NewSummaryHandler creates a SummaryHandler.
func NewSummaryHandler(summary *service.SummaryService, cost *service.CostService, urls *service.URLService) *SummaryHandler {
	return &SummaryHandler{summary: summary, cost: cost, urls: urls}
}

// parsePolicy validates the policy query parameter, falling back to the
// endpoint's default when it is absent.
func parsePolicy(c *gin.Context, fallback domain.SummaryPolicy) (domain.SummaryPolicy, bool) {
	switch p := c.Query("policy"); p {
	case "":
		return fallback, true
	case string(domain.PolicyZeroFill):
		return domain.PolicyZeroFill, true
	case string(domain.PolicyExcludeMissing):
		return domain.PolicyExcludeMissing, true
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_POLICY",
			"policy must be zero-fill or exclude-missing")
		return "", false
	}
}

func summaryFilter(c *gin.Context, policy domain.SummaryPolicy) domain.SummaryFilter {
	return domain.SummaryFilter{
		Tag:      c.Query("tag"),
		FolderID: c.Query("folderId"),
		Policy:   policy,
	}
}

// Summary handles GET /api/v1/summary.
func (h *SummaryHandler) Summary(c *gin.Context) {
	policy, ok := parsePolicy(c, domain.PolicyZeroFill)
	if !ok {
		return
	}
	filter := summaryFilter(c, policy)

	useCache := c.DefaultQuery("cache", "true") != "false"
	reset := c.Query("reset") == "true"
	ttl := time.Duration(0)
	if ttlSec, err := strconv.Atoi(c.Query("ttlSec")); err == nil && ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}

	if !useCache {
		summary, err := h.summary.BuildSummary(c.Request.Context(), filter)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, summary)
		return
	}

	summary, cached, err := h.summary.CachedSummary(c.Request.Context(), filter, ttl, reset)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary, "cached": cached})
}

// Export handles GET /api/v1/summary/export. Exports default to the
// exclude-missing dataset so empty rows do not drag the file down.
func (h *SummaryHandler) Export(c *gin.Context) {
	policy, ok := parsePolicy(c, domain.PolicyExcludeMissing)
	if !ok {
		return
	}
	filter := summaryFilter(c, policy)

	summary, err := h.summary.BuildSummary(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("X-Overall-Average", strconv.FormatFloat(summary.OverallAvgConfidence, 'f', 6, 64))
	switch format := c.DefaultQuery("format", "csv"); format {
	case "json":
		RespondOK(c, summary)
	case "csv":
		var buf bytes.Buffer
		buf.Write(export.BOM)
		if err := export.WriteCSV(&buf, summary); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.BuildFilename("summary", "csv")))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, summary); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.BuildFilename("summary", "xlsx")))
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv, json or xlsx")
	}
}

// Recompute handles POST /api/v1/summary/recompute.
func (h *SummaryHandler) Recompute(c *gin.Context) {
	result, err := h.summary.Recompute(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Cost handles GET /api/v1/summary/cost.
func (h *SummaryHandler) Cost(c *gin.Context) {
	report, err := h.cost.Estimate(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// SignedURL handles GET /api/v1/signed-url.
func (h *SummaryHandler) SignedURL(c *gin.Context) {
	gsURI := c.Query("gsUri")
	var ttlSec int64
	if v, err := strconv.ParseInt(c.Query("ttlSec"), 10, 64); err == nil {
		ttlSec = v
	}
	reset := c.Query("reset") == "true"

	result, err := h.urls.SignedURL(c.Request.Context(), gsURI, ttlSec, reset)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}
