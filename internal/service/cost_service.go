package service

import (
	"context"

	"invoscan/internal/config"
	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// CostService estimates spend from the stored corpus and configured unit
// prices. Inference cost is reported as unknown (nil) when token prices are
// not configured; unknown is never conflated with zero.
type CostService struct {
	store   port.DocumentStore
	pricing config.PricingConfig
}

// NewCostService wires a CostService.
func NewCostService(store port.DocumentStore, pricing config.PricingConfig) *CostService {
	return &CostService{store: store, pricing: pricing}
}

// Estimate scans the record collection and prices it. Each record is assumed
// to have cost one document write and one read.
func (s *CostService) Estimate(ctx context.Context) (*domain.CostReport, error) {
	docs, err := s.store.List(ctx, CollectionSampling, 0)
	if err != nil {
		return nil, err
	}

	var counts domain.CostCounts
	var totalBytes int64
	for _, doc := range docs {
		record, err := mapToRecord(doc.Fields)
		if err != nil {
			continue
		}
		counts.Records++
		if record.InputTokens != nil {
			counts.TotalInputTokens += *record.InputTokens
		} else if record.Usage != nil {
			counts.TotalInputTokens += record.Usage.PromptTokenCount
		}
		if record.OutputTokens != nil {
			counts.TotalOutputTokens += *record.OutputTokens
		} else if record.Usage != nil {
			counts.TotalOutputTokens += record.Usage.CandidatesTokenCount
		}
		totalBytes += record.SizeBytes
	}
	counts.TotalMB = float64(totalBytes) / (1024 * 1024)
	counts.WriteOps = int64(counts.Records)
	counts.ReadOps = int64(counts.Records)

	pricing := domain.CostPricing{
		GCSPerGBMonth:  s.pricing.GCSPerGBMonthUSD,
		FSWritePer100K: s.pricing.FSWritePer100KUSD,
		FSReadPer100K:  s.pricing.FSReadPer100KUSD,
	}
	costs := domain.CostBreakdown{
		GCSMonthlyStorageUSD: counts.TotalMB / 1024 * s.pricing.GCSPerGBMonthUSD,
		FirestoreUSD: float64(counts.WriteOps)/100000*s.pricing.FSWritePer100KUSD +
			float64(counts.ReadOps)/100000*s.pricing.FSReadPer100KUSD,
	}
	costs.TotalUSD = costs.GCSMonthlyStorageUSD + costs.FirestoreUSD

	if s.pricing.VertexInPer1KUSD > 0 || s.pricing.VertexOutPer1KUSD > 0 {
		in := s.pricing.VertexInPer1KUSD
		out := s.pricing.VertexOutPer1KUSD
		pricing.VertexInPer1K = &in
		pricing.VertexOutPer1K = &out
		vertex := float64(counts.TotalInputTokens)/1000*in +
			float64(counts.TotalOutputTokens)/1000*out
		costs.VertexUSD = &vertex
		costs.TotalUSD += vertex
	}

	return &domain.CostReport{Counts: counts, Pricing: pricing, Costs: costs}, nil
}
