package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoscan/internal/config"
	"invoscan/internal/port"
	"invoscan/mocks"
)

func costDoc(id string, inTok, outTok int64, sizeBytes int64) port.Document {
	return port.Document{
		ID: id,
		Fields: map[string]any{
			"recordId":     id,
			"gcsUri":       "gs://bucket/uploads/" + id + ".pdf",
			"inputTokens":  inTok,
			"outputTokens": outTok,
			"sizeBytes":    sizeBytes,
		},
	}
}

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{
		GCSPerGBMonthUSD:  0.026,
		FSWritePer100KUSD: 0.18,
		FSReadPer100KUSD:  0.06,
	}
}

func TestEstimateUnpricedVertexIsNil(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("List", mock.Anything, CollectionSampling, 0).Return([]port.Document{
		costDoc("r1", 1000, 500, 1024*1024),
	}, nil)

	svc := NewCostService(store, defaultPricing())
	report, err := svc.Estimate(context.Background())
	require.NoError(t, err)

	// Unknown is not zero.
	assert.Nil(t, report.Costs.VertexUSD)
	assert.Nil(t, report.Pricing.VertexInPer1K)
	assert.Positive(t, report.Costs.TotalUSD)
}

func TestEstimatePricedVertex(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("List", mock.Anything, CollectionSampling, 0).Return([]port.Document{
		costDoc("r1", 2000, 1000, 0),
	}, nil)

	pricing := defaultPricing()
	pricing.VertexInPer1KUSD = 0.01
	pricing.VertexOutPer1KUSD = 0.03

	svc := NewCostService(store, pricing)
	report, err := svc.Estimate(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Costs.VertexUSD)
	// 2 * 0.01 + 1 * 0.03
	assert.InDelta(t, 0.05, *report.Costs.VertexUSD, 1e-9)
}

func TestEstimateCounts(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("List", mock.Anything, CollectionSampling, 0).Return([]port.Document{
		costDoc("r1", 100, 50, 2*1024*1024),
		costDoc("r2", 200, 100, 1024*1024),
	}, nil)

	svc := NewCostService(store, defaultPricing())
	report, err := svc.Estimate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Counts.Records)
	assert.Equal(t, int64(300), report.Counts.TotalInputTokens)
	assert.Equal(t, int64(150), report.Counts.TotalOutputTokens)
	assert.InDelta(t, 3.0, report.Counts.TotalMB, 1e-9)
	// One write and one read per record.
	assert.Equal(t, int64(2), report.Counts.WriteOps)
	assert.Equal(t, int64(2), report.Counts.ReadOps)

	wantFS := 2.0/100000*0.18 + 2.0/100000*0.06
	wantGCS := 3.0 / 1024 * 0.026
	assert.InDelta(t, wantFS, report.Costs.FirestoreUSD, 1e-12)
	assert.InDelta(t, wantGCS, report.Costs.GCSMonthlyStorageUSD, 1e-12)
	assert.InDelta(t, wantFS+wantGCS, report.Costs.TotalUSD, 1e-12)
}

func TestEstimateFallsBackToUsageTokens(t *testing.T) {
	store := new(mocks.MockDocumentStore)
	store.On("List", mock.Anything, CollectionSampling, 0).Return([]port.Document{
		{ID: "r1", Fields: map[string]any{
			"recordId": "r1",
			"gcsUri":   "gs://bucket/uploads/r1.pdf",
			"vertex_usage": map[string]any{
				"promptTokenCount":     float64(111),
				"candidatesTokenCount": float64(22),
				"totalTokenCount":      float64(133),
			},
		}},
	}, nil)

	svc := NewCostService(store, defaultPricing())
	report, err := svc.Estimate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(111), report.Counts.TotalInputTokens)
	assert.Equal(t, int64(22), report.Counts.TotalOutputTokens)
}
