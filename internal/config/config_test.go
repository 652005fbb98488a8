package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "us-central1", cfg.Vertex.Location)
	assert.Equal(t, "gemini-2.5-pro", cfg.Vertex.Model)
	assert.True(t, cfg.Vertex.UseBatch)
	assert.Equal(t, 4, cfg.Sampling.Concurrency)
	assert.Equal(t, "prasoon-sampling", cfg.Sampling.DefaultTag)
	assert.Equal(t, "upload_invoice", cfg.Sampling.ZohoFileField)

	// Token prices are unset by default; storage and document prices carry
	// published list prices.
	assert.Zero(t, cfg.Pricing.VertexInPer1KUSD)
	assert.Zero(t, cfg.Pricing.VertexOutPer1KUSD)
	assert.InDelta(t, 0.026, cfg.Pricing.GCSPerGBMonthUSD, 1e-9)
	assert.InDelta(t, 0.18, cfg.Pricing.FSWritePer100KUSD, 1e-9)
	assert.InDelta(t, 0.06, cfg.Pricing.FSReadPer100KUSD, 1e-9)

	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("INVOSCAN_SERVER_PORT", ":9090")
	t.Setenv("INVOSCAN_GCP_PROJECT_ID", "proj-x")
	t.Setenv("INVOSCAN_VERTEX_MODEL", "gemini-2.5-flash")
	t.Setenv("INVOSCAN_VERTEX_FALLBACKS", "gemini-2.0-flash-001, gemini-1.5-pro-002")
	t.Setenv("INVOSCAN_SAMPLING_CONCURRENCY", "6")
	t.Setenv("INVOSCAN_SCHEMA_EXTRA_SYNONYMS", "Invoice_Number:bill_ref")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "proj-x", cfg.GCP.ProjectID)
	assert.Equal(t, "gemini-2.5-flash", cfg.Vertex.Model)
	assert.Equal(t, []string{"gemini-2.0-flash-001", "gemini-1.5-pro-002"}, cfg.Vertex.Fallbacks)
	assert.Equal(t, 6, cfg.Sampling.Concurrency)
	assert.Equal(t, "Invoice_Number:bill_ref", cfg.Schema.ExtraSynonyms)
}

func TestLoadVertexProjectFallsBackToGCP(t *testing.T) {
	t.Setenv("INVOSCAN_GCP_PROJECT_ID", "proj-shared")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "proj-shared", cfg.Vertex.ProjectID)
}

func TestLoadPlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "7777")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Port)
}
