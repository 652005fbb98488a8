package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	GCP      GCPConfig
	Vertex   VertexConfig
	Sampling SamplingConfig
	Schema   SchemaConfig
	Pricing  PricingConfig
	CORS     CORSConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// GCPConfig holds Google Cloud project, bucket and Firestore settings.
type GCPConfig struct {
	ProjectID           string `mapstructure:"project_id"`
	Bucket              string `mapstructure:"bucket"`
	FirestoreDatabaseID string `mapstructure:"firestore_database_id"`
}

// VertexConfig holds inference settings.
type VertexConfig struct {
	ProjectID   string   `mapstructure:"project_id"`
	Location    string   `mapstructure:"location"`
	Model       string   `mapstructure:"model"`
	Fallbacks   []string `mapstructure:"fallbacks"`
	TimeoutSecs int      `mapstructure:"timeout_secs"`
	UseBatch    bool     `mapstructure:"use_batch"`
}

// SamplingConfig holds batch run and source settings.
type SamplingConfig struct {
	Concurrency     int    `mapstructure:"concurrency"`
	DefaultTag      string `mapstructure:"default_tag"`
	DriveFolderID   string `mapstructure:"drive_folder_id"`
	ZohoReportURL   string `mapstructure:"zoho_report_url"`
	ZohoPrivateLink string `mapstructure:"zoho_private_link"`
	ZohoOwner       string `mapstructure:"zoho_owner"`
	ZohoApp         string `mapstructure:"zoho_app"`
	ZohoForm        string `mapstructure:"zoho_form"`
	ZohoFileField   string `mapstructure:"zoho_file_field"`
}

// SchemaConfig holds field schema settings. ExtraSynonyms is a
// "Field:alias1:alias2,Other_Field:alias" list appended to the compiled-in
// synonym table.
type SchemaConfig struct {
	ExtraSynonyms string `mapstructure:"extra_synonyms"`
}

// PricingConfig holds unit prices for the cost estimator. Zero token prices
// mean the model is unpriced and the inference cost is reported as unknown.
type PricingConfig struct {
	VertexInPer1KUSD  float64 `mapstructure:"vertex_in_per_1k_usd"`
	VertexOutPer1KUSD float64 `mapstructure:"vertex_out_per_1k_usd"`
	GCSPerGBMonthUSD  float64 `mapstructure:"gcs_per_gb_month_usd"`
	FSWritePer100KUSD float64 `mapstructure:"fs_write_per_100k_usd"`
	FSReadPer100KUSD  float64 `mapstructure:"fs_read_per_100k_usd"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the INVOSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// GCP defaults
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.bucket", "")
	v.SetDefault("gcp.firestore_database_id", "")

	// Vertex defaults
	v.SetDefault("vertex.project_id", "")
	v.SetDefault("vertex.location", "us-central1")
	v.SetDefault("vertex.model", "gemini-2.5-pro")
	v.SetDefault("vertex.fallbacks", "")
	v.SetDefault("vertex.timeout_secs", 120)
	v.SetDefault("vertex.use_batch", true)

	// Sampling defaults
	v.SetDefault("sampling.concurrency", 4)
	v.SetDefault("sampling.default_tag", "prasoon-sampling")
	v.SetDefault("sampling.drive_folder_id", "")
	v.SetDefault("sampling.zoho_report_url", "")
	v.SetDefault("sampling.zoho_private_link", "")
	v.SetDefault("sampling.zoho_owner", "")
	v.SetDefault("sampling.zoho_app", "")
	v.SetDefault("sampling.zoho_form", "")
	v.SetDefault("sampling.zoho_file_field", "upload_invoice")

	// Schema defaults
	v.SetDefault("schema.extra_synonyms", "")

	// Pricing defaults. Token prices default to zero (unpriced) so the
	// estimator never reports a made-up inference cost.
	v.SetDefault("pricing.vertex_in_per_1k_usd", 0.0)
	v.SetDefault("pricing.vertex_out_per_1k_usd", 0.0)
	v.SetDefault("pricing.gcs_per_gb_month_usd", 0.026)
	v.SetDefault("pricing.fs_write_per_100k_usd", 0.18)
	v.SetDefault("pricing.fs_read_per_100k_usd", 0.06)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "INVOSCAN_SERVER_PORT",
		"server.read_timeout":          "INVOSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "INVOSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":           "INVOSCAN_SERVER_ENVIRONMENT",
		"gcp.project_id":               "INVOSCAN_GCP_PROJECT_ID",
		"gcp.bucket":                   "INVOSCAN_GCP_BUCKET",
		"gcp.firestore_database_id":    "INVOSCAN_GCP_FIRESTORE_DATABASE_ID",
		"vertex.project_id":            "INVOSCAN_VERTEX_PROJECT_ID",
		"vertex.location":              "INVOSCAN_VERTEX_LOCATION",
		"vertex.model":                 "INVOSCAN_VERTEX_MODEL",
		"vertex.fallbacks":             "INVOSCAN_VERTEX_FALLBACKS",
		"vertex.timeout_secs":          "INVOSCAN_VERTEX_TIMEOUT_SECS",
		"vertex.use_batch":             "INVOSCAN_VERTEX_USE_BATCH",
		"sampling.concurrency":         "INVOSCAN_SAMPLING_CONCURRENCY",
		"sampling.default_tag":         "INVOSCAN_SAMPLING_DEFAULT_TAG",
		"sampling.drive_folder_id":     "INVOSCAN_SAMPLING_DRIVE_FOLDER_ID",
		"sampling.zoho_report_url":     "INVOSCAN_SAMPLING_ZOHO_REPORT_URL",
		"sampling.zoho_private_link":   "INVOSCAN_SAMPLING_ZOHO_PRIVATE_LINK",
		"sampling.zoho_owner":          "INVOSCAN_SAMPLING_ZOHO_OWNER",
		"sampling.zoho_app":            "INVOSCAN_SAMPLING_ZOHO_APP",
		"sampling.zoho_form":           "INVOSCAN_SAMPLING_ZOHO_FORM",
		"sampling.zoho_file_field":     "INVOSCAN_SAMPLING_ZOHO_FILE_FIELD",
		"schema.extra_synonyms":        "INVOSCAN_SCHEMA_EXTRA_SYNONYMS",
		"pricing.vertex_in_per_1k_usd":    "INVOSCAN_PRICING_VERTEX_IN_PER_1K_USD",
		"pricing.vertex_out_per_1k_usd":   "INVOSCAN_PRICING_VERTEX_OUT_PER_1K_USD",
		"pricing.gcs_per_gb_month_usd":    "INVOSCAN_PRICING_GCS_PER_GB_MONTH_USD",
		"pricing.fs_write_per_100k_usd":   "INVOSCAN_PRICING_FS_WRITE_PER_100K_USD",
		"pricing.fs_read_per_100k_usd":    "INVOSCAN_PRICING_FS_READ_PER_100K_USD",
		"log.level":                       "INVOSCAN_LOG_LEVEL",
		"log.format":                      "INVOSCAN_LOG_FORMAT",
		"cors.allowed_origins":            "INVOSCAN_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOSCAN_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.GCP = GCPConfig{
		ProjectID:           v.GetString("gcp.project_id"),
		Bucket:              v.GetString("gcp.bucket"),
		FirestoreDatabaseID: v.GetString("gcp.firestore_database_id"),
	}
	cfg.Vertex = VertexConfig{
		ProjectID:   v.GetString("vertex.project_id"),
		Location:    v.GetString("vertex.location"),
		Model:       v.GetString("vertex.model"),
		Fallbacks:   splitList(v.GetString("vertex.fallbacks")),
		TimeoutSecs: v.GetInt("vertex.timeout_secs"),
		UseBatch:    v.GetBool("vertex.use_batch"),
	}
	if cfg.Vertex.ProjectID == "" {
		cfg.Vertex.ProjectID = cfg.GCP.ProjectID
	}
	cfg.Sampling = SamplingConfig{
		Concurrency:     v.GetInt("sampling.concurrency"),
		DefaultTag:      v.GetString("sampling.default_tag"),
		DriveFolderID:   v.GetString("sampling.drive_folder_id"),
		ZohoReportURL:   v.GetString("sampling.zoho_report_url"),
		ZohoPrivateLink: v.GetString("sampling.zoho_private_link"),
		ZohoOwner:       v.GetString("sampling.zoho_owner"),
		ZohoApp:         v.GetString("sampling.zoho_app"),
		ZohoForm:        v.GetString("sampling.zoho_form"),
		ZohoFileField:   v.GetString("sampling.zoho_file_field"),
	}
	cfg.Schema = SchemaConfig{
		ExtraSynonyms: v.GetString("schema.extra_synonyms"),
	}
	cfg.Pricing = PricingConfig{
		VertexInPer1KUSD:  v.GetFloat64("pricing.vertex_in_per_1k_usd"),
		VertexOutPer1KUSD: v.GetFloat64("pricing.vertex_out_per_1k_usd"),
		GCSPerGBMonthUSD:  v.GetFloat64("pricing.gcs_per_gb_month_usd"),
		FSWritePer100KUSD: v.GetFloat64("pricing.fs_write_per_100k_usd"),
		FSReadPer100KUSD:  v.GetFloat64("pricing.fs_read_per_100k_usd"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList parses a comma-separated string, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
