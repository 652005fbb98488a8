package router

import (
	"github.com/gin-gonic/gin"

	"invoscan/internal/config"
	"invoscan/internal/handler"
	"invoscan/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	processH *handler.ProcessHandler,
	samplingH *handler.SamplingHandler,
	summaryH *handler.SummaryHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	v1.POST("/process", processH.Process)

	sampling := v1.Group("/sampling")
	sampling.POST("/drive", samplingH.RunDrive)
	sampling.POST("/zoho", samplingH.RunZoho)
	sampling.POST("/retry", samplingH.Retry)

	summary := v1.Group("/summary")
	summary.GET("", summaryH.Summary)
	summary.GET("/export", summaryH.Export)
	summary.GET("/cost", summaryH.Cost)
	summary.POST("/recompute", summaryH.Recompute)

	v1.GET("/signed-url", summaryH.SignedURL)

	return r
}
