package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/handler"
	"docanalyst/internal/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Analysis *handler.AnalysisHandler
	History  *handler.HistoryHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h Handlers, log *zap.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Multipart parts beyond this are spooled to disk by net/http.
	r.MaxMultipartMemory = 32 << 20

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	v1.GET("/formats", h.Catalog.Formats)
	v1.GET("/analysis-types", h.Catalog.AnalysisTypes)

	analyses := v1.Group("/analyses")
	analyses.POST("", h.Analysis.Analyze)
	analyses.POST("/text", h.Analysis.AnalyzeText)
	analyses.POST("/split-preview", h.Analysis.SplitPreview)

	v1.POST("/combine", h.History.Combine)

	history := v1.Group("/history")
	history.GET("", h.History.List)
	history.GET("/export.csv", h.History.ExportCSV)
	history.GET("/:id", h.History.GetByID)
	history.DELETE("/:id", h.History.Delete)
	history.GET("/:id/export", h.History.Download)
	history.POST("/:id/export", h.History.Store)
	history.DELETE("/:id/export", h.History.Unstore)

	return r
}
