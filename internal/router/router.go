package router

import (
	"github.com/gin-gonic/gin"

	"sentiscope/internal/handler"
	"sentiscope/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health   *handler.HealthHandler
	Session  *handler.SessionHandler
	Analysis *handler.AnalysisHandler
	Stream   *handler.StreamHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger("/healthz", "/readyz"))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	sessions := v1.Group("/sessions")
	sessions.POST("", h.Session.Create)
	sessions.GET("/:id", h.Session.Get)
	sessions.DELETE("/:id", h.Session.Delete)

	// Selection
	sessions.POST("/:id/files", h.Session.AddFiles)
	sessions.DELETE("/:id/files", h.Session.ClearFiles)
	sessions.DELETE("/:id/files/:index", h.Session.RemoveFile)

	// Workflow
	sessions.POST("/:id/analyze", h.Analysis.Analyze)
	sessions.POST("/:id/reset", h.Analysis.Reset)
	sessions.GET("/:id/report", h.Analysis.Report)
	sessions.GET("/:id/report/export", h.Analysis.Export)
	sessions.GET("/:id/stream", h.Stream.Stream)

	return r
}
