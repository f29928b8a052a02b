package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpH "github.com/floortrack/floortrack-backend/internal/http/handlers"
	"github.com/floortrack/floortrack-backend/internal/middleware"
)

type RouterConfig struct {
	HealthHandler           *httpH.HealthHandler
	AuthMiddleware          *middleware.AuthMiddleware
	SessionHandler          *httpH.SessionHandler
	PipelineHandler         *httpH.PipelineHandler
	ReportHandler           *httpH.ReportHandler
	StatusDefinitionHandler *httpH.StatusDefinitionHandler
	RealtimeHandler         *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Sessions
	if cfg.SessionHandler != nil {
		api.POST("/sessions", cfg.SessionHandler.Create)
		api.GET("/sessions/active", cfg.SessionHandler.GetActive)
		api.POST("/sessions/:id/status", cfg.SessionHandler.StartStatusEvent)
		api.POST("/sessions/:id/status/:eventId/end-production", cfg.SessionHandler.EndProductionStatus)
		api.POST("/sessions/:id/bind", cfg.SessionHandler.BindJobItem)
		api.POST("/sessions/:id/complete", cfg.SessionHandler.Complete)
		api.POST("/sessions/:id/abort", cfg.SessionHandler.Abort)
		api.POST("/sessions/:id/takeover", cfg.SessionHandler.Takeover)
		api.POST("/workers/:id/close-sessions", cfg.SessionHandler.CloseForWorker)
	}

	// Pipeline
	if cfg.PipelineHandler != nil {
		api.POST("/job-items/:id/pipeline", cfg.PipelineHandler.Setup)
		api.GET("/job-items/:id/pipeline", cfg.PipelineHandler.Get)
	}

	// Reports
	if cfg.ReportHandler != nil {
		api.POST("/reports", cfg.ReportHandler.Create)
		api.GET("/reports", cfg.ReportHandler.List)
		api.PATCH("/reports/:id", cfg.ReportHandler.Update)
		api.PATCH("/reports/:id/status", cfg.ReportHandler.UpdateStatus)
		api.GET("/sessions/:id/approval/:stepId", cfg.ReportHandler.CheckApproval)
	}

	// Status definitions
	if cfg.StatusDefinitionHandler != nil {
		api.GET("/status-definitions", cfg.StatusDefinitionHandler.List)
		api.POST("/status-definitions", cfg.StatusDefinitionHandler.Create)
		api.PATCH("/status-definitions/:id", cfg.StatusDefinitionHandler.Update)
		api.DELETE("/status-definitions/:id", cfg.StatusDefinitionHandler.Delete)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		api.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		api.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
		api.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
	}

	return r
}
