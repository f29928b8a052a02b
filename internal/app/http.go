package app

import (
	"github.com/gin-gonic/gin"

	httpRouter "github.com/floortrack/floortrack-backend/internal/http"
	httpH "github.com/floortrack/floortrack-backend/internal/http/handlers"
	"github.com/floortrack/floortrack-backend/internal/middleware"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
	"github.com/floortrack/floortrack-backend/internal/sse"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

type Handlers struct {
	Health           *httpH.HealthHandler
	Session          *httpH.SessionHandler
	Pipeline         *httpH.PipelineHandler
	Report           *httpH.ReportHandler
	StatusDefinition *httpH.StatusDefinitionHandler
	Realtime         *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *sse.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:           httpH.NewHealthHandler(),
		Session:          httpH.NewSessionHandler(services.Session),
		Pipeline:         httpH.NewPipelineHandler(services.Wip),
		Report:           httpH.NewReportHandler(services.Report),
		StatusDefinition: httpH.NewStatusDefinitionHandler(services.StatusDefinition),
		Realtime:         httpH.NewRealtimeHandler(log, sseHub),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireRouter(handlers Handlers, mw Middleware) *gin.Engine {
	return httpRouter.NewRouter(httpRouter.RouterConfig{
		HealthHandler:           handlers.Health,
		AuthMiddleware:          mw.Auth,
		SessionHandler:          handlers.Session,
		PipelineHandler:         handlers.Pipeline,
		ReportHandler:           handlers.Report,
		StatusDefinitionHandler: handlers.StatusDefinition,
		RealtimeHandler:         handlers.Realtime,
	})
}
