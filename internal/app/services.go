package app

import (
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/platform/logger"
	"github.com/floortrack/floortrack-backend/internal/services"
	"github.com/floortrack/floortrack-backend/internal/sse"
)

type Services struct {
	Notifier         services.FloorNotifier
	StatusDefinition services.StatusDefinitionService
	Wip              services.WipService
	Report           services.ReportService
	Session          services.SessionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *sse.SSEHub) Services {
	log.Info("Wiring services...")

	notifier := services.NewFloorNotifier(&services.HubEmitter{Hub: hub})

	statusDefinition := services.NewStatusDefinitionService(db, log, r.StatusDefinition)
	wip := services.NewWipService(db, log, r.JobItem, r.Station, r.JobItemStep, r.WipBalance, r.WipConsumption, r.JobItemProgress)
	report := services.NewReportService(db, log, r.Report, r.JobItemStep, r.Session, notifier)
	session := services.NewSessionService(db, log,
		r.Session, r.StatusEvent, r.Worker, r.Station, r.JobItem, r.JobItemStep, r.StatusDefinition,
		wip, report, notifier)

	return Services{
		Notifier:         notifier,
		StatusDefinition: statusDefinition,
		Wip:              wip,
		Report:           report,
		Session:          session,
	}
}
