package app

import (
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type Repos struct {
	Worker           repos.WorkerRepo
	Station          repos.StationRepo
	Job              repos.JobRepo
	JobItem          repos.JobItemRepo
	StatusDefinition repos.StatusDefinitionRepo
	Session          repos.SessionRepo
	StatusEvent      repos.StatusEventRepo
	JobItemStep      repos.JobItemStepRepo
	WipBalance       repos.WipBalanceRepo
	WipConsumption   repos.WipConsumptionRepo
	JobItemProgress  repos.JobItemProgressRepo
	Report           repos.ReportRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Worker:           repos.NewWorkerRepo(db, log),
		Station:          repos.NewStationRepo(db, log),
		Job:              repos.NewJobRepo(db, log),
		JobItem:          repos.NewJobItemRepo(db, log),
		StatusDefinition: repos.NewStatusDefinitionRepo(db, log),
		Session:          repos.NewSessionRepo(db, log),
		StatusEvent:      repos.NewStatusEventRepo(db, log),
		JobItemStep:      repos.NewJobItemStepRepo(db, log),
		WipBalance:       repos.NewWipBalanceRepo(db, log),
		WipConsumption:   repos.NewWipConsumptionRepo(db, log),
		JobItemProgress:  repos.NewJobItemProgressRepo(db, log),
		Report:           repos.NewReportRepo(db, log),
	}
}
