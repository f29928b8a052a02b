package repos

import (
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos/catalog"
	"github.com/floortrack/floortrack-backend/internal/data/repos/reports"
	"github.com/floortrack/floortrack-backend/internal/data/repos/wip"
	"github.com/floortrack/floortrack-backend/internal/data/repos/work"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type WorkerRepo = catalog.WorkerRepo
type StationRepo = catalog.StationRepo
type JobRepo = catalog.JobRepo
type JobItemRepo = catalog.JobItemRepo
type StatusDefinitionRepo = catalog.StatusDefinitionRepo

type SessionRepo = work.SessionRepo
type StatusEventRepo = work.StatusEventRepo

type JobItemStepRepo = wip.JobItemStepRepo
type WipBalanceRepo = wip.WipBalanceRepo
type WipConsumptionRepo = wip.WipConsumptionRepo
type JobItemProgressRepo = wip.JobItemProgressRepo

type ReportRepo = reports.ReportRepo
type ReportListFilter = reports.ListFilter

func NewWorkerRepo(db *gorm.DB, baseLog *logger.Logger) WorkerRepo {
	return catalog.NewWorkerRepo(db, baseLog)
}
func NewStationRepo(db *gorm.DB, baseLog *logger.Logger) StationRepo {
	return catalog.NewStationRepo(db, baseLog)
}
func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo { return catalog.NewJobRepo(db, baseLog) }
func NewJobItemRepo(db *gorm.DB, baseLog *logger.Logger) JobItemRepo {
	return catalog.NewJobItemRepo(db, baseLog)
}
func NewStatusDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) StatusDefinitionRepo {
	return catalog.NewStatusDefinitionRepo(db, baseLog)
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return work.NewSessionRepo(db, baseLog)
}
func NewStatusEventRepo(db *gorm.DB, baseLog *logger.Logger) StatusEventRepo {
	return work.NewStatusEventRepo(db, baseLog)
}

func NewJobItemStepRepo(db *gorm.DB, baseLog *logger.Logger) JobItemStepRepo {
	return wip.NewJobItemStepRepo(db, baseLog)
}
func NewWipBalanceRepo(db *gorm.DB, baseLog *logger.Logger) WipBalanceRepo {
	return wip.NewWipBalanceRepo(db, baseLog)
}
func NewWipConsumptionRepo(db *gorm.DB, baseLog *logger.Logger) WipConsumptionRepo {
	return wip.NewWipConsumptionRepo(db, baseLog)
}
func NewJobItemProgressRepo(db *gorm.DB, baseLog *logger.Logger) JobItemProgressRepo {
	return wip.NewJobItemProgressRepo(db, baseLog)
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return reports.NewReportRepo(db, baseLog)
}
