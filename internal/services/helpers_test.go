package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	"github.com/floortrack/floortrack-backend/internal/data/repos/testutil"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
)

// testServices wires the full service graph against the shared test database.
// The notifier is nil; every service guards its emits.
type testServices struct {
	workerRepo      repos.WorkerRepo
	stationRepo     repos.StationRepo
	jobItemRepo     repos.JobItemRepo
	defRepo         repos.StatusDefinitionRepo
	sessionRepo     repos.SessionRepo
	eventRepo       repos.StatusEventRepo
	stepRepo        repos.JobItemStepRepo
	balanceRepo     repos.WipBalanceRepo
	consumptionRepo repos.WipConsumptionRepo
	progressRepo    repos.JobItemProgressRepo
	reportRepo      repos.ReportRepo

	defs    StatusDefinitionService
	wip     WipService
	report  ReportService
	session SessionService
}

func newTestServices(tb testing.TB, db *gorm.DB) *testServices {
	tb.Helper()
	log := testutil.Logger(tb)

	s := &testServices{
		workerRepo:      repos.NewWorkerRepo(db, log),
		stationRepo:     repos.NewStationRepo(db, log),
		jobItemRepo:     repos.NewJobItemRepo(db, log),
		defRepo:         repos.NewStatusDefinitionRepo(db, log),
		sessionRepo:     repos.NewSessionRepo(db, log),
		eventRepo:       repos.NewStatusEventRepo(db, log),
		stepRepo:        repos.NewJobItemStepRepo(db, log),
		balanceRepo:     repos.NewWipBalanceRepo(db, log),
		consumptionRepo: repos.NewWipConsumptionRepo(db, log),
		progressRepo:    repos.NewJobItemProgressRepo(db, log),
		reportRepo:      repos.NewReportRepo(db, log),
	}
	s.defs = NewStatusDefinitionService(db, log, s.defRepo)
	s.wip = NewWipService(db, log, s.jobItemRepo, s.stationRepo, s.stepRepo, s.balanceRepo, s.consumptionRepo, s.progressRepo)
	s.report = NewReportService(db, log, s.reportRepo, s.stepRepo, s.sessionRepo, nil)
	s.session = NewSessionService(db, log, s.sessionRepo, s.eventRepo, s.workerRepo, s.stationRepo,
		s.jobItemRepo, s.stepRepo, s.defRepo, s.wip, s.report, nil)
	return s
}

func assertCode(tb testing.TB, err error, code string) {
	tb.Helper()
	var aerr *apierr.Error
	if !errors.As(err, &aerr) {
		tb.Fatalf("expected api error with code %s, got %v", code, err)
	}
	if aerr.Code != code {
		tb.Fatalf("expected code %s, got %s (%v)", code, aerr.Code, err)
	}
}

func uniqueCode(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// cleanupJobItem removes everything a committed (non-rollback) test created
// under one job item. Registered before the rows exist, so it tolerates
// partial setup.
func cleanupJobItem(tb testing.TB, db *gorm.DB, jobID, jobItemID uuid.UUID) {
	tb.Helper()
	tb.Cleanup(func() {
		db.Exec(`DELETE FROM wip_consumption WHERE job_item_id = ?`, jobItemID)
		db.Exec(`DELETE FROM job_item_progress WHERE job_item_id = ?`, jobItemID)
		db.Exec(`DELETE FROM wip_balance WHERE job_item_step_id IN (SELECT id FROM job_item_step WHERE job_item_id = ?)`, jobItemID)
		db.Exec(`DELETE FROM station WHERE id IN (SELECT station_id FROM job_item_step WHERE job_item_id = ?)`, jobItemID)
		db.Exec(`DELETE FROM job_item_step WHERE job_item_id = ?`, jobItemID)
		db.Exec(`DELETE FROM job_item WHERE id = ?`, jobItemID)
		db.Exec(`DELETE FROM job WHERE id = ?`, jobID)
	})
}

// cleanupWorkerSessions removes a committed test's sessions, their events and
// the worker itself.
func cleanupWorkerSessions(tb testing.TB, db *gorm.DB, workerID uuid.UUID) {
	tb.Helper()
	tb.Cleanup(func() {
		db.Exec(`DELETE FROM status_event WHERE session_id IN (SELECT id FROM session WHERE worker_id = ?)`, workerID)
		db.Exec(`DELETE FROM session WHERE worker_id = ?`, workerID)
		db.Exec(`DELETE FROM worker WHERE id = ?`, workerID)
	})
}

func cleanupStation(tb testing.TB, db *gorm.DB, stationID uuid.UUID) {
	tb.Helper()
	tb.Cleanup(func() {
		db.Exec(`DELETE FROM station WHERE id = ?`, stationID)
	})
}

func cleanupStatusDefinition(tb testing.TB, db *gorm.DB, defID uuid.UUID) {
	tb.Helper()
	tb.Cleanup(func() {
		db.Exec(`DELETE FROM status_definition WHERE id = ?`, defID)
	})
}
