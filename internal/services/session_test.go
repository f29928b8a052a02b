package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/data/repos/testutil"
	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
)

func TestCreateSessionOpensInitialEvent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	def := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)

	session, err := svc.session.Create(dbc, CreateSessionInput{
		WorkerID:        worker.ID,
		StationID:       station.ID,
		InstanceID:      uuid.New(),
		InitialStatusID: &def.ID,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Status != types.SessionStatusActive {
		t.Fatalf("expected active session, got %s", session.Status)
	}
	if session.CurrentStatusID == nil || *session.CurrentStatusID != def.ID {
		t.Fatalf("current status must mirror the initial definition")
	}
	if session.WorkerName != worker.FullName || session.StationCode != station.Code {
		t.Fatalf("session must snapshot worker and station fields")
	}

	open, err := svc.eventRepo.GetOpenBySession(dbc, session.ID)
	if err != nil {
		t.Fatalf("get open event: %v", err)
	}
	if open == nil || open.StatusDefinitionID != def.ID {
		t.Fatalf("expected an open event under the initial definition")
	}
}

func TestCreateSessionRejectsMissingInstance(t *testing.T) {
	db := testutil.DB(t)
	svc := newTestServices(t, db)
	_, err := svc.session.Create(dbctx.Context{Ctx: context.Background()}, CreateSessionInput{
		WorkerID:  uuid.New(),
		StationID: uuid.New(),
	})
	if err == nil {
		t.Fatalf("expected error for missing instance_id")
	}
}

func TestCreateSessionConflict(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	def := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)

	input := CreateSessionInput{
		WorkerID:        worker.ID,
		StationID:       station.ID,
		InstanceID:      uuid.New(),
		InitialStatusID: &def.ID,
	}
	if _, err := svc.session.Create(dbc, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	input.InstanceID = uuid.New()
	_, err := svc.session.Create(dbc, input)
	assertCode(t, err, apierr.CodeSessionConflict)
}

func TestStartStatusEventClosesPrevious(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	first := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)
	second := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateSetup)

	session, err := svc.session.Create(dbc, CreateSessionInput{
		WorkerID:        worker.ID,
		StationID:       station.ID,
		InstanceID:      uuid.New(),
		InitialStatusID: &first.ID,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	event, err := svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{StatusDefinitionID: second.ID})
	if err != nil {
		t.Fatalf("start status event: %v", err)
	}
	if event.StatusDefinitionID != second.ID {
		t.Fatalf("new event must carry the requested definition")
	}

	count, err := svc.eventRepo.CountOpenBySession(dbc, session.ID)
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 open event, got %d", count)
	}

	reloaded, err := svc.sessionRepo.GetByID(dbc, session.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload session: %v", err)
	}
	if reloaded.CurrentStatusID == nil || *reloaded.CurrentStatusID != second.ID {
		t.Fatalf("session must mirror the new status")
	}

	_, err = svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{StatusDefinitionID: uuid.New()})
	assertCode(t, err, apierr.CodeStatusDefinitionNotFound)
}

func TestEndProductionStatusOnceOnly(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	production := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("prod"), types.MachineStateProduction)
	idle := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("idle"), types.MachineStateStoppage)

	session, err := svc.session.Create(dbc, CreateSessionInput{
		WorkerID:        worker.ID,
		StationID:       station.ID,
		InstanceID:      uuid.New(),
		InitialStatusID: &production.ID,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	open, err := svc.eventRepo.GetOpenBySession(dbc, session.ID)
	if err != nil || open == nil {
		t.Fatalf("get open event: %v", err)
	}

	_, err = svc.session.EndProductionStatus(dbc, session.ID, uuid.New(), EndProductionInput{NextStatusID: idle.ID})
	assertCode(t, err, apierr.CodeStatusEventNotFound)

	_, err = svc.session.EndProductionStatus(dbc, session.ID, open.ID, EndProductionInput{
		QuantityGood: -1, NextStatusID: idle.ID,
	})
	assertCode(t, err, apierr.CodeInvalidQuantities)

	result, err := svc.session.EndProductionStatus(dbc, session.ID, open.ID, EndProductionInput{
		QuantityGood:  5,
		QuantityScrap: 1,
		NextStatusID:  idle.ID,
	})
	if err != nil {
		t.Fatalf("end production: %v", err)
	}
	if result.UpdatedEvent == nil || result.UpdatedEvent.EndedAt == nil {
		t.Fatalf("closed event must carry ended_at")
	}
	if result.UpdatedEvent.QuantityGood == nil || *result.UpdatedEvent.QuantityGood != 5 {
		t.Fatalf("closed event must record quantity_good=5")
	}
	if result.UpdatedEvent.QuantityScrap == nil || *result.UpdatedEvent.QuantityScrap != 1 {
		t.Fatalf("closed event must record quantity_scrap=1")
	}
	if result.NewStatusEvent == nil || result.NewStatusEvent.StatusDefinitionID != idle.ID {
		t.Fatalf("next event must open under the requested status")
	}

	// Retrying the same event id fails: this call is deliberately not
	// idempotent.
	_, err = svc.session.EndProductionStatus(dbc, session.ID, open.ID, EndProductionInput{
		QuantityGood: 5, QuantityScrap: 1, NextStatusID: idle.ID,
	})
	assertCode(t, err, apierr.CodeStatusEventAlreadyEnded)
}

func TestEndProductionRejectsForeignEvent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	other := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	def := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)

	mine := testutil.SeedSession(t, ctx, tx, worker, station)
	theirs := testutil.SeedSession(t, ctx, tx, other, station)
	foreignEvent := testutil.SeedStatusEvent(t, ctx, tx, theirs.ID, def.ID)

	_, err := svc.session.EndProductionStatus(dbc, mine.ID, foreignEvent.ID, EndProductionInput{NextStatusID: def.ID})
	assertCode(t, err, apierr.CodeStatusEventSessionMismatch)
}

func TestEndProductionFeedsLedger(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	production := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("prod"), types.MachineStateProduction)
	idle := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("idle"), types.MachineStateStoppage)

	job := testutil.SeedJob(t, ctx, tx, uniqueCode("JOB"))
	item := testutil.SeedJobItem(t, ctx, tx, job.ID, 100)
	steps, err := svc.wip.SetupPipeline(dbc, item.ID, []uuid.UUID{station.ID}, nil)
	if err != nil {
		t.Fatalf("setup pipeline: %v", err)
	}

	session, err := svc.session.Create(dbc, CreateSessionInput{
		WorkerID:        worker.ID,
		StationID:       station.ID,
		InstanceID:      uuid.New(),
		InitialStatusID: &idle.ID,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID:         job.ID,
		JobItemID:     item.ID,
		JobItemStepID: steps[0].ID,
	}); err != nil {
		t.Fatalf("bind job item: %v", err)
	}
	event, err := svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{StatusDefinitionID: production.ID})
	if err != nil {
		t.Fatalf("start production: %v", err)
	}

	if _, err := svc.session.EndProductionStatus(dbc, session.ID, event.ID, EndProductionInput{
		QuantityGood: 10, NextStatusID: idle.ID,
	}); err != nil {
		t.Fatalf("end production: %v", err)
	}

	bal, err := svc.balanceRepo.GetByStep(dbc, steps[0].ID)
	if err != nil || bal == nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.GoodAvailable != 10 {
		t.Fatalf("balance: expected 10, got %d", bal.GoodAvailable)
	}
	progress, err := svc.progressRepo.GetByJobItem(dbc, item.ID)
	if err != nil || progress == nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.CompletedGood != 10 {
		t.Fatalf("single-step pipeline is terminal: expected 10 completed, got %d", progress.CompletedGood)
	}
	locked, err := svc.jobItemRepo.GetByID(dbc, item.ID)
	if err != nil || locked == nil {
		t.Fatalf("reload item: %v", err)
	}
	if !locked.IsPipelineLocked {
		t.Fatalf("first production report must lock the pipeline")
	}
}

func TestBindJobItemValidation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	session := testutil.SeedSession(t, ctx, tx, worker, station)

	job := testutil.SeedJob(t, ctx, tx, uniqueCode("JOB"))
	otherJob := testutil.SeedJob(t, ctx, tx, uniqueCode("JOB"))
	item := testutil.SeedJobItem(t, ctx, tx, job.ID, 100)
	steps, err := svc.wip.SetupPipeline(dbc, item.ID, []uuid.UUID{station.ID}, nil)
	if err != nil {
		t.Fatalf("setup pipeline: %v", err)
	}
	otherItem := testutil.SeedJobItem(t, ctx, tx, job.ID, 100)
	otherSteps := testutil.SeedPipeline(t, ctx, tx, otherItem.ID, 1)

	_, err = svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID: job.ID, JobItemID: uuid.New(), JobItemStepID: steps[0].ID,
	})
	assertCode(t, err, apierr.CodeJobItemNotFound)

	_, err = svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID: otherJob.ID, JobItemID: item.ID, JobItemStepID: steps[0].ID,
	})
	assertCode(t, err, apierr.CodeJobItemJobMismatch)

	_, err = svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID: job.ID, JobItemID: item.ID, JobItemStepID: otherSteps[0].ID,
	})
	assertCode(t, err, apierr.CodeJobItemStationNotFound)

	// Steps of the other item live at freshly seeded stations, never at the
	// session's station.
	_, err = svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID: job.ID, JobItemID: otherItem.ID, JobItemStepID: otherSteps[0].ID,
	})
	assertCode(t, err, apierr.CodeJobItemStationMismatch)

	if err := tx.Model(&types.JobItem{}).Where("id = ?", item.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate item: %v", err)
	}
	_, err = svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID: job.ID, JobItemID: item.ID, JobItemStepID: steps[0].ID,
	})
	assertCode(t, err, apierr.CodeJobItemInactive)

	if err := tx.Model(&types.JobItem{}).Where("id = ?", item.ID).Update("is_active", true).Error; err != nil {
		t.Fatalf("reactivate item: %v", err)
	}
	bound, err := svc.session.BindJobItem(dbc, session.ID, BindJobItemInput{
		JobID: job.ID, JobItemID: item.ID, JobItemStepID: steps[0].ID,
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if bound.JobItemID == nil || *bound.JobItemID != item.ID {
		t.Fatalf("session must carry the bound job item")
	}
}

func TestCompleteClosesSession(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	def := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)
	session := testutil.SeedSession(t, ctx, tx, worker, station)
	testutil.SeedStatusEvent(t, ctx, tx, session.ID, def.ID)

	done, err := svc.session.Complete(dbc, session.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != types.SessionStatusCompleted || done.EndedAt == nil {
		t.Fatalf("completed session must carry final status and ended_at")
	}

	count, err := svc.eventRepo.CountOpenBySession(dbc, session.ID)
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	if count != 0 {
		t.Fatalf("ending a session must close its open event, %d still open", count)
	}

	_, err = svc.session.Abort(dbc, session.ID)
	assertCode(t, err, apierr.CodeSessionNotActive)
}

func TestCloseActiveForWorkerIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	def := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)
	session := testutil.SeedSession(t, ctx, tx, worker, station)
	testutil.SeedStatusEvent(t, ctx, tx, session.ID, def.ID)

	closed, err := svc.session.CloseActiveForWorker(dbc, worker.ID)
	if err != nil {
		t.Fatalf("close for worker: %v", err)
	}
	if len(closed) != 1 || closed[0] != session.ID {
		t.Fatalf("expected the active session to close, got %v", closed)
	}

	again, err := svc.session.CloseActiveForWorker(dbc, worker.ID)
	if err != nil {
		t.Fatalf("second close for worker: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second call must be a no-op, got %v", again)
	}

	reloaded, err := svc.sessionRepo.GetByID(dbc, session.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload session: %v", err)
	}
	if reloaded.Status != types.SessionStatusAborted {
		t.Fatalf("closed session must be aborted, got %s", reloaded.Status)
	}
}

func TestTakeoverSwapsInstance(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	session := testutil.SeedSession(t, ctx, tx, worker, station)

	_, err := svc.session.Takeover(dbc, uuid.New(), uuid.New())
	assertCode(t, err, apierr.CodeSessionNotFound)

	newInstance := uuid.New()
	taken, err := svc.session.Takeover(dbc, session.ID, newInstance)
	if err != nil {
		t.Fatalf("takeover: %v", err)
	}
	if taken.InstanceID != newInstance {
		t.Fatalf("takeover must swap the instance id")
	}

	if _, err := svc.session.Complete(dbc, session.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = svc.session.Takeover(dbc, session.ID, uuid.New())
	assertCode(t, err, apierr.CodeTakeoverConflict)
}

func TestGetActiveForWorker(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	view, err := svc.session.GetActiveForWorker(dbc, worker.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if view != nil {
		t.Fatalf("expected no active session")
	}

	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	def := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("status"), types.MachineStateStoppage)
	session := testutil.SeedSession(t, ctx, tx, worker, station)
	event := testutil.SeedStatusEvent(t, ctx, tx, session.ID, def.ID)

	view, err = svc.session.GetActiveForWorker(dbc, worker.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if view == nil || view.Session.ID != session.ID {
		t.Fatalf("expected the seeded session")
	}
	if view.OpenEvent == nil || view.OpenEvent.ID != event.ID {
		t.Fatalf("expected the open event alongside the session")
	}
}

func TestConcurrentStatusChangesKeepOneOpenEvent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, db, uniqueCode("W"))
	cleanupWorkerSessions(t, db, worker.ID)
	station := testutil.SeedStation(t, ctx, db, uniqueCode("ST"))
	cleanupStation(t, db, station.ID)
	def := testutil.SeedStatusDefinition(t, ctx, db, uniqueCode("status"), types.MachineStateStoppage)
	cleanupStatusDefinition(t, db, def.ID)

	session, err := svc.session.Create(dbc, CreateSessionInput{
		WorkerID:        worker.ID,
		StationID:       station.ID,
		InstanceID:      uuid.New(),
		InitialStatusID: &def.ID,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{
				StatusDefinitionID: def.ID,
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent status change %d: %v", i, err)
		}
	}

	count, err := svc.eventRepo.CountOpenBySession(dbc, session.ID)
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 open event after concurrent changes, got %d", count)
	}

	all, err := svc.eventRepo.ListBySession(dbc, session.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 events (initial + 3 changes), got %d", len(all))
	}
}
