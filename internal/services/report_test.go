package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	"github.com/floortrack/floortrack-backend/internal/data/repos/testutil"
	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
)

func TestMalfunctionReportLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))

	report, err := svc.report.Create(dbc, CreateReportInput{
		Type:        types.ReportTypeMalfunction,
		StationID:   station.ID,
		Description: "spindle vibration",
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if report.Status != types.ReportStatusOpen {
		t.Fatalf("malfunction must open as %q, got %q", types.ReportStatusOpen, report.Status)
	}

	report, err = svc.report.UpdateStatus(dbc, report.ID, types.ReportStatusKnown)
	if err != nil {
		t.Fatalf("open -> known: %v", err)
	}
	_, err = svc.report.UpdateStatus(dbc, report.ID, types.ReportStatusOpen)
	assertCode(t, err, apierr.CodeTransitionForbidden)

	report, err = svc.report.UpdateStatus(dbc, report.ID, types.ReportStatusSolved)
	if err != nil {
		t.Fatalf("known -> solved: %v", err)
	}
	_, err = svc.report.UpdateStatus(dbc, report.ID, types.ReportStatusKnown)
	assertCode(t, err, apierr.CodeTransitionForbidden)

	// Reopen is the only edge out of solved.
	report, err = svc.report.UpdateStatus(dbc, report.ID, types.ReportStatusOpen)
	if err != nil {
		t.Fatalf("solved -> open: %v", err)
	}
	same, err := svc.report.UpdateStatus(dbc, report.ID, types.ReportStatusOpen)
	if err != nil {
		t.Fatalf("same-state update must be a no-op: %v", err)
	}
	if same.Status != types.ReportStatusOpen {
		t.Fatalf("no-op update changed status to %q", same.Status)
	}
}

func TestReportUpdateNeverTouchesStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	report, err := svc.report.Create(dbc, CreateReportInput{
		Type:      types.ReportTypeGeneral,
		StationID: station.ID,
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	desc := "updated description"
	updated, err := svc.report.Update(dbc, report.ID, UpdateReportInput{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != desc {
		t.Fatalf("description not updated")
	}
	if updated.Status != types.ReportStatusNew {
		t.Fatalf("update must not change status, got %q", updated.Status)
	}

	_, err = svc.report.GetByID(dbc, uuid.New())
	assertCode(t, err, apierr.CodeReportNotFound)
}

func TestReportListFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	other := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))

	if _, err := svc.report.Create(dbc, CreateReportInput{Type: types.ReportTypeMalfunction, StationID: station.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.report.Create(dbc, CreateReportInput{Type: types.ReportTypeScrap, StationID: station.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.report.Create(dbc, CreateReportInput{Type: types.ReportTypeMalfunction, StationID: other.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}

	malfunction := types.ReportTypeMalfunction
	out, err := svc.report.List(dbc, repos.ReportListFilter{Type: malfunction, StationID: station.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 report, got %d", len(out))
	}
	if out[0].Type != types.ReportTypeMalfunction || out[0].StationID != station.ID {
		t.Fatalf("filter returned wrong report")
	}
}

func TestFirstProductApprovalGate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	if err := tx.Model(&types.Station{}).Where("id = ?", station.ID).Update("requires_first_product_qa", true).Error; err != nil {
		t.Fatalf("flag station: %v", err)
	}
	production := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("prod"), types.MachineStateProduction)
	idle := testutil.SeedStatusDefinition(t, ctx, tx, uniqueCode("idle"), types.MachineStateStoppage)

	job := testutil.SeedJob(t, ctx, tx, uniqueCode("JOB"))
	item := testutil.SeedJobItem(t, ctx, tx, job.ID, 100)
	steps, err := svc.wip.SetupPipeline(dbc, item.ID, []uuid.UUID{station.ID}, nil)
	if err != nil {
		t.Fatalf("setup pipeline: %v", err)
	}
	if !steps[0].RequiresFirstProductApproval {
		t.Fatalf("step must snapshot the station's QA requirement")
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
		JobID: job.ID, JobItemID: item.ID, JobItemStepID: steps[0].ID,
	}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	_, err = svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{StatusDefinitionID: production.ID})
	assertCode(t, err, apierr.CodeFirstProductApprovalNeeded)

	check, err := svc.report.CheckApprovalForSession(dbc, session.ID, steps[0].ID)
	if err != nil {
		t.Fatalf("check approval: %v", err)
	}
	if check.Status != ApprovalNeedsSubmission {
		t.Fatalf("expected %q before any request, got %q", ApprovalNeedsSubmission, check.Status)
	}

	request, err := svc.report.Create(dbc, CreateReportInput{
		Type:             types.ReportTypeGeneral,
		StationID:        station.ID,
		SessionID:        &session.ID,
		JobItemID:        &item.ID,
		JobItemStepID:    &steps[0].ID,
		IsFirstProductQA: true,
	})
	if err != nil {
		t.Fatalf("create QA request: %v", err)
	}

	check, err = svc.report.CheckApprovalForSession(dbc, session.ID, steps[0].ID)
	if err != nil {
		t.Fatalf("check approval: %v", err)
	}
	if check.Status != ApprovalPending || check.PendingReport == nil {
		t.Fatalf("expected pending with the open request, got %q", check.Status)
	}

	_, err = svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{StatusDefinitionID: production.ID})
	assertCode(t, err, apierr.CodeFirstProductApprovalNeeded)

	if _, err := svc.report.UpdateStatus(dbc, request.ID, types.ReportStatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	check, err = svc.report.CheckApprovalForSession(dbc, session.ID, steps[0].ID)
	if err != nil {
		t.Fatalf("check approval: %v", err)
	}
	if check.Status != ApprovalApproved || check.ApprovedReport == nil {
		t.Fatalf("expected approved, got %q", check.Status)
	}

	if _, err := svc.session.StartStatusEvent(dbc, session.ID, StartStatusEventInput{StatusDefinitionID: production.ID}); err != nil {
		t.Fatalf("production must be allowed after approval: %v", err)
	}
}

func TestFirstProductRequestValidation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	job := testutil.SeedJob(t, ctx, tx, uniqueCode("JOB"))
	item := testutil.SeedJobItem(t, ctx, tx, job.ID, 100)
	steps := testutil.SeedPipeline(t, ctx, tx, item.ID, 1)

	_, err := svc.report.Create(dbc, CreateReportInput{
		Type:             types.ReportTypeMalfunction,
		StationID:        station.ID,
		JobItemStepID:    &steps[0].ID,
		IsFirstProductQA: true,
	})
	if err == nil {
		t.Fatalf("first-product request must be a general report")
	}

	_, err = svc.report.Create(dbc, CreateReportInput{
		Type:             types.ReportTypeGeneral,
		StationID:        station.ID,
		IsFirstProductQA: true,
	})
	if err == nil {
		t.Fatalf("first-product request requires a step")
	}

	if _, err := svc.report.Create(dbc, CreateReportInput{
		Type:             types.ReportTypeGeneral,
		StationID:        station.ID,
		JobItemID:        &item.ID,
		JobItemStepID:    &steps[0].ID,
		IsFirstProductQA: true,
	}); err != nil {
		t.Fatalf("create QA request: %v", err)
	}

	// Second open request for the same step trips the partial unique index.
	_, err = svc.report.Create(dbc, CreateReportInput{
		Type:             types.ReportTypeGeneral,
		StationID:        station.ID,
		JobItemID:        &item.ID,
		JobItemStepID:    &steps[0].ID,
		IsFirstProductQA: true,
	})
	assertCode(t, err, apierr.CodeFirstProductRequestExists)
}

func TestCheckApprovalNotRequired(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	svc := newTestServices(t, db)

	worker := testutil.SeedWorker(t, ctx, tx, uniqueCode("W"))
	station := testutil.SeedStation(t, ctx, tx, uniqueCode("ST"))
	session := testutil.SeedSession(t, ctx, tx, worker, station)
	job := testutil.SeedJob(t, ctx, tx, uniqueCode("JOB"))
	item := testutil.SeedJobItem(t, ctx, tx, job.ID, 100)
	steps := testutil.SeedPipeline(t, ctx, tx, item.ID, 1)

	check, err := svc.report.CheckApprovalForSession(dbc, session.ID, steps[0].ID)
	if err != nil {
		t.Fatalf("check approval: %v", err)
	}
	if check.Required || check.Status != ApprovalNotRequired {
		t.Fatalf("expected not_required, got %q", check.Status)
	}

	_, err = svc.report.CheckApprovalForSession(dbc, uuid.New(), steps[0].ID)
	assertCode(t, err, apierr.CodeSessionNotFound)

	_, err = svc.report.CheckApprovalForSession(dbc, session.ID, uuid.New())
	assertCode(t, err, apierr.CodeJobItemStepNotFound)
}
