package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
)

func SeedWorker(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.Worker {
	tb.Helper()
	w := &types.Worker{
		ID:       uuid.New(),
		Code:     code,
		FullName: "Worker " + code,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed worker: %v", err)
	}
	return w
}

func SeedStation(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.Station {
	tb.Helper()
	s := &types.Station{
		ID:          uuid.New(),
		Code:        code,
		Name:        "Station " + code,
		StationType: "machine",
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed station: %v", err)
	}
	return s
}

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, jobNumber string) *types.Job {
	tb.Helper()
	j := &types.Job{
		ID:           uuid.New(),
		JobNumber:    jobNumber,
		CustomerName: "customer",
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}

func SeedJobItem(tb testing.TB, ctx context.Context, tx *gorm.DB, jobID uuid.UUID, planned int64) *types.JobItem {
	tb.Helper()
	item := &types.JobItem{
		ID:              uuid.New(),
		JobID:           jobID,
		Name:            "item",
		PlannedQuantity: planned,
		IsActive:        true,
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed job item: %v", err)
	}
	return item
}

func SeedStatusDefinition(tb testing.TB, ctx context.Context, tx *gorm.DB, code, machineState string) *types.StatusDefinition {
	tb.Helper()
	def := &types.StatusDefinition{
		ID:           uuid.New(),
		Code:         code,
		Scope:        types.StatusScopeGlobal,
		MachineState: machineState,
		LabelHe:      code,
		ColorHex:     "#9E9E9E",
		ReportType:   types.ReportTypeRequirementNone,
	}
	if err := tx.WithContext(ctx).Create(def).Error; err != nil {
		tb.Fatalf("seed status definition: %v", err)
	}
	return def
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, worker *types.Worker, station *types.Station) *types.Session {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Session{
		ID:                 uuid.New(),
		WorkerID:           worker.ID,
		StationID:          station.ID,
		Status:             types.SessionStatusActive,
		LastStatusChangeAt: now,
		InstanceID:         uuid.New(),
		WorkerName:         worker.FullName,
		WorkerCode:         worker.Code,
		StationName:        station.Name,
		StationCode:        station.Code,
		StartedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedStatusEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, definitionID uuid.UUID) *types.StatusEvent {
	tb.Helper()
	ev := &types.StatusEvent{
		ID:                 uuid.New(),
		SessionID:          sessionID,
		StatusDefinitionID: definitionID,
		StartedAt:          time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed status event: %v", err)
	}
	return ev
}

// SeedPipeline creates n ordered steps for the item, one station per step,
// each with a zeroed balance, plus the progress row. The last step is
// terminal.
func SeedPipeline(tb testing.TB, ctx context.Context, tx *gorm.DB, jobItemID uuid.UUID, n int) []*types.JobItemStep {
	tb.Helper()
	steps := make([]*types.JobItemStep, 0, n)
	for i := 1; i <= n; i++ {
		st := SeedStation(tb, ctx, tx, fmt.Sprintf("ST-%s-%d", jobItemID.String()[:8], i))
		step := &types.JobItemStep{
			ID:         uuid.New(),
			JobItemID:  jobItemID,
			StationID:  st.ID,
			Position:   i,
			IsTerminal: i == n,
		}
		if err := tx.WithContext(ctx).Create(step).Error; err != nil {
			tb.Fatalf("seed job item step: %v", err)
		}
		bal := &types.WipBalance{ID: uuid.New(), JobItemStepID: step.ID}
		if err := tx.WithContext(ctx).Create(bal).Error; err != nil {
			tb.Fatalf("seed wip balance: %v", err)
		}
		steps = append(steps, step)
	}
	prog := &types.JobItemProgress{ID: uuid.New(), JobItemID: jobItemID}
	if err := tx.WithContext(ctx).Create(prog).Error; err != nil {
		tb.Fatalf("seed job item progress: %v", err)
	}
	return steps
}
