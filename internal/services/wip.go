package services

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
	"github.com/floortrack/floortrack-backend/internal/platform/pgutil"
)

// wipAdvisoryNamespace keys the per-job-item advisory lock; all ledger
// mutations for one job item serialize on it while different job items
// proceed in parallel.
const wipAdvisoryNamespace = "wip_consume"

type ConsumeInput struct {
	JobItemID     uuid.UUID
	JobItemStepID uuid.UUID
	QuantityGood  int64
	QuantityScrap int64
	SessionID     uuid.UUID
}

type PipelineStepView struct {
	Step    *types.JobItemStep `json:"step"`
	Balance *types.WipBalance  `json:"balance"`
}

type PipelineSnapshot struct {
	JobItem  *types.JobItem          `json:"job_item"`
	Steps    []*PipelineStepView     `json:"steps"`
	Progress *types.JobItemProgress  `json:"progress"`
	Ledger   []*types.WipConsumption `json:"ledger,omitempty"`
}

type WipService interface {
	SetupPipeline(dbc dbctx.Context, jobItemID uuid.UUID, stationIDs []uuid.UUID, presetID *uuid.UUID) ([]*types.JobItemStep, error)
	// Consume runs the pull algorithm. It must be invoked inside the caller's
	// transaction: the advisory lock it takes is transaction-scoped.
	Consume(dbc dbctx.Context, input ConsumeInput) error
	GetPipelineSnapshot(dbc dbctx.Context, jobItemID uuid.UUID) (*PipelineSnapshot, error)
}

type wipService struct {
	db              *gorm.DB
	log             *logger.Logger
	jobItemRepo     repos.JobItemRepo
	stationRepo     repos.StationRepo
	stepRepo        repos.JobItemStepRepo
	balanceRepo     repos.WipBalanceRepo
	consumptionRepo repos.WipConsumptionRepo
	progressRepo    repos.JobItemProgressRepo
}

func NewWipService(
	db *gorm.DB,
	log *logger.Logger,
	jobItemRepo repos.JobItemRepo,
	stationRepo repos.StationRepo,
	stepRepo repos.JobItemStepRepo,
	balanceRepo repos.WipBalanceRepo,
	consumptionRepo repos.WipConsumptionRepo,
	progressRepo repos.JobItemProgressRepo,
) WipService {
	return &wipService{
		db:              db,
		log:             log.With("service", "WipService"),
		jobItemRepo:     jobItemRepo,
		stationRepo:     stationRepo,
		stepRepo:        stepRepo,
		balanceRepo:     balanceRepo,
		consumptionRepo: consumptionRepo,
		progressRepo:    progressRepo,
	}
}

func (s *wipService) SetupPipeline(dbc dbctx.Context, jobItemID uuid.UUID, stationIDs []uuid.UUID, presetID *uuid.UUID) ([]*types.JobItemStep, error) {
	if len(stationIDs) == 0 {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodePipelineEmpty,
			fmt.Errorf("pipeline requires at least one station"))
	}

	setup := func(dbc dbctx.Context) ([]*types.JobItemStep, error) {
		item, err := s.jobItemRepo.GetByID(dbc, jobItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeJobItemNotFound,
				fmt.Errorf("job item %s does not exist", jobItemID))
		}
		if item.IsPipelineLocked {
			return nil, apierr.New(http.StatusConflict, apierr.CodePipelineLocked,
				fmt.Errorf("job item %s pipeline is locked", jobItemID))
		}

		unique := make([]uuid.UUID, 0, len(stationIDs))
		seen := make(map[uuid.UUID]bool, len(stationIDs))
		for _, id := range stationIDs {
			if id == uuid.Nil {
				return nil, apierr.New(http.StatusBadRequest, apierr.CodeStationInvalid,
					fmt.Errorf("station id must not be empty"))
			}
			if !seen[id] {
				seen[id] = true
				unique = append(unique, id)
			}
		}
		stations, err := s.stationRepo.GetActiveByIDs(dbc, unique)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]*types.Station, len(stations))
		for _, st := range stations {
			byID[st.ID] = st
		}
		for _, id := range unique {
			if byID[id] == nil {
				return nil, apierr.New(http.StatusBadRequest, apierr.CodeStationInvalid,
					fmt.Errorf("station %s is missing or inactive", id))
			}
		}

		// Replacing the steps cascade-deletes their balances.
		if err := s.stepRepo.DeleteByJobItem(dbc, jobItemID); err != nil {
			return nil, err
		}

		steps := make([]*types.JobItemStep, 0, len(stationIDs))
		for i, stationID := range stationIDs {
			steps = append(steps, &types.JobItemStep{
				ID:                           uuid.New(),
				JobItemID:                    jobItemID,
				StationID:                    stationID,
				Position:                     i + 1,
				IsTerminal:                   i == len(stationIDs)-1,
				RequiresFirstProductApproval: byID[stationID].RequiresFirstProductQA,
			})
		}
		if _, err := s.stepRepo.Create(dbc, steps); err != nil {
			return nil, err
		}

		balances := make([]*types.WipBalance, 0, len(steps))
		for _, step := range steps {
			balances = append(balances, &types.WipBalance{JobItemStepID: step.ID})
		}
		if _, err := s.balanceRepo.Create(dbc, balances); err != nil {
			return nil, err
		}
		if err := s.progressRepo.Ensure(dbc, jobItemID); err != nil {
			return nil, err
		}

		if presetID != nil && *presetID != uuid.Nil {
			if err := s.jobItemRepo.UpdateFields(dbc, jobItemID, map[string]any{"pipeline_preset_id": *presetID}); err != nil {
				return nil, err
			}
		}
		return steps, nil
	}

	if dbc.Tx != nil {
		return setup(dbc)
	}
	var steps []*types.JobItemStep
	if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		out, err := setup(inner)
		if err != nil {
			return err
		}
		steps = out
		return nil
	}); err != nil {
		return nil, err
	}
	return steps, nil
}

func (s *wipService) Consume(dbc dbctx.Context, input ConsumeInput) error {
	if dbc.Tx == nil {
		return fmt.Errorf("wip consume requires a transaction")
	}
	if input.QuantityGood < 0 || input.QuantityScrap < 0 {
		return apierr.New(http.StatusBadRequest, apierr.CodeInvalidQuantities,
			fmt.Errorf("quantities must be non-negative"))
	}

	if err := pgutil.AdvisoryXactLock(dbc.Tx, wipAdvisoryNamespace, input.JobItemID); err != nil {
		return err
	}

	step, err := s.stepRepo.GetByID(dbc, input.JobItemStepID)
	if err != nil {
		return err
	}
	if step == nil || step.JobItemID != input.JobItemID {
		return apierr.New(http.StatusUnprocessableEntity, apierr.CodeJobItemStepNotFound,
			fmt.Errorf("step %s does not belong to job item %s", input.JobItemStepID, input.JobItemID))
	}

	if step.Position > 1 {
		upstream, err := s.stepRepo.GetByPosition(dbc, input.JobItemID, step.Position-1)
		if err != nil {
			return err
		}
		if upstream == nil {
			return apierr.New(http.StatusUnprocessableEntity, apierr.CodeJobItemStepNotFound,
				fmt.Errorf("job item %s has no step at position %d", input.JobItemID, step.Position-1))
		}
		upstreamBalance, err := s.balanceRepo.GetByStepForUpdate(dbc, upstream.ID)
		if err != nil {
			return err
		}
		if upstreamBalance == nil {
			return apierr.New(http.StatusUnprocessableEntity, apierr.CodeJobItemStepNotFound,
				fmt.Errorf("step %s has no balance row", upstream.ID))
		}

		// Good is satisfied first, then scrap from what remains. Any shortfall
		// silently originates at this step.
		available := upstreamBalance.GoodAvailable
		pulledGood := min64(input.QuantityGood, available)
		pulledScrap := min64(input.QuantityScrap, available-pulledGood)

		var ledger []*types.WipConsumption
		if pulledGood > 0 {
			ledger = append(ledger, &types.WipConsumption{
				JobItemID:          input.JobItemID,
				FromJobItemStepID:  upstream.ID,
				ConsumingSessionID: input.SessionID,
				GoodUsed:           pulledGood,
				IsScrap:            false,
			})
		}
		if pulledScrap > 0 {
			ledger = append(ledger, &types.WipConsumption{
				JobItemID:          input.JobItemID,
				FromJobItemStepID:  upstream.ID,
				ConsumingSessionID: input.SessionID,
				GoodUsed:           pulledScrap,
				IsScrap:            true,
			})
		}
		if len(ledger) > 0 {
			if _, err := s.consumptionRepo.Create(dbc, ledger); err != nil {
				return err
			}
			if err := s.balanceRepo.AddGood(dbc, upstream.ID, -(pulledGood + pulledScrap)); err != nil {
				return err
			}
		}
	}

	// Scrap never accumulates as inventory at any step.
	if input.QuantityGood > 0 {
		if err := s.balanceRepo.AddGood(dbc, step.ID, input.QuantityGood); err != nil {
			return err
		}
		if step.IsTerminal {
			if err := s.progressRepo.AddCompletedGood(dbc, input.JobItemID, input.QuantityGood); err != nil {
				return err
			}
		}
	}

	// First production report freezes the step layout.
	if err := s.jobItemRepo.LockPipeline(dbc, input.JobItemID); err != nil {
		return err
	}

	s.log.Debug("WIP consumed",
		"jobItemID", input.JobItemID,
		"stepID", step.ID,
		"position", step.Position,
		"good", input.QuantityGood,
		"scrap", input.QuantityScrap)
	return nil
}

func (s *wipService) GetPipelineSnapshot(dbc dbctx.Context, jobItemID uuid.UUID) (*PipelineSnapshot, error) {
	item, err := s.jobItemRepo.GetByID(dbc, jobItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeJobItemNotFound,
			fmt.Errorf("job item %s does not exist", jobItemID))
	}
	steps, err := s.stepRepo.GetByJobItemOrdered(dbc, jobItemID)
	if err != nil {
		return nil, err
	}
	views := make([]*PipelineStepView, 0, len(steps))
	for _, step := range steps {
		balance, err := s.balanceRepo.GetByStep(dbc, step.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, &PipelineStepView{Step: step, Balance: balance})
	}
	progress, err := s.progressRepo.GetByJobItem(dbc, jobItemID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.consumptionRepo.ListByJobItem(dbc, jobItemID)
	if err != nil {
		return nil, err
	}
	return &PipelineSnapshot{
		JobItem:  item,
		Steps:    views,
		Progress: progress,
		Ledger:   ledger,
	}, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
