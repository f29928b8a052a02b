package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
	"github.com/floortrack/floortrack-backend/internal/platform/pgutil"
)

type CreateSessionInput struct {
	WorkerID        uuid.UUID  `json:"worker_id"`
	StationID       uuid.UUID  `json:"station_id"`
	JobID           *uuid.UUID `json:"job_id,omitempty"`
	JobItemID       *uuid.UUID `json:"job_item_id,omitempty"`
	JobItemStepID   *uuid.UUID `json:"job_item_step_id,omitempty"`
	InstanceID      uuid.UUID  `json:"instance_id"`
	InitialStatusID *uuid.UUID `json:"initial_status_id,omitempty"`
}

type StartStatusEventInput struct {
	StatusDefinitionID uuid.UUID  `json:"status_definition_id"`
	Note               *string    `json:"note,omitempty"`
	StationReasonID    *string    `json:"station_reason_id,omitempty"`
	ReportID           *uuid.UUID `json:"report_id,omitempty"`
}

type EndProductionInput struct {
	QuantityGood  int64     `json:"quantity_good"`
	QuantityScrap int64     `json:"quantity_scrap"`
	NextStatusID  uuid.UUID `json:"next_status_id"`
}

type EndProductionResult struct {
	UpdatedEvent   *types.StatusEvent `json:"updated_event"`
	NewStatusEvent *types.StatusEvent `json:"new_status_event"`
}

type BindJobItemInput struct {
	JobID         uuid.UUID `json:"job_id"`
	JobItemID     uuid.UUID `json:"job_item_id"`
	JobItemStepID uuid.UUID `json:"job_item_step_id"`
}

type ActiveSessionView struct {
	Session   *types.Session     `json:"session"`
	OpenEvent *types.StatusEvent `json:"open_event,omitempty"`
}

type SessionService interface {
	Create(dbc dbctx.Context, input CreateSessionInput) (*types.Session, error)
	StartStatusEvent(dbc dbctx.Context, sessionID uuid.UUID, input StartStatusEventInput) (*types.StatusEvent, error)
	EndProductionStatus(dbc dbctx.Context, sessionID, statusEventID uuid.UUID, input EndProductionInput) (*EndProductionResult, error)
	BindJobItem(dbc dbctx.Context, sessionID uuid.UUID, input BindJobItemInput) (*types.Session, error)
	Complete(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error)
	Abort(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error)
	// CloseActiveForWorker aborts every active session the worker still holds
	// and returns their ids. Idempotent: no active sessions is a no-op.
	CloseActiveForWorker(dbc dbctx.Context, workerID uuid.UUID) ([]uuid.UUID, error)
	// Takeover is a compare-and-swap on instance_id used by the cross-tab
	// recovery flow.
	Takeover(dbc dbctx.Context, sessionID uuid.UUID, instanceID uuid.UUID) (*types.Session, error)
	GetActiveForWorker(dbc dbctx.Context, workerID uuid.UUID) (*ActiveSessionView, error)
}

type sessionService struct {
	db            *gorm.DB
	log           *logger.Logger
	sessionRepo   repos.SessionRepo
	eventRepo     repos.StatusEventRepo
	workerRepo    repos.WorkerRepo
	stationRepo   repos.StationRepo
	jobItemRepo   repos.JobItemRepo
	stepRepo      repos.JobItemStepRepo
	defRepo       repos.StatusDefinitionRepo
	wipService    WipService
	reportService ReportService
	notifier      FloorNotifier
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	sessionRepo repos.SessionRepo,
	eventRepo repos.StatusEventRepo,
	workerRepo repos.WorkerRepo,
	stationRepo repos.StationRepo,
	jobItemRepo repos.JobItemRepo,
	stepRepo repos.JobItemStepRepo,
	defRepo repos.StatusDefinitionRepo,
	wipService WipService,
	reportService ReportService,
	notifier FloorNotifier,
) SessionService {
	return &sessionService{
		db:            db,
		log:           log.With("service", "SessionService"),
		sessionRepo:   sessionRepo,
		eventRepo:     eventRepo,
		workerRepo:    workerRepo,
		stationRepo:   stationRepo,
		jobItemRepo:   jobItemRepo,
		stepRepo:      stepRepo,
		defRepo:       defRepo,
		wipService:    wipService,
		reportService: reportService,
		notifier:      notifier,
	}
}

func (s *sessionService) Create(dbc dbctx.Context, input CreateSessionInput) (*types.Session, error) {
	if input.InstanceID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("instance_id is required"))
	}

	create := func(dbc dbctx.Context) (*types.Session, error) {
		worker, err := s.workerRepo.GetByID(dbc, input.WorkerID)
		if err != nil {
			return nil, err
		}
		if worker == nil || !worker.IsActive {
			return nil, apierr.New(http.StatusNotFound, "", fmt.Errorf("worker %s is missing or inactive", input.WorkerID))
		}
		station, err := s.stationRepo.GetByID(dbc, input.StationID)
		if err != nil {
			return nil, err
		}
		if station == nil || !station.IsActive {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeStationInvalid,
				fmt.Errorf("station %s is missing or inactive", input.StationID))
		}

		var def *types.StatusDefinition
		if input.InitialStatusID != nil && *input.InitialStatusID != uuid.Nil {
			def, err = s.defRepo.GetByID(dbc, *input.InitialStatusID)
			if err != nil {
				return nil, err
			}
			if def == nil {
				return nil, apierr.New(http.StatusNotFound, apierr.CodeStatusDefinitionNotFound,
					fmt.Errorf("status definition %s does not exist", *input.InitialStatusID))
			}
		} else {
			def, err = s.defRepo.GetByCode(dbc, types.StatusCodeStationEntry)
			if err != nil {
				return nil, err
			}
			if def == nil {
				return nil, apierr.New(http.StatusInternalServerError, apierr.CodeStatusDefinitionNotFound,
					fmt.Errorf("default initial status %q is not seeded", types.StatusCodeStationEntry))
			}
		}

		now := time.Now().UTC()
		session := &types.Session{
			ID:                 uuid.New(),
			WorkerID:           input.WorkerID,
			StationID:          input.StationID,
			JobID:              input.JobID,
			JobItemID:          input.JobItemID,
			JobItemStepID:      input.JobItemStepID,
			Status:             types.SessionStatusActive,
			CurrentStatusID:    &def.ID,
			LastStatusChangeAt: now,
			InstanceID:         input.InstanceID,
			WorkerName:         worker.FullName,
			WorkerCode:         worker.Code,
			StationName:        station.Name,
			StationCode:        station.Code,
			StartedAt:          now,
		}

		if err := s.checkProductionGate(dbc, session, def); err != nil {
			return nil, err
		}

		if _, err := s.sessionRepo.Create(dbc, []*types.Session{session}); err != nil {
			if pgutil.IsUniqueViolation(err, "uq_session_active_worker") {
				return nil, apierr.New(http.StatusConflict, apierr.CodeSessionConflict,
					fmt.Errorf("worker %s already has an active session", input.WorkerID))
			}
			return nil, err
		}

		event := &types.StatusEvent{
			ID:                 uuid.New(),
			SessionID:          session.ID,
			StatusDefinitionID: def.ID,
			StartedAt:          now,
			JobItemID:          session.JobItemID,
			JobItemStepID:      session.JobItemStepID,
		}
		if _, err := s.eventRepo.Create(dbc, []*types.StatusEvent{event}); err != nil {
			return nil, err
		}
		return session, nil
	}

	var session *types.Session
	if dbc.Tx != nil {
		out, err := create(dbc)
		if err != nil {
			return nil, err
		}
		session = out
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
			out, err := create(inner)
			if err != nil {
				return err
			}
			session = out
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		s.notifier.SessionStarted(session)
	}
	return session, nil
}

// lockActiveSession row-locks the session and verifies it is still active.
func (s *sessionService) lockActiveSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error) {
	session, err := s.sessionRepo.GetByIDForUpdate(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeSessionNotFound,
			fmt.Errorf("session %s does not exist", sessionID))
	}
	if session.Status != types.SessionStatusActive {
		return nil, apierr.New(http.StatusConflict, apierr.CodeSessionNotActive,
			fmt.Errorf("session %s is %s", sessionID, session.Status))
	}
	return session, nil
}

// checkProductionGate blocks entry into a production status when the bound
// step requires first-product approval that has not been granted yet.
func (s *sessionService) checkProductionGate(dbc dbctx.Context, session *types.Session, def *types.StatusDefinition) error {
	if def.MachineState != types.MachineStateProduction {
		return nil
	}
	if session.JobItemStepID == nil || *session.JobItemStepID == uuid.Nil {
		return nil
	}
	step, err := s.stepRepo.GetByID(dbc, *session.JobItemStepID)
	if err != nil {
		return err
	}
	if step == nil {
		return apierr.New(http.StatusUnprocessableEntity, apierr.CodeJobItemStepNotFound,
			fmt.Errorf("session %s is bound to missing step %s", session.ID, *session.JobItemStepID))
	}
	if !step.RequiresFirstProductApproval {
		return nil
	}
	check, err := s.reportService.CheckApprovalForSession(dbc, session.ID, step.ID)
	if err != nil {
		return err
	}
	if check.Status != ApprovalApproved {
		return apierr.New(http.StatusConflict, apierr.CodeFirstProductApprovalNeeded,
			fmt.Errorf("step %s requires first-product approval (currently %s)", step.ID, check.Status))
	}
	return nil
}

// transition closes whatever event is open, opens the next one and mirrors
// the new status onto the locked session row. Callers hold the session lock.
func (s *sessionService) transition(dbc dbctx.Context, session *types.Session, input StartStatusEventInput, now time.Time) (*types.StatusEvent, error) {
	def, err := s.defRepo.GetByID(dbc, input.StatusDefinitionID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeStatusDefinitionNotFound,
			fmt.Errorf("status definition %s does not exist", input.StatusDefinitionID))
	}
	if err := s.checkProductionGate(dbc, session, def); err != nil {
		return nil, err
	}

	if err := s.eventRepo.CloseOpenForSession(dbc, session.ID, now); err != nil {
		return nil, err
	}
	event := &types.StatusEvent{
		ID:                 uuid.New(),
		SessionID:          session.ID,
		StatusDefinitionID: def.ID,
		StartedAt:          now,
		JobItemID:          session.JobItemID,
		JobItemStepID:      session.JobItemStepID,
		StationReasonID:    input.StationReasonID,
		Note:               input.Note,
		ReportID:           input.ReportID,
	}
	if _, err := s.eventRepo.Create(dbc, []*types.StatusEvent{event}); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateFields(dbc, session.ID, map[string]any{
		"current_status_id":     def.ID,
		"last_status_change_at": now,
	}); err != nil {
		return nil, err
	}
	session.CurrentStatusID = &def.ID
	session.LastStatusChangeAt = now
	return event, nil
}

func (s *sessionService) StartStatusEvent(dbc dbctx.Context, sessionID uuid.UUID, input StartStatusEventInput) (*types.StatusEvent, error) {
	var (
		session *types.Session
		event   *types.StatusEvent
	)
	run := func(dbc dbctx.Context) error {
		locked, err := s.lockActiveSession(dbc, sessionID)
		if err != nil {
			return err
		}
		ev, err := s.transition(dbc, locked, input, time.Now().UTC())
		if err != nil {
			return err
		}
		session, event = locked, ev
		return nil
	}

	if dbc.Tx != nil {
		if err := run(dbc); err != nil {
			return nil, err
		}
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		}); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		s.notifier.SessionStatusChanged(session, event)
	}
	return event, nil
}

func (s *sessionService) EndProductionStatus(dbc dbctx.Context, sessionID, statusEventID uuid.UUID, input EndProductionInput) (*EndProductionResult, error) {
	var (
		session *types.Session
		result  *EndProductionResult
	)
	run := func(dbc dbctx.Context) error {
		locked, err := s.lockActiveSession(dbc, sessionID)
		if err != nil {
			return err
		}

		event, err := s.eventRepo.GetByID(dbc, statusEventID)
		if err != nil {
			return err
		}
		if event == nil {
			return apierr.New(http.StatusNotFound, apierr.CodeStatusEventNotFound,
				fmt.Errorf("status event %s does not exist", statusEventID))
		}
		if event.SessionID != sessionID {
			return apierr.New(http.StatusConflict, apierr.CodeStatusEventSessionMismatch,
				fmt.Errorf("status event %s belongs to another session", statusEventID))
		}
		if event.EndedAt != nil {
			return apierr.New(http.StatusConflict, apierr.CodeStatusEventAlreadyEnded,
				fmt.Errorf("status event %s is already ended", statusEventID))
		}
		if input.QuantityGood < 0 || input.QuantityScrap < 0 {
			return apierr.New(http.StatusBadRequest, apierr.CodeInvalidQuantities,
				fmt.Errorf("quantities must be non-negative"))
		}

		now := time.Now().UTC()
		closed, err := s.eventRepo.CloseWithQuantities(dbc, statusEventID, now, input.QuantityGood, input.QuantityScrap)
		if err != nil {
			return err
		}
		if !closed {
			return apierr.New(http.StatusConflict, apierr.CodeStatusEventAlreadyEnded,
				fmt.Errorf("status event %s is already ended", statusEventID))
		}

		// Unbound sessions legitimately bypass the ledger.
		if locked.JobItemID != nil && locked.JobItemStepID != nil {
			if err := s.wipService.Consume(dbc, ConsumeInput{
				JobItemID:     *locked.JobItemID,
				JobItemStepID: *locked.JobItemStepID,
				QuantityGood:  input.QuantityGood,
				QuantityScrap: input.QuantityScrap,
				SessionID:     locked.ID,
			}); err != nil {
				return err
			}
		}

		next, err := s.transition(dbc, locked, StartStatusEventInput{StatusDefinitionID: input.NextStatusID}, now)
		if err != nil {
			return err
		}

		updated, err := s.eventRepo.GetByID(dbc, statusEventID)
		if err != nil {
			return err
		}
		session = locked
		result = &EndProductionResult{UpdatedEvent: updated, NewStatusEvent: next}
		return nil
	}

	if dbc.Tx != nil {
		if err := run(dbc); err != nil {
			return nil, err
		}
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		}); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		s.notifier.SessionStatusChanged(session, result.NewStatusEvent)
	}
	return result, nil
}

func (s *sessionService) BindJobItem(dbc dbctx.Context, sessionID uuid.UUID, input BindJobItemInput) (*types.Session, error) {
	var session *types.Session
	run := func(dbc dbctx.Context) error {
		locked, err := s.lockActiveSession(dbc, sessionID)
		if err != nil {
			return err
		}

		item, err := s.jobItemRepo.GetByID(dbc, input.JobItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apierr.New(http.StatusNotFound, apierr.CodeJobItemNotFound,
				fmt.Errorf("job item %s does not exist", input.JobItemID))
		}
		if item.JobID != input.JobID {
			return apierr.New(http.StatusConflict, apierr.CodeJobItemJobMismatch,
				fmt.Errorf("job item %s does not belong to job %s", input.JobItemID, input.JobID))
		}
		if !item.IsActive {
			return apierr.New(http.StatusConflict, apierr.CodeJobItemInactive,
				fmt.Errorf("job item %s is inactive", input.JobItemID))
		}

		step, err := s.stepRepo.GetByID(dbc, input.JobItemStepID)
		if err != nil {
			return err
		}
		if step == nil || step.JobItemID != input.JobItemID {
			return apierr.New(http.StatusConflict, apierr.CodeJobItemStationNotFound,
				fmt.Errorf("step %s is not part of job item %s's pipeline", input.JobItemStepID, input.JobItemID))
		}
		if step.StationID != locked.StationID {
			return apierr.New(http.StatusConflict, apierr.CodeJobItemStationMismatch,
				fmt.Errorf("step %s belongs to a different station than session %s", step.ID, sessionID))
		}

		if err := s.sessionRepo.UpdateFields(dbc, sessionID, map[string]any{
			"job_id":           input.JobID,
			"job_item_id":      input.JobItemID,
			"job_item_step_id": input.JobItemStepID,
		}); err != nil {
			return err
		}
		locked.JobID = &input.JobID
		locked.JobItemID = &input.JobItemID
		locked.JobItemStepID = &input.JobItemStepID
		session = locked
		return nil
	}

	if dbc.Tx != nil {
		if err := run(dbc); err != nil {
			return nil, err
		}
		return session, nil
	}
	if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	}); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) end(dbc dbctx.Context, sessionID uuid.UUID, finalStatus string) (*types.Session, error) {
	var session *types.Session
	run := func(dbc dbctx.Context) error {
		locked, err := s.lockActiveSession(dbc, sessionID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.eventRepo.CloseOpenForSession(dbc, sessionID, now); err != nil {
			return err
		}
		if err := s.sessionRepo.UpdateFields(dbc, sessionID, map[string]any{
			"status":   finalStatus,
			"ended_at": now,
		}); err != nil {
			return err
		}
		locked.Status = finalStatus
		locked.EndedAt = &now
		session = locked
		return nil
	}

	if dbc.Tx != nil {
		if err := run(dbc); err != nil {
			return nil, err
		}
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		}); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		s.notifier.SessionEnded(session)
	}
	return session, nil
}

func (s *sessionService) Complete(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error) {
	return s.end(dbc, sessionID, types.SessionStatusCompleted)
}

func (s *sessionService) Abort(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error) {
	return s.end(dbc, sessionID, types.SessionStatusAborted)
}

func (s *sessionService) CloseActiveForWorker(dbc dbctx.Context, workerID uuid.UUID) ([]uuid.UUID, error) {
	var ended []*types.Session
	run := func(dbc dbctx.Context) error {
		sessions, err := s.sessionRepo.ListActiveByWorkerForUpdate(dbc, workerID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, session := range sessions {
			if err := s.eventRepo.CloseOpenForSession(dbc, session.ID, now); err != nil {
				return err
			}
			if err := s.sessionRepo.UpdateFields(dbc, session.ID, map[string]any{
				"status":   types.SessionStatusAborted,
				"ended_at": now,
			}); err != nil {
				return err
			}
			session.Status = types.SessionStatusAborted
			session.EndedAt = &now
			ended = append(ended, session)
		}
		return nil
	}

	if dbc.Tx != nil {
		if err := run(dbc); err != nil {
			return nil, err
		}
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		}); err != nil {
			return nil, err
		}
	}

	ids := make([]uuid.UUID, 0, len(ended))
	for _, session := range ended {
		ids = append(ids, session.ID)
		if s.notifier != nil {
			s.notifier.SessionEnded(session)
		}
	}
	return ids, nil
}

func (s *sessionService) Takeover(dbc dbctx.Context, sessionID uuid.UUID, instanceID uuid.UUID) (*types.Session, error) {
	if instanceID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("instance_id is required"))
	}
	session, err := s.sessionRepo.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeSessionNotFound,
			fmt.Errorf("session %s does not exist", sessionID))
	}
	swapped, err := s.sessionRepo.SwapInstance(dbc, sessionID, instanceID)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, apierr.New(http.StatusConflict, apierr.CodeTakeoverConflict,
			fmt.Errorf("session %s is no longer active", sessionID))
	}
	refreshed, err := s.sessionRepo.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.SessionTakenOver(refreshed)
	}
	return refreshed, nil
}

func (s *sessionService) GetActiveForWorker(dbc dbctx.Context, workerID uuid.UUID) (*ActiveSessionView, error) {
	session, err := s.sessionRepo.GetActiveByWorker(dbc, workerID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	open, err := s.eventRepo.GetOpenBySession(dbc, session.ID)
	if err != nil {
		return nil, err
	}
	return &ActiveSessionView{Session: session, OpenEvent: open}, nil
}
