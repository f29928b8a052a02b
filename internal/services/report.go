package services

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/floortrack/floortrack-backend/internal/data/repos"
	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/apierr"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
	"github.com/floortrack/floortrack-backend/internal/platform/pgutil"
)

// Transition tables per report type. Missing edge means forbidden; same-state
// transitions are always allowed as no-ops.
var malfunctionTransitions = map[string]map[string]bool{
	types.ReportStatusOpen:   {types.ReportStatusKnown: true, types.ReportStatusSolved: true},
	types.ReportStatusKnown:  {types.ReportStatusSolved: true},
	types.ReportStatusSolved: {types.ReportStatusOpen: true},
}

var approvalTransitions = map[string]map[string]bool{
	types.ReportStatusNew: {types.ReportStatusApproved: true},
}

func reportTransitionAllowed(reportType, from, to string) bool {
	if from == to {
		return true
	}
	var table map[string]map[string]bool
	switch reportType {
	case types.ReportTypeMalfunction:
		table = malfunctionTransitions
	case types.ReportTypeGeneral, types.ReportTypeScrap:
		table = approvalTransitions
	default:
		return false
	}
	return table[from][to]
}

// Approval gate outcomes for CheckApprovalForSession.
const (
	ApprovalNotRequired     = "not_required"
	ApprovalNeedsSubmission = "needs_submission"
	ApprovalPending         = "pending"
	ApprovalApproved        = "approved"
)

type ApprovalCheck struct {
	Required       bool          `json:"required"`
	Status         string        `json:"status"`
	PendingReport  *types.Report `json:"pending_report,omitempty"`
	ApprovedReport *types.Report `json:"approved_report,omitempty"`
}

type CreateReportInput struct {
	Type             string         `json:"type"`
	StationID        uuid.UUID      `json:"station_id"`
	SessionID        *uuid.UUID     `json:"session_id,omitempty"`
	StatusEventID    *uuid.UUID     `json:"status_event_id,omitempty"`
	JobItemID        *uuid.UUID     `json:"job_item_id,omitempty"`
	JobItemStepID    *uuid.UUID     `json:"job_item_step_id,omitempty"`
	IsFirstProductQA bool           `json:"is_first_product_qa,omitempty"`
	Description      string         `json:"description,omitempty"`
	ImageURL         *string        `json:"image_url,omitempty"`
	ReasonID         *string        `json:"reason_id,omitempty"`
	Metadata         datatypes.JSON `json:"metadata,omitempty"`
}

type UpdateReportInput struct {
	Description *string        `json:"description,omitempty"`
	ImageURL    *string        `json:"image_url,omitempty"`
	ReasonID    *string        `json:"reason_id,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

type ReportService interface {
	Create(dbc dbctx.Context, input CreateReportInput) (*types.Report, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Report, error)
	List(dbc dbctx.Context, filter repos.ReportListFilter) ([]*types.Report, error)
	// Update touches non-status fields only and never engages the transition
	// guard.
	Update(dbc dbctx.Context, id uuid.UUID, input UpdateReportInput) (*types.Report, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, newStatus string) (*types.Report, error)
	CheckApprovalForSession(dbc dbctx.Context, sessionID, jobItemStepID uuid.UUID) (*ApprovalCheck, error)
}

type reportService struct {
	db          *gorm.DB
	log         *logger.Logger
	reportRepo  repos.ReportRepo
	stepRepo    repos.JobItemStepRepo
	sessionRepo repos.SessionRepo
	notifier    FloorNotifier
}

func NewReportService(
	db *gorm.DB,
	log *logger.Logger,
	reportRepo repos.ReportRepo,
	stepRepo repos.JobItemStepRepo,
	sessionRepo repos.SessionRepo,
	notifier FloorNotifier,
) ReportService {
	return &reportService{
		db:          db,
		log:         log.With("service", "ReportService"),
		reportRepo:  reportRepo,
		stepRepo:    stepRepo,
		sessionRepo: sessionRepo,
		notifier:    notifier,
	}
}

// initialReportStatus is server-forced: callers cannot open a report in an
// arbitrary state.
func initialReportStatus(reportType string) (string, error) {
	switch reportType {
	case types.ReportTypeMalfunction:
		return types.ReportStatusOpen, nil
	case types.ReportTypeGeneral, types.ReportTypeScrap:
		return types.ReportStatusNew, nil
	default:
		return "", fmt.Errorf("unknown report type %q", reportType)
	}
}

func (s *reportService) Create(dbc dbctx.Context, input CreateReportInput) (*types.Report, error) {
	initial, err := initialReportStatus(input.Type)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "", err)
	}
	if input.StationID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "", fmt.Errorf("station_id is required"))
	}
	if input.IsFirstProductQA {
		if input.Type != types.ReportTypeGeneral {
			return nil, apierr.New(http.StatusBadRequest, "",
				fmt.Errorf("first-product QA requests must be general reports"))
		}
		if input.JobItemStepID == nil || *input.JobItemStepID == uuid.Nil {
			return nil, apierr.New(http.StatusBadRequest, "",
				fmt.Errorf("first-product QA requests require a job_item_step_id"))
		}
	}

	report := &types.Report{
		Type:             input.Type,
		Status:           initial,
		StationID:        input.StationID,
		SessionID:        input.SessionID,
		StatusEventID:    input.StatusEventID,
		JobItemID:        input.JobItemID,
		JobItemStepID:    input.JobItemStepID,
		IsFirstProductQA: input.IsFirstProductQA,
		Description:      input.Description,
		ImageURL:         input.ImageURL,
		ReasonID:         input.ReasonID,
		Metadata:         input.Metadata,
	}

	created, err := s.reportRepo.Create(dbc, []*types.Report{report})
	if err != nil {
		if pgutil.IsUniqueViolation(err, "uq_report_first_product_open") {
			return nil, apierr.New(http.StatusConflict, apierr.CodeFirstProductRequestExists,
				fmt.Errorf("an open first-product QA request already exists for this step"))
		}
		s.log.Warn("Failed to create report", "type", input.Type, "error", err)
		return nil, err
	}
	out := created[0]
	if s.notifier != nil {
		s.notifier.ReportCreated(out)
	}
	return out, nil
}

func (s *reportService) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Report, error) {
	report, err := s.reportRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeReportNotFound,
			fmt.Errorf("report %s does not exist", id))
	}
	return report, nil
}

func (s *reportService) List(dbc dbctx.Context, filter repos.ReportListFilter) ([]*types.Report, error) {
	return s.reportRepo.List(dbc, filter)
}

func (s *reportService) Update(dbc dbctx.Context, id uuid.UUID, input UpdateReportInput) (*types.Report, error) {
	report, err := s.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.ReasonID != nil {
		updates["reason_id"] = *input.ReasonID
	}
	if input.Metadata != nil {
		updates["metadata"] = input.Metadata
	}
	if len(updates) == 0 {
		return report, nil
	}
	if err := s.reportRepo.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(dbc, id)
}

func (s *reportService) UpdateStatus(dbc dbctx.Context, id uuid.UUID, newStatus string) (*types.Report, error) {
	update := func(dbc dbctx.Context) (*types.Report, error) {
		report, err := s.GetByID(dbc, id)
		if err != nil {
			return nil, err
		}
		if report.Status == newStatus {
			return report, nil
		}
		if !reportTransitionAllowed(report.Type, report.Status, newStatus) {
			return nil, apierr.New(http.StatusConflict, apierr.CodeTransitionForbidden,
				fmt.Errorf("%s report cannot move %s -> %s", report.Type, report.Status, newStatus))
		}
		if err := s.reportRepo.UpdateFields(dbc, id, map[string]any{"status": newStatus}); err != nil {
			return nil, err
		}
		return s.reportRepo.GetByID(dbc, id)
	}

	var out *types.Report
	if dbc.Tx != nil {
		r, err := update(dbc)
		if err != nil {
			return nil, err
		}
		out = r
	} else {
		if err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
			r, err := update(inner)
			if err != nil {
				return err
			}
			out = r
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if s.notifier != nil {
		s.notifier.ReportStatusChanged(out)
	}
	return out, nil
}

func (s *reportService) CheckApprovalForSession(dbc dbctx.Context, sessionID, jobItemStepID uuid.UUID) (*ApprovalCheck, error) {
	session, err := s.sessionRepo.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeSessionNotFound,
			fmt.Errorf("session %s does not exist", sessionID))
	}
	step, err := s.stepRepo.GetByID(dbc, jobItemStepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, apierr.New(http.StatusUnprocessableEntity, apierr.CodeJobItemStepNotFound,
			fmt.Errorf("job item step %s does not exist", jobItemStepID))
	}
	if !step.RequiresFirstProductApproval {
		return &ApprovalCheck{Required: false, Status: ApprovalNotRequired}, nil
	}

	approved, err := s.reportRepo.GetFirstProductForStep(dbc, step.ID, []string{types.ReportStatusApproved})
	if err != nil {
		return nil, err
	}
	if approved != nil {
		return &ApprovalCheck{Required: true, Status: ApprovalApproved, ApprovedReport: approved}, nil
	}
	pending, err := s.reportRepo.GetFirstProductForStep(dbc, step.ID, []string{types.ReportStatusNew})
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return &ApprovalCheck{Required: true, Status: ApprovalPending, PendingReport: pending}, nil
	}
	return &ApprovalCheck{Required: true, Status: ApprovalNeedsSubmission}, nil
}
