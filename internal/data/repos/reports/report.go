package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

// ListFilter narrows List; zero values mean "any".
type ListFilter struct {
	Type      string
	Status    string
	StationID uuid.UUID
	JobItemID uuid.UUID
	SessionID uuid.UUID
}

type ReportRepo interface {
	Create(dbc dbctx.Context, rs []*types.Report) ([]*types.Report, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Report, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.Report, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	// GetFirstProductForStep returns the newest first-product QA report for a
	// pipeline step with one of the given statuses, or nil.
	GetFirstProductForStep(dbc dbctx.Context, stepID uuid.UUID, statuses []string) (*types.Report, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{db: db, log: baseLog.With("repo", "ReportRepo")}
}

func (r *reportRepo) Create(dbc dbctx.Context, rs []*types.Report) ([]*types.Report, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rs) == 0 {
		return []*types.Report{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rs).Error; err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *reportRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Report, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rep types.Report
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rep).Error
	if err != nil {
		return nil, err
	}
	if rep.ID == uuid.Nil {
		return nil, nil
	}
	return &rep, nil
}

func (r *reportRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.Report, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Report{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StationID != uuid.Nil {
		q = q.Where("station_id = ?", filter.StationID)
	}
	if filter.JobItemID != uuid.Nil {
		q = q.Where("job_item_id = ?", filter.JobItemID)
	}
	if filter.SessionID != uuid.Nil {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	var out []*types.Report
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if updates == nil {
		updates = map[string]any{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Report{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *reportRepo) GetFirstProductForStep(dbc dbctx.Context, stepID uuid.UUID, statuses []string) (*types.Report, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rep types.Report
	err := transaction.WithContext(dbc.Ctx).
		Where("job_item_step_id = ? AND is_first_product_qa AND status IN ?", stepID, statuses).
		Order("created_at DESC").
		Limit(1).
		Find(&rep).Error
	if err != nil {
		return nil, err
	}
	if rep.ID == uuid.Nil {
		return nil, nil
	}
	return &rep, nil
}
