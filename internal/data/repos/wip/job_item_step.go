package wip

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type JobItemStepRepo interface {
	Create(dbc dbctx.Context, steps []*types.JobItemStep) ([]*types.JobItemStep, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobItemStep, error)
	GetByJobItemOrdered(dbc dbctx.Context, jobItemID uuid.UUID) ([]*types.JobItemStep, error)
	GetByPosition(dbc dbctx.Context, jobItemID uuid.UUID, position int) (*types.JobItemStep, error)
	DeleteByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) error
}

type jobItemStepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobItemStepRepo(db *gorm.DB, baseLog *logger.Logger) JobItemStepRepo {
	return &jobItemStepRepo{db: db, log: baseLog.With("repo", "JobItemStepRepo")}
}

func (r *jobItemStepRepo) Create(dbc dbctx.Context, steps []*types.JobItemStep) ([]*types.JobItemStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(steps) == 0 {
		return []*types.JobItemStep{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *jobItemStepRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobItemStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var step types.JobItemStep
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&step).Error
	if err != nil {
		return nil, err
	}
	if step.ID == uuid.Nil {
		return nil, nil
	}
	return &step, nil
}

func (r *jobItemStepRepo) GetByJobItemOrdered(dbc dbctx.Context, jobItemID uuid.UUID) ([]*types.JobItemStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.JobItemStep
	if err := transaction.WithContext(dbc.Ctx).
		Where("job_item_id = ?", jobItemID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobItemStepRepo) GetByPosition(dbc dbctx.Context, jobItemID uuid.UUID, position int) (*types.JobItemStep, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var step types.JobItemStep
	err := transaction.WithContext(dbc.Ctx).
		Where("job_item_id = ? AND position = ?", jobItemID, position).
		Limit(1).
		Find(&step).Error
	if err != nil {
		return nil, err
	}
	if step.ID == uuid.Nil {
		return nil, nil
	}
	return &step, nil
}

func (r *jobItemStepRepo) DeleteByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("job_item_id = ?", jobItemID).
		Delete(&types.JobItemStep{}).Error
}
