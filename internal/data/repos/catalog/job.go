package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type JobRepo interface {
	Create(dbc dbctx.Context, jobs []*types.Job) ([]*types.Job, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Job, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{db: db, log: baseLog.With("repo", "JobRepo")}
}

func (r *jobRepo) Create(dbc dbctx.Context, jobs []*types.Job) ([]*types.Job, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobs) == 0 {
		return []*types.Job{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Job, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var j types.Job
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&j).Error
	if err != nil {
		return nil, err
	}
	if j.ID == uuid.Nil {
		return nil, nil
	}
	return &j, nil
}

type JobItemRepo interface {
	Create(dbc dbctx.Context, items []*types.JobItem) ([]*types.JobItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobItem, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	// LockPipeline marks the item's pipeline immutable; idempotent.
	LockPipeline(dbc dbctx.Context, id uuid.UUID) error
}

type jobItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobItemRepo(db *gorm.DB, baseLog *logger.Logger) JobItemRepo {
	return &jobItemRepo{db: db, log: baseLog.With("repo", "JobItemRepo")}
}

func (r *jobItemRepo) Create(dbc dbctx.Context, items []*types.JobItem) ([]*types.JobItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.JobItem{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *jobItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobItem, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.JobItem
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		return nil, nil
	}
	return &item, nil
}

func (r *jobItemRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
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
		Model(&types.JobItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobItemRepo) LockPipeline(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobItem{}).
		Where("id = ? AND NOT is_pipeline_locked", id).
		Updates(map[string]any{
			"is_pipeline_locked": true,
			"updated_at":         time.Now().UTC(),
		}).Error
}
