package wip

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type JobItemProgressRepo interface {
	// Ensure creates the progress row at zero if it does not exist yet.
	Ensure(dbc dbctx.Context, jobItemID uuid.UUID) error
	GetByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) (*types.JobItemProgress, error)
	AddCompletedGood(dbc dbctx.Context, jobItemID uuid.UUID, delta int64) error
}

type jobItemProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobItemProgressRepo(db *gorm.DB, baseLog *logger.Logger) JobItemProgressRepo {
	return &jobItemProgressRepo{db: db, log: baseLog.With("repo", "JobItemProgressRepo")}
}

func (r *jobItemProgressRepo) Ensure(dbc dbctx.Context, jobItemID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.JobItemProgress{JobItemID: jobItemID}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_item_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *jobItemProgressRepo) GetByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) (*types.JobItemProgress, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.JobItemProgress
	err := transaction.WithContext(dbc.Ctx).
		Where("job_item_id = ?", jobItemID).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *jobItemProgressRepo) AddCompletedGood(dbc dbctx.Context, jobItemID uuid.UUID, delta int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobItemProgress{}).
		Where("job_item_id = ?", jobItemID).
		Update("completed_good", gorm.Expr("completed_good + ?", delta)).Error
}
