package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type WorkerRepo interface {
	Create(dbc dbctx.Context, workers []*types.Worker) ([]*types.Worker, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Worker, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Worker, error)
}

type workerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkerRepo(db *gorm.DB, baseLog *logger.Logger) WorkerRepo {
	return &workerRepo{db: db, log: baseLog.With("repo", "WorkerRepo")}
}

func (r *workerRepo) Create(dbc dbctx.Context, workers []*types.Worker) ([]*types.Worker, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(workers) == 0 {
		return []*types.Worker{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&workers).Error; err != nil {
		return nil, err
	}
	return workers, nil
}

func (r *workerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Worker, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var w types.Worker
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&w).Error
	if err != nil {
		return nil, err
	}
	if w.ID == uuid.Nil {
		return nil, nil
	}
	return &w, nil
}

func (r *workerRepo) GetByCode(dbc dbctx.Context, code string) (*types.Worker, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var w types.Worker
	err := transaction.WithContext(dbc.Ctx).
		Where("code = ?", code).
		Limit(1).
		Find(&w).Error
	if err != nil {
		return nil, err
	}
	if w.ID == uuid.Nil {
		return nil, nil
	}
	return &w, nil
}
