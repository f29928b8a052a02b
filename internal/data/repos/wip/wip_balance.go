package wip

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type WipBalanceRepo interface {
	Create(dbc dbctx.Context, balances []*types.WipBalance) ([]*types.WipBalance, error)
	GetByStep(dbc dbctx.Context, stepID uuid.UUID) (*types.WipBalance, error)
	// GetByStepForUpdate row-locks the balance so concurrent pulls from the
	// same upstream step serialize.
	GetByStepForUpdate(dbc dbctx.Context, stepID uuid.UUID) (*types.WipBalance, error)
	GetByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) ([]*types.WipBalance, error)
	AddGood(dbc dbctx.Context, stepID uuid.UUID, delta int64) error
}

type wipBalanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWipBalanceRepo(db *gorm.DB, baseLog *logger.Logger) WipBalanceRepo {
	return &wipBalanceRepo{db: db, log: baseLog.With("repo", "WipBalanceRepo")}
}

func (r *wipBalanceRepo) Create(dbc dbctx.Context, balances []*types.WipBalance) ([]*types.WipBalance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(balances) == 0 {
		return []*types.WipBalance{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *wipBalanceRepo) GetByStep(dbc dbctx.Context, stepID uuid.UUID) (*types.WipBalance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var b types.WipBalance
	err := transaction.WithContext(dbc.Ctx).
		Where("job_item_step_id = ?", stepID).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, nil
	}
	return &b, nil
}

func (r *wipBalanceRepo) GetByStepForUpdate(dbc dbctx.Context, stepID uuid.UUID) (*types.WipBalance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var b types.WipBalance
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("job_item_step_id = ?", stepID).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, nil
	}
	return &b, nil
}

func (r *wipBalanceRepo) GetByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) ([]*types.WipBalance, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WipBalance
	if err := transaction.WithContext(dbc.Ctx).
		Joins("JOIN job_item_step ON job_item_step.id = wip_balance.job_item_step_id").
		Where("job_item_step.job_item_id = ?", jobItemID).
		Order("job_item_step.position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wipBalanceRepo) AddGood(dbc dbctx.Context, stepID uuid.UUID, delta int64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.WipBalance{}).
		Where("job_item_step_id = ?", stepID).
		Update("good_available", gorm.Expr("good_available + ?", delta)).Error
}
