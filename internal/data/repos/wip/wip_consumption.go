package wip

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

// WipConsumptionRepo writes the append-only pull ledger. Rows are never
// updated or deleted.
type WipConsumptionRepo interface {
	Create(dbc dbctx.Context, rows []*types.WipConsumption) ([]*types.WipConsumption, error)
	ListByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) ([]*types.WipConsumption, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.WipConsumption, error)
}

type wipConsumptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWipConsumptionRepo(db *gorm.DB, baseLog *logger.Logger) WipConsumptionRepo {
	return &wipConsumptionRepo{db: db, log: baseLog.With("repo", "WipConsumptionRepo")}
}

func (r *wipConsumptionRepo) Create(dbc dbctx.Context, rows []*types.WipConsumption) ([]*types.WipConsumption, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.WipConsumption{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *wipConsumptionRepo) ListByJobItem(dbc dbctx.Context, jobItemID uuid.UUID) ([]*types.WipConsumption, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WipConsumption
	if err := transaction.WithContext(dbc.Ctx).
		Where("job_item_id = ?", jobItemID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wipConsumptionRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.WipConsumption, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WipConsumption
	if err := transaction.WithContext(dbc.Ctx).
		Where("consuming_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
