package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type StatusDefinitionRepo interface {
	Create(dbc dbctx.Context, defs []*types.StatusDefinition) ([]*types.StatusDefinition, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StatusDefinition, error)
	GetByCode(dbc dbctx.Context, code string) (*types.StatusDefinition, error)
	// ListForStation returns global definitions plus the station's own.
	ListForStation(dbc dbctx.Context, stationID uuid.UUID) ([]*types.StatusDefinition, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type statusDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) StatusDefinitionRepo {
	return &statusDefinitionRepo{db: db, log: baseLog.With("repo", "StatusDefinitionRepo")}
}

func (r *statusDefinitionRepo) Create(dbc dbctx.Context, defs []*types.StatusDefinition) ([]*types.StatusDefinition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(defs) == 0 {
		return []*types.StatusDefinition{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *statusDefinitionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StatusDefinition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var def types.StatusDefinition
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&def).Error
	if err != nil {
		return nil, err
	}
	if def.ID == uuid.Nil {
		return nil, nil
	}
	return &def, nil
}

func (r *statusDefinitionRepo) GetByCode(dbc dbctx.Context, code string) (*types.StatusDefinition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var def types.StatusDefinition
	err := transaction.WithContext(dbc.Ctx).
		Where("code = ?", code).
		Limit(1).
		Find(&def).Error
	if err != nil {
		return nil, err
	}
	if def.ID == uuid.Nil {
		return nil, nil
	}
	return &def, nil
}

func (r *statusDefinitionRepo) ListForStation(dbc dbctx.Context, stationID uuid.UUID) ([]*types.StatusDefinition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StatusDefinition
	q := transaction.WithContext(dbc.Ctx).Where("scope = ?", types.StatusScopeGlobal)
	if stationID != uuid.Nil {
		q = transaction.WithContext(dbc.Ctx).
			Where("scope = ? OR (scope = ? AND station_id = ?)",
				types.StatusScopeGlobal, types.StatusScopeStation, stationID)
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statusDefinitionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
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
		Model(&types.StatusDefinition{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *statusDefinitionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.StatusDefinition{}).Error
}
