package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type StationRepo interface {
	Create(dbc dbctx.Context, stations []*types.Station) ([]*types.Station, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Station, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Station, error)
	GetActiveByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Station, error)
}

type stationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStationRepo(db *gorm.DB, baseLog *logger.Logger) StationRepo {
	return &stationRepo{db: db, log: baseLog.With("repo", "StationRepo")}
}

func (r *stationRepo) Create(dbc dbctx.Context, stations []*types.Station) ([]*types.Station, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(stations) == 0 {
		return []*types.Station{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *stationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Station, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Station
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}

func (r *stationRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Station, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Station
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stationRepo) GetActiveByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Station, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Station
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ? AND is_active", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
