package work

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/floortrack/floortrack-backend/internal/domain"
	"github.com/floortrack/floortrack-backend/internal/platform/dbctx"
	"github.com/floortrack/floortrack-backend/internal/platform/logger"
)

type StatusEventRepo interface {
	Create(dbc dbctx.Context, events []*types.StatusEvent) ([]*types.StatusEvent, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StatusEvent, error)
	GetOpenBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.StatusEvent, error)
	CountOpenBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
	// CloseOpenForSession stamps ended_at on whatever event is open for the
	// session. Zero affected rows is fine (nothing was open).
	CloseOpenForSession(dbc dbctx.Context, sessionID uuid.UUID, endedAt time.Time) error
	// CloseWithQuantities stamps ended_at plus quantities on a specific event,
	// guarded on it still being open; reports whether the close won.
	CloseWithQuantities(dbc dbctx.Context, id uuid.UUID, endedAt time.Time, quantityGood, quantityScrap int64) (bool, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.StatusEvent, error)
}

type statusEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatusEventRepo(db *gorm.DB, baseLog *logger.Logger) StatusEventRepo {
	return &statusEventRepo{db: db, log: baseLog.With("repo", "StatusEventRepo")}
}

func (r *statusEventRepo) Create(dbc dbctx.Context, events []*types.StatusEvent) ([]*types.StatusEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return []*types.StatusEvent{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *statusEventRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StatusEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ev types.StatusEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&ev).Error
	if err != nil {
		return nil, err
	}
	if ev.ID == uuid.Nil {
		return nil, nil
	}
	return &ev, nil
}

func (r *statusEventRepo) GetOpenBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.StatusEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ev types.StatusEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		Limit(1).
		Find(&ev).Error
	if err != nil {
		return nil, err
	}
	if ev.ID == uuid.Nil {
		return nil, nil
	}
	return &ev, nil
}

func (r *statusEventRepo) CountOpenBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.StatusEvent{}).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *statusEventRepo) CloseOpenForSession(dbc dbctx.Context, sessionID uuid.UUID, endedAt time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.StatusEvent{}).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		Update("ended_at", endedAt).Error
}

func (r *statusEventRepo) CloseWithQuantities(dbc dbctx.Context, id uuid.UUID, endedAt time.Time, quantityGood, quantityScrap int64) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.StatusEvent{}).
		Where("id = ? AND ended_at IS NULL", id).
		Updates(map[string]any{
			"ended_at":       endedAt,
			"quantity_good":  quantityGood,
			"quantity_scrap": quantityScrap,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *statusEventRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.StatusEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StatusEvent
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
