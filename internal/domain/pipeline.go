package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobItemStep is one stage of a job item's pipeline. Positions are 1-based and
// contiguous; exactly one step per job item is terminal and it is always the
// step with the maximum position.
type JobItemStep struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobItemID  uuid.UUID `gorm:"type:uuid;not null;index" json:"job_item_id"`
	StationID  uuid.UUID `gorm:"type:uuid;not null;index" json:"station_id"`
	Position   int       `gorm:"column:position;not null" json:"position"`
	IsTerminal bool      `gorm:"column:is_terminal;not null;default:false" json:"is_terminal"`

	RequiresFirstProductApproval bool `gorm:"column:requires_first_product_approval;not null;default:false" json:"requires_first_product_approval"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (JobItemStep) TableName() string { return "job_item_step" }

// WipBalance tracks the accepted units sitting at a step, ready to be pulled
// downstream. Mutated only by the consumption algorithm.
type WipBalance struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobItemStepID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_item_step_id"`
	GoodAvailable int64     `gorm:"column:good_available;not null;default:0" json:"good_available"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (WipBalance) TableName() string { return "wip_balance" }

// WipConsumption is the append-only audit trail of upstream pulls.
type WipConsumption struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobItemID          uuid.UUID `gorm:"type:uuid;not null;index" json:"job_item_id"`
	FromJobItemStepID  uuid.UUID `gorm:"type:uuid;not null;index" json:"from_job_item_step_id"`
	ConsumingSessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"consuming_session_id"`
	GoodUsed           int64     `gorm:"column:good_used;not null" json:"good_used"`
	IsScrap            bool      `gorm:"column:is_scrap;not null;default:false" json:"is_scrap"`
	CreatedAt          time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (WipConsumption) TableName() string { return "wip_consumption" }

// JobItemProgress is the authoritative finished-goods counter for a job item,
// bumped only by terminal-step good output.
type JobItemProgress struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobItemID     uuid.UUID `gorm:"type:uuid;not null;index" json:"job_item_id"`
	CompletedGood int64     `gorm:"column:completed_good;not null;default:0" json:"completed_good"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (JobItemProgress) TableName() string { return "job_item_progress" }
