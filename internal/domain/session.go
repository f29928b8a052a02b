package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAborted   = "aborted"
)

// Session is one worker's engagement at one station. At most one active
// session may exist per worker (partial unique index uq_session_active_worker).
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"worker_id"`
	StationID uuid.UUID `gorm:"type:uuid;not null;index" json:"station_id"`

	// Job binding is optional and may be deferred past session creation.
	JobID         *uuid.UUID `gorm:"type:uuid;column:job_id;index" json:"job_id,omitempty"`
	JobItemID     *uuid.UUID `gorm:"type:uuid;column:job_item_id;index" json:"job_item_id,omitempty"`
	JobItemStepID *uuid.UUID `gorm:"type:uuid;column:job_item_step_id;index" json:"job_item_step_id,omitempty"`

	Status string `gorm:"column:status;not null;default:'active';index" json:"status"`

	// CurrentStatusID mirrors the open StatusEvent's definition for O(1)
	// dashboard reads; written in the same transaction as the event.
	CurrentStatusID    *uuid.UUID `gorm:"type:uuid;column:current_status_id" json:"current_status_id,omitempty"`
	LastStatusChangeAt time.Time  `gorm:"column:last_status_change_at;not null;default:now()" json:"last_status_change_at"`

	// InstanceID identifies the client tab owning the session; takeover is a
	// compare-and-swap on this column.
	InstanceID uuid.UUID `gorm:"type:uuid;column:instance_id;not null" json:"instance_id"`

	// Display snapshots taken at session start; survive later edits to the
	// worker/station rows.
	WorkerName  string `gorm:"column:worker_name;not null" json:"worker_name"`
	WorkerCode  string `gorm:"column:worker_code;not null" json:"worker_code"`
	StationName string `gorm:"column:station_name;not null" json:"station_name"`
	StationCode string `gorm:"column:station_code;not null" json:"station_code"`

	StartedAt time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Session) TableName() string { return "session" }
