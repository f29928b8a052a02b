package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScopeGlobal  = "global"
	StatusScopeStation = "station"

	MachineStateProduction = "production"
	MachineStateSetup      = "setup"
	MachineStateStoppage   = "stoppage"

	ReportTypeRequirementNone        = "none"
	ReportTypeRequirementMalfunction = "malfunction"
	ReportTypeRequirementGeneral     = "general"
)

// Seeded protected status codes.
const (
	StatusCodeStationEntry = "station_entry"
	StatusCodeProduction   = "production"
	StatusCodeSetup        = "setup"
	StatusCodeMalfunction  = "malfunction"
)

type StatusDefinition struct {
	ID    uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code  string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Scope string    `gorm:"column:scope;not null;default:'global';index" json:"scope"`

	// StationID is set only for station-scoped definitions.
	StationID *uuid.UUID `gorm:"type:uuid;column:station_id;index" json:"station_id,omitempty"`

	MachineState string `gorm:"column:machine_state;not null;index" json:"machine_state"`
	LabelHe      string `gorm:"column:label_he;not null" json:"label_he"`
	LabelRu      string `gorm:"column:label_ru" json:"label_ru,omitempty"`
	ColorHex     string `gorm:"column:color_hex;not null" json:"color_hex"`
	ReportType   string `gorm:"column:report_type;not null;default:'none'" json:"report_type"`
	IsProtected  bool   `gorm:"column:is_protected;not null;default:false" json:"is_protected"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StatusDefinition) TableName() string { return "status_definition" }

// StatusEvent is one timed interval during which a session sat in one machine
// state. At most one open event (ended_at IS NULL) exists per session.
type StatusEvent struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID          uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	StatusDefinitionID uuid.UUID `gorm:"type:uuid;not null;index" json:"status_definition_id"`

	StartedAt time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at;index" json:"ended_at,omitempty"`

	// Quantities are stamped only when a production interval is closed.
	QuantityGood  *int64 `gorm:"column:quantity_good" json:"quantity_good,omitempty"`
	QuantityScrap *int64 `gorm:"column:quantity_scrap" json:"quantity_scrap,omitempty"`

	// Binding snapshot at the time the event opened.
	JobItemID     *uuid.UUID `gorm:"type:uuid;column:job_item_id;index" json:"job_item_id,omitempty"`
	JobItemStepID *uuid.UUID `gorm:"type:uuid;column:job_item_step_id;index" json:"job_item_step_id,omitempty"`

	StationReasonID *string    `gorm:"column:station_reason_id" json:"station_reason_id,omitempty"`
	Note            *string    `gorm:"column:note" json:"note,omitempty"`
	ReportID        *uuid.UUID `gorm:"type:uuid;column:report_id" json:"report_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StatusEvent) TableName() string { return "status_event" }
