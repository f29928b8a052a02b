package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ReportTypeMalfunction = "malfunction"
	ReportTypeGeneral     = "general"
	ReportTypeScrap       = "scrap"

	ReportStatusOpen   = "open"
	ReportStatusKnown  = "known"
	ReportStatusSolved = "solved"

	ReportStatusNew      = "new"
	ReportStatusApproved = "approved"
)

type Report struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Type   string    `gorm:"column:type;not null;index" json:"type"`
	Status string    `gorm:"column:status;not null;index" json:"status"`

	StationID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"station_id"`
	SessionID     *uuid.UUID `gorm:"type:uuid;column:session_id;index" json:"session_id,omitempty"`
	StatusEventID *uuid.UUID `gorm:"type:uuid;column:status_event_id;index" json:"status_event_id,omitempty"`
	JobItemID     *uuid.UUID `gorm:"type:uuid;column:job_item_id;index" json:"job_item_id,omitempty"`
	JobItemStepID *uuid.UUID `gorm:"type:uuid;column:job_item_step_id;index" json:"job_item_step_id,omitempty"`

	// IsFirstProductQA marks the general report that gates production entry on
	// steps requiring first-product approval. At most one non-approved request
	// may exist per step (partial unique index uq_report_first_product_open).
	IsFirstProductQA bool `gorm:"column:is_first_product_qa;not null;default:false" json:"is_first_product_qa"`

	Description string         `gorm:"column:description" json:"description,omitempty"`
	ImageURL    *string        `gorm:"column:image_url" json:"image_url,omitempty"`
	ReasonID    *string        `gorm:"column:reason_id" json:"reason_id,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Report) TableName() string { return "report" }
