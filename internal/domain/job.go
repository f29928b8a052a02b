package domain

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobNumber    string    `gorm:"column:job_number;not null;uniqueIndex" json:"job_number"`
	CustomerName string    `gorm:"column:customer_name;not null" json:"customer_name"`
	Description  string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Job) TableName() string { return "job" }

type JobItem struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID           uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	PlannedQuantity int64     `gorm:"column:planned_quantity;not null;default:0" json:"planned_quantity"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	// IsPipelineLocked flips to true on the first production report against
	// the item; from then on the step layout is immutable.
	IsPipelineLocked bool `gorm:"column:is_pipeline_locked;not null;default:false" json:"is_pipeline_locked"`

	PipelinePresetID *uuid.UUID `gorm:"type:uuid;column:pipeline_preset_id" json:"pipeline_preset_id,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (JobItem) TableName() string { return "job_item" }
