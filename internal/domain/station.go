package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Station struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	StationType string    `gorm:"column:station_type;not null;index" json:"station_type"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	// RequiresFirstProductQA is the station default; it is snapshotted onto
	// each JobItemStep at pipeline setup time.
	RequiresFirstProductQA bool `gorm:"column:requires_first_product_qa;not null;default:false" json:"requires_first_product_qa"`

	// MalfunctionReasons is a JSON array of {"id","label"} entries the station
	// allows on malfunction stoppages.
	MalfunctionReasons datatypes.JSON `gorm:"column:malfunction_reasons;type:jsonb" json:"malfunction_reasons,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Station) TableName() string { return "station" }
