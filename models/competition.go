package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Competition types and statuses.
const (
	CompetitionInterClass = "inter-class"
	CompetitionIntraClass = "intra-class"

	CompetitionActive    = "active"
	CompetitionCompleted = "completed"
)

// Competition is a staff-authored contest between classes or within one class.
// TargetClassID is set only for intra-class competitions.
type Competition struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Type          string    `gorm:"size:16;not null" json:"type"`
	TargetClassID string    `gorm:"size:36" json:"target_class_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Prize         string    `gorm:"size:255" json:"prize"`
	Status        string    `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *Competition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
