package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a global catalog entry authored by staff. Editing a task does not
// retroactively change point totals already awarded for it.
type Task struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024" json:"description"`
	Points      int       `gorm:"not null" json:"points"`
	Icon        string    `gorm:"size:64" json:"icon"`
	Color       string    `gorm:"size:32" json:"color"`
	Category    string    `gorm:"size:64;index" json:"category"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
