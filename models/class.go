package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClassRoom is a school class; it owns sections, which own students.
type ClassRoom struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Sections  []Section `gorm:"foreignKey:ClassID" json:"sections,omitempty"`
}

// Section is a class division (e.g. "5-A").
type Section struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ClassID   string    `gorm:"size:36;index;not null" json:"class_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Students  []Student `gorm:"foreignKey:SectionID" json:"students,omitempty"`
}

func (c *ClassRoom) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
