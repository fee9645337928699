package models

import "time"

// Student is the gamified profile of a student account. The primary key equals
// the auth User.ID so a signed-in principal maps straight to its profile.
// Points is a running total adjusted incrementally by the reconciler; it is
// never recomputed from completion history.
type Student struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Name         string     `gorm:"size:128;not null" json:"name"`
	Points       int        `gorm:"default:0" json:"points"`
	LastActiveAt *time.Time `json:"last_active_at"`
	ClassID      string     `gorm:"size:36;index;not null" json:"class_id"`
	SectionID    string     `gorm:"size:36;index;not null" json:"section_id"`
	CreatedAt    time.Time  `json:"created_at"`
}
