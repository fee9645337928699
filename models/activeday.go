package models

import "time"

// ActiveDay records that a student hit the API on a given local date. One row
// per (day, student); the stats endpoint counts rows per day for the
// daily-active figure.
type ActiveDay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_active_day_student" json:"day"`
	StudentID string    `gorm:"size:36;not null;uniqueIndex:idx_active_day_student" json:"student_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
