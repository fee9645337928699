package models

import "time"

// DailyCompletion is the per-(student, day) ledger record. Day is the
// student's local calendar date as "YYYY-MM-DD". Existence of this row is
// meaningful: a missing row is the "no record yet" sentinel, distinct from a
// row whose entry set is empty. Rows are created empty on first access of a
// day and never deleted.
type DailyCompletion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID string    `gorm:"size:36;not null;uniqueIndex:idx_completion_student_day" json:"student_id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_completion_student_day" json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletionEntry is one member of a day's completed-task set. The composite
// unique index gives set semantics: adding an already-present task id is a
// no-op and concurrent adds of different ids touch different rows.
type CompletionEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CompletionID uint      `gorm:"not null;uniqueIndex:idx_entry_completion_task" json:"completion_id"`
	TaskID       string    `gorm:"size:36;not null;uniqueIndex:idx_entry_completion_task" json:"task_id"`
	CreatedAt    time.Time `json:"created_at"`
}
