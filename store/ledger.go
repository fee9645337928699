package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bustanapp/bustan/models"
)

// ErrNoDayRecord is returned when a (student, day) completion record does not
// exist yet. It is distinct from an existing record with an empty set; the
// caller decides whether to self-heal by creating the record.
var ErrNoDayRecord = errors.New("no completion record for day")

// CompletionLedger persists the per-day completed-task sets. Membership in a
// day's set is the sole source of truth for "is task X completed today".
type CompletionLedger struct {
	db *gorm.DB
}

// NewCompletionLedger creates a ledger backed by the given database.
func NewCompletionLedger(db *gorm.DB) *CompletionLedger {
	return &CompletionLedger{db: db}
}

// EnsureDayRecord idempotently creates an empty record for (student, day).
// Safe to call concurrently: the insert is an upsert keyed on the unique
// (student_id, day) index, never a strict create.
func (l *CompletionLedger) EnsureDayRecord(ctx context.Context, studentID, day string) error {
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "day"}},
		DoNothing: true,
	}).Create(&models.DailyCompletion{StudentID: studentID, Day: day}).Error
}

// CompletedTaskIDs returns the stored set for (student, day), or ErrNoDayRecord
// when no record exists. An existing empty record yields an empty slice.
func (l *CompletionLedger) CompletedTaskIDs(ctx context.Context, studentID, day string) ([]string, error) {
	var rec models.DailyCompletion
	err := l.db.WithContext(ctx).Where("student_id = ? AND day = ?", studentID, day).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDayRecord
		}
		return nil, err
	}

	taskIDs := []string{}
	err = l.db.WithContext(ctx).Model(&models.CompletionEntry{}).
		Where("completion_id = ?", rec.ID).
		Order("created_at ASC").
		Pluck("task_id", &taskIDs).Error
	if err != nil {
		return nil, err
	}
	return taskIDs, nil
}

// SetTaskCompletion adds taskID to the day's set when complete is true and
// removes it otherwise. Both directions are set operations on individual
// member rows, not record overwrites, so concurrent toggles of different task
// ids on the same day never clobber each other. Adding an already-present id
// is a no-op; the record itself is created on demand.
func (l *CompletionLedger) SetTaskCompletion(ctx context.Context, studentID, day, taskID string, complete bool) error {
	if err := l.EnsureDayRecord(ctx, studentID, day); err != nil {
		return err
	}

	var rec models.DailyCompletion
	if err := l.db.WithContext(ctx).Where("student_id = ? AND day = ?", studentID, day).First(&rec).Error; err != nil {
		return err
	}

	if complete {
		return l.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "completion_id"}, {Name: "task_id"}},
			DoNothing: true,
		}).Create(&models.CompletionEntry{CompletionID: rec.ID, TaskID: taskID}).Error
	}

	return l.db.WithContext(ctx).
		Where("completion_id = ? AND task_id = ?", rec.ID, taskID).
		Delete(&models.CompletionEntry{}).Error
}

// CompletionDates returns the days (ascending) on which the student completed
// at least one task. Empty day records are excluded, matching how streaks and
// history views count a day as active.
func (l *CompletionLedger) CompletionDates(ctx context.Context, studentID string) ([]string, error) {
	days := []string{}
	err := l.db.WithContext(ctx).Model(&models.DailyCompletion{}).
		Joins("JOIN completion_entries ON completion_entries.completion_id = daily_completions.id").
		Where("daily_completions.student_id = ?", studentID).
		Group("daily_completions.day").
		Order("daily_completions.day ASC").
		Pluck("daily_completions.day", &days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}
