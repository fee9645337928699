package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
)

// ErrStudentNotFound is returned when a point operation references a student
// profile that does not exist.
var ErrStudentNotFound = errors.New("student not found")

// PointSnapshot is a point-in-time read of a student's running total.
type PointSnapshot struct {
	Name   string
	Points int
}

// PointLedger persists each student's cumulative point total and last-active
// timestamp. Writes are absolute overwrites computed by the caller from its
// last snapshot; the store performs no compare-and-swap, so callers are
// responsible for their own sequencing.
type PointLedger struct {
	db *gorm.DB
}

// NewPointLedger creates a point ledger backed by the given database.
func NewPointLedger(db *gorm.DB) *PointLedger {
	return &PointLedger{db: db}
}

// Snapshot reads the student's current name and point total.
func (p *PointLedger) Snapshot(ctx context.Context, studentID string) (PointSnapshot, error) {
	var student models.Student
	err := p.db.WithContext(ctx).First(&student, "id = ?", studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PointSnapshot{}, ErrStudentNotFound
		}
		return PointSnapshot{}, err
	}
	return PointSnapshot{Name: student.Name, Points: student.Points}, nil
}

// SetTotal overwrites the student's point total and refreshes the last-active
// timestamp.
func (p *PointLedger) SetTotal(ctx context.Context, studentID string, total int, now time.Time) error {
	res := p.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", studentID).
		Updates(map[string]interface{}{"points": total, "last_active_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
