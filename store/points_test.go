package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bustanapp/bustan/models"
)

func TestPointLedgerSnapshotAndSetTotal(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	points := NewPointLedger(db)

	require.NoError(t, db.Create(&models.Student{
		ID: "s1", Name: "Huda", Points: 50, ClassID: "c1", SectionID: "sec1",
	}).Error)

	snap, err := points.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Huda", snap.Name)
	assert.Equal(t, 50, snap.Points)

	now := time.Now()
	require.NoError(t, points.SetTotal(ctx, "s1", 60, now))

	snap, err = points.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 60, snap.Points)

	var student models.Student
	require.NoError(t, db.First(&student, "id = ?", "s1").Error)
	require.NotNil(t, student.LastActiveAt)
	assert.WithinDuration(t, now, *student.LastActiveAt, time.Second)
}

func TestPointLedgerUnknownStudent(t *testing.T) {
	ctx := context.Background()
	points := NewPointLedger(testDB(t))

	_, err := points.Snapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrStudentNotFound)

	err = points.SetTotal(ctx, "missing", 10, time.Now())
	assert.ErrorIs(t, err, ErrStudentNotFound)
}
