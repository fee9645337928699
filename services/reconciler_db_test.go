package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/store"
)

// Exercises the reconciler against the real gorm-backed ledgers instead of
// the in-memory fakes.
func TestToggleAgainstRealStores(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ClassRoom{},
		&models.Section{},
		&models.Student{},
		&models.Task{},
		&models.DailyCompletion{},
		&models.CompletionEntry{},
	))

	require.NoError(t, db.Create(&models.Student{
		ID: "s1", Name: "Huda", Points: 0, ClassID: "c1", SectionID: "sec1",
	}).Error)

	ledger := store.NewCompletionLedger(db)
	points := store.NewPointLedger(db)
	r := NewReconciler(ledger, points, zap.NewNop().Sugar())

	t1 := models.Task{ID: "t1", Title: "سقي النباتات", Points: 10}
	t2 := models.Task{ID: "t2", Title: "إزالة الأعشاب", Points: 5}

	res, err := r.Toggle(ctx, "s1", "2026-09-01", t1, true)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, []string{"t1"}, res.CompletedToday)

	res, err = r.Toggle(ctx, "s1", "2026-09-01", t2, true)
	require.NoError(t, err)
	assert.Equal(t, 15, res.Points)
	assert.ElementsMatch(t, []string{"t1", "t2"}, res.CompletedToday)

	res, err = r.Toggle(ctx, "s1", "2026-09-01", t1, false)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Points)
	assert.Equal(t, []string{"t2"}, res.CompletedToday)

	// The stored state agrees with the reported one.
	ids, err := ledger.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, ids)

	snap, err := points.Snapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Points)

	var student models.Student
	require.NoError(t, db.First(&student, "id = ?", "s1").Error)
	assert.NotNil(t, student.LastActiveAt)
}
