package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bustanapp/bustan/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
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
		&models.ActiveDay{},
	))
	return db
}

func TestCompletedTaskIDsSentinel(t *testing.T) {
	ctx := context.Background()
	ledger := NewCompletionLedger(testDB(t))

	// No record yet: the sentinel, not an empty set.
	_, err := ledger.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	assert.ErrorIs(t, err, ErrNoDayRecord)

	require.NoError(t, ledger.EnsureDayRecord(ctx, "s1", "2026-09-01"))

	ids, err := ledger.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEnsureDayRecordIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	ledger := NewCompletionLedger(db)

	require.NoError(t, ledger.EnsureDayRecord(ctx, "s1", "2026-09-01"))
	require.NoError(t, ledger.EnsureDayRecord(ctx, "s1", "2026-09-01"))

	var count int64
	require.NoError(t, db.Model(&models.DailyCompletion{}).
		Where("student_id = ? AND day = ?", "s1", "2026-09-01").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSetTaskCompletionIsASet(t *testing.T) {
	ctx := context.Background()
	ledger := NewCompletionLedger(testDB(t))

	// Double add must not produce duplicates.
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "t1", true))
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "t1", true))

	ids, err := ledger.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids)

	// Removing an absent id is a no-op.
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "t9", false))

	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "t1", false))
	ids, err = ledger.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetTaskCompletionDistinctTasksDoNotClobber(t *testing.T) {
	ctx := context.Background()
	ledger := NewCompletionLedger(testDB(t))

	// Toggles of different task ids land as independent members, whatever
	// the order they arrive in.
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "tA", true))
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "tB", true))

	ids, err := ledger.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tA", "tB"}, ids)
}

func TestSetTaskCompletionCreatesDayRecordOnDemand(t *testing.T) {
	ctx := context.Background()
	ledger := NewCompletionLedger(testDB(t))

	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-02", "t1", true))

	ids, err := ledger.CompletedTaskIDs(ctx, "s1", "2026-09-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids)
}

func TestCompletionDatesSkipsEmptyDays(t *testing.T) {
	ctx := context.Background()
	ledger := NewCompletionLedger(testDB(t))

	require.NoError(t, ledger.EnsureDayRecord(ctx, "s1", "2026-08-30"))
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-08-31", "t1", true))
	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "t2", true))

	days, err := ledger.CompletionDates(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-31", "2026-09-01"}, days)
}

func TestCompletionLedgerIsolatedPerStudent(t *testing.T) {
	ctx := context.Background()
	ledger := NewCompletionLedger(testDB(t))

	require.NoError(t, ledger.SetTaskCompletion(ctx, "s1", "2026-09-01", "t1", true))

	_, err := ledger.CompletedTaskIDs(ctx, "s2", "2026-09-01")
	assert.ErrorIs(t, err, ErrNoDayRecord)
}
