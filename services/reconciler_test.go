package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/store"
)

// fakeStores implements Ledger and Points in memory and records the order of
// mutating calls so tests can assert the ledger-before-points guarantee.
type fakeStores struct {
	mu    sync.Mutex
	sets  map[string][]string // studentID/day -> task ids
	total map[string]int
	calls []string

	failLedgerWrite error
	failPointsWrite error
	ledgerBarrier   chan struct{} // when set, SetTaskCompletion blocks until closed
	ledgerEntered   chan struct{}
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		sets:  map[string][]string{},
		total: map[string]int{},
	}
}

func (f *fakeStores) key(studentID, day string) string { return studentID + "/" + day }

func (f *fakeStores) EnsureDayRecord(ctx context.Context, studentID, day string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(studentID, day)
	if _, ok := f.sets[k]; !ok {
		f.sets[k] = []string{}
	}
	return nil
}

func (f *fakeStores) CompletedTaskIDs(ctx context.Context, studentID, day string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, ok := f.sets[f.key(studentID, day)]
	if !ok {
		return nil, store.ErrNoDayRecord
	}
	return append([]string{}, ids...), nil
}

func (f *fakeStores) SetTaskCompletion(ctx context.Context, studentID, day, taskID string, complete bool) error {
	if f.ledgerEntered != nil {
		close(f.ledgerEntered)
		f.ledgerEntered = nil
	}
	if f.ledgerBarrier != nil {
		<-f.ledgerBarrier
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ledgerWrite")
	if f.failLedgerWrite != nil {
		return f.failLedgerWrite
	}
	k := f.key(studentID, day)
	ids := f.sets[k]
	if complete {
		for _, id := range ids {
			if id == taskID {
				return nil
			}
		}
		f.sets[k] = append(ids, taskID)
		return nil
	}
	out := ids[:0]
	for _, id := range ids {
		if id != taskID {
			out = append(out, id)
		}
	}
	f.sets[k] = out
	return nil
}

func (f *fakeStores) Snapshot(ctx context.Context, studentID string) (store.PointSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return store.PointSnapshot{Name: studentID, Points: f.total[studentID]}, nil
}

func (f *fakeStores) SetTotal(ctx context.Context, studentID string, total int, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "pointsWrite")
	if f.failPointsWrite != nil {
		return f.failPointsWrite
	}
	f.total[studentID] = total
	return nil
}

func testReconciler(f *fakeStores) *Reconciler {
	return NewReconciler(f, f, zap.NewNop().Sugar())
}

func task(id string, points int) models.Task {
	return models.Task{ID: id, Title: "task " + id, Points: points}
}

func TestToggleAdjustsPointsByTaskValue(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	f.total["s1"] = 50
	r := testReconciler(f)

	res, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 60, res.Points)
	assert.Equal(t, []string{"t1"}, res.CompletedToday)

	res, err = r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), false)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Points)
	assert.Empty(t, res.CompletedToday)
}

func TestToggleLedgerWriteStrictlyBeforePointsWrite(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	r := testReconciler(f)

	_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	require.NoError(t, err)

	require.Equal(t, []string{"ledgerWrite", "pointsWrite"}, f.calls)
}

func TestToggleLedgerFailureStopsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	f.total["s1"] = 50
	f.failLedgerWrite = errors.New("store unavailable")
	r := testReconciler(f)

	_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPointsWriteFailed)

	// No points call was ever issued and the total is untouched.
	assert.Equal(t, []string{"ledgerWrite"}, f.calls)
	assert.Equal(t, 50, f.total["s1"])
}

func TestTogglePointsFailureIsVisiblePartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	f.total["s1"] = 50
	f.failPointsWrite = errors.New("store unavailable")
	r := testReconciler(f)

	res, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	assert.ErrorIs(t, err, ErrPointsWriteFailed)

	// Ledger write stuck, points did not: the bounded inconsistency window.
	assert.Equal(t, []string{"t1"}, res.CompletedToday)
	ids, _ := f.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	assert.Equal(t, []string{"t1"}, ids)
	assert.Equal(t, 50, f.total["s1"])
}

func TestToggleRepeatingCurrentStateDoesNotReapplyDelta(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	r := testReconciler(f)

	_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	require.NoError(t, err)

	res, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 10, res.Points)
	assert.Equal(t, []string{"t1"}, res.CompletedToday)
}

func TestToggleRejectsReentrantToggleForSameTask(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	f.ledgerBarrier = make(chan struct{})
	f.ledgerEntered = make(chan struct{})
	entered := f.ledgerEntered
	r := testReconciler(f)

	done := make(chan error, 1)
	go func() {
		_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
		done <- err
	}()

	<-entered // first toggle is mid-flight inside the ledger write

	_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
	assert.ErrorIs(t, err, ErrToggleInFlight)

	close(f.ledgerBarrier)
	require.NoError(t, <-done)

	// Once settled the key is released and the task can be toggled again.
	res, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), false)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestToggleDifferentTasksAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFakeStores()
	f.ledgerBarrier = make(chan struct{})
	f.ledgerEntered = make(chan struct{})
	entered := f.ledgerEntered
	r := testReconciler(f)

	done := make(chan error, 1)
	go func() {
		_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t1", 10), true)
		done <- err
	}()

	<-entered
	close(f.ledgerBarrier)
	require.NoError(t, <-done)

	f.ledgerBarrier = nil
	_, err := r.Toggle(ctx, "s1", "2026-09-01", task("t2", 5), true)
	require.NoError(t, err)

	ids, err := f.CompletedTaskIDs(ctx, "s1", "2026-09-01")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, ids)
	assert.Equal(t, 15, f.total["s1"])
}
