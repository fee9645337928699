package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/store"
)

var (
	// ErrToggleInFlight is returned when a toggle for the same (student, task)
	// pair has not resolved yet. The caller should retry after the prior
	// round-trip settles instead of racing it.
	ErrToggleInFlight = errors.New("toggle already in flight for this task")

	// ErrPointsWriteFailed marks a partial failure: the ledger mutation
	// succeeded but the point total could not be persisted. The ledger write
	// is not rolled back.
	ErrPointsWriteFailed = errors.New("points write failed after ledger update")
)

// Ledger is the daily completion ledger the reconciler drives.
type Ledger interface {
	EnsureDayRecord(ctx context.Context, studentID, day string) error
	SetTaskCompletion(ctx context.Context, studentID, day, taskID string, complete bool) error
	CompletedTaskIDs(ctx context.Context, studentID, day string) ([]string, error)
}

// Points is the student point ledger the reconciler drives.
type Points interface {
	Snapshot(ctx context.Context, studentID string) (store.PointSnapshot, error)
	SetTotal(ctx context.Context, studentID string, total int, now time.Time) error
}

// ToggleResult is the settled state after a toggle.
type ToggleResult struct {
	Points         int      `json:"points"`
	CompletedToday []string `json:"completed_today"`
	Changed        bool     `json:"changed"`
}

// Reconciler keeps the completion ledger and the point total in agreement
// after a task toggle. The ledger mutation is always issued and resolved
// before the points mutation, never concurrently and never reversed, so the
// only reachable inconsistency is "ledger says done, points not yet updated".
type Reconciler struct {
	ledger Ledger
	points Points
	log    *zap.SugaredLogger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewReconciler wires a reconciler over the two ledgers.
func NewReconciler(ledger Ledger, points Points, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		ledger:   ledger,
		points:   points,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// Toggle marks task complete or incomplete for (student, day) and adjusts the
// point total by exactly ±task.Points. Re-entrant toggles of the same
// (student, task) are rejected with ErrToggleInFlight while the first one is
// outstanding. A toggle that would not change membership (task already in the
// requested state) settles without touching points.
func (r *Reconciler) Toggle(ctx context.Context, studentID, day string, task models.Task, complete bool) (ToggleResult, error) {
	key := studentID + "/" + task.ID
	if !r.acquire(key) {
		return ToggleResult{}, ErrToggleInFlight
	}
	defer r.release(key)

	if err := r.ledger.EnsureDayRecord(ctx, studentID, day); err != nil {
		return ToggleResult{}, fmt.Errorf("ensure day record: %w", err)
	}

	current, err := r.ledger.CompletedTaskIDs(ctx, studentID, day)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("read day record: %w", err)
	}

	// Repeating the current state must not re-apply a point delta.
	if containsID(current, task.ID) == complete {
		snap, err := r.points.Snapshot(ctx, studentID)
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Points: snap.Points, CompletedToday: current, Changed: false}, nil
	}

	// Ledger write first; on failure nothing else is attempted.
	if err := r.ledger.SetTaskCompletion(ctx, studentID, day, task.ID, complete); err != nil {
		r.log.Errorw("ledger write failed", "student", studentID, "task", task.ID, "day", day, "err", err)
		return ToggleResult{}, fmt.Errorf("ledger write: %w", err)
	}

	settled := applyMembership(current, task.ID, complete)

	snap, err := r.points.Snapshot(ctx, studentID)
	if err != nil {
		r.log.Errorw("points snapshot failed after ledger update", "student", studentID, "task", task.ID, "err", err)
		return ToggleResult{CompletedToday: settled, Changed: true}, errors.Join(ErrPointsWriteFailed, err)
	}

	delta := task.Points
	if !complete {
		delta = -task.Points
	}
	total := snap.Points + delta

	if err := r.points.SetTotal(ctx, studentID, total, r.now()); err != nil {
		r.log.Errorw("points write failed after ledger update", "student", studentID, "task", task.ID, "total", total, "err", err)
		return ToggleResult{Points: snap.Points, CompletedToday: settled, Changed: true}, errors.Join(ErrPointsWriteFailed, err)
	}

	return ToggleResult{Points: total, CompletedToday: settled, Changed: true}, nil
}

func (r *Reconciler) acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[key]; busy {
		return false
	}
	r.inFlight[key] = struct{}{}
	return true
}

func (r *Reconciler) release(key string) {
	r.mu.Lock()
	delete(r.inFlight, key)
	r.mu.Unlock()
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func applyMembership(ids []string, id string, add bool) []string {
	if add {
		return append(append([]string{}, ids...), id)
	}
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
