package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bustanapp/bustan/models"
)

func TestProjectTasksMarksOnlyCompletedMembers(t *testing.T) {
	catalog := []models.Task{
		{ID: "t1", Title: "سقي النباتات", Points: 10},
		{ID: "t2", Title: "إزالة الأعشاب", Points: 5},
		{ID: "t3", Title: "تسميد التربة", Points: 15},
	}

	views := ProjectTasks(catalog, []string{"t2"})

	assert.Len(t, views, 3)
	assert.False(t, views[0].Completed)
	assert.True(t, views[1].Completed)
	assert.False(t, views[2].Completed)

	// Catalog order survives projection.
	assert.Equal(t, "t1", views[0].ID)
	assert.Equal(t, "t3", views[2].ID)
}

func TestProjectTasksIgnoresUnknownCompletedIDs(t *testing.T) {
	catalog := []models.Task{{ID: "t1", Title: "سقي النباتات", Points: 10}}

	// Stale ids of since-deleted tasks do not break the view.
	views := ProjectTasks(catalog, []string{"t1", "ghost"})

	assert.Len(t, views, 1)
	assert.True(t, views[0].Completed)
}

func TestProjectTasksEmptyInputs(t *testing.T) {
	assert.Empty(t, ProjectTasks(nil, []string{"t1"}))

	views := ProjectTasks([]models.Task{{ID: "t1"}}, nil)
	assert.Len(t, views, 1)
	assert.False(t, views[0].Completed)
}

func TestLevelForThresholds(t *testing.T) {
	ladder := Levels()

	assert.Equal(t, ladder[0], LevelFor(0))
	assert.Equal(t, ladder[0], LevelFor(499))
	assert.Equal(t, ladder[1], LevelFor(500))
	assert.Equal(t, ladder[2], LevelFor(1500))
	assert.Equal(t, ladder[3], LevelFor(3000))
	assert.Equal(t, ladder[3], LevelFor(99999))
}

func TestComputeStreak(t *testing.T) {
	cases := []struct {
		name  string
		days  []string
		today string
		want  int
	}{
		{"no active days", nil, "2026-09-01", 0},
		{"single day today", []string{"2026-09-01"}, "2026-09-01", 1},
		{"run ending today", []string{"2026-08-30", "2026-08-31", "2026-09-01"}, "2026-09-01", 3},
		{"today pending keeps yesterday's run", []string{"2026-08-30", "2026-08-31"}, "2026-09-01", 2},
		{"gap breaks the run", []string{"2026-08-28", "2026-08-31", "2026-09-01"}, "2026-09-01", 2},
		{"two day gap resets", []string{"2026-08-29"}, "2026-09-01", 0},
		{"crosses month boundary", []string{"2026-08-31", "2026-09-01"}, "2026-09-01", 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeStreak(tc.days, tc.today))
		})
	}
}
