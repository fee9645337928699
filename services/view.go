package services

import "github.com/bustanapp/bustan/models"

// TaskView is one catalog task annotated with today's completion flag. The
// flag is always derived from the day's stored set; it is never authoritative
// on its own.
type TaskView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
}

// ProjectTasks combines the task catalog with the day's completed-id set into
// the per-task view. Pure: order-preserving, no side effects, safe to
// recompute whenever either input changes.
func ProjectTasks(catalog []models.Task, completedIDs []string) []TaskView {
	completed := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	views := make([]TaskView, 0, len(catalog))
	for _, t := range catalog {
		_, done := completed[t.ID]
		views = append(views, TaskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Points:      t.Points,
			Icon:        t.Icon,
			Color:       t.Color,
			Category:    t.Category,
			Completed:   done,
		})
	}
	return views
}
