package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/services"
	"github.com/bustanapp/bustan/store"
	"github.com/bustanapp/bustan/utils"
)

// CompletionController is the student-facing surface over the completion
// reconciler: today's task list, the toggle endpoint and the profile summary.
type CompletionController struct {
	db         *gorm.DB
	ledger     *store.CompletionLedger
	points     *store.PointLedger
	students   *store.StudentStore
	reconciler *services.Reconciler
}

// NewCompletionController wires the controller over the shared stores and
// reconciler.
func NewCompletionController(db *gorm.DB, ledger *store.CompletionLedger, points *store.PointLedger, reconciler *services.Reconciler) *CompletionController {
	return &CompletionController{
		db:         db,
		ledger:     ledger,
		points:     points,
		students:   store.NewStudentStore(db),
		reconciler: reconciler,
	}
}

// requestDay validates the optional ?date= query (the student's local today)
// and falls back to server-local today.
func requestDay(ctx *gin.Context) (string, bool) {
	day := ctx.Query("date")
	if day == "" {
		return time.Now().In(time.Local).Format("2006-01-02"), true
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return "", false
	}
	return day, true
}

// ListMyTasks returns the task catalog annotated with today's completion
// flags. A missing day record is not an error: the record is created empty on
// first access and the set reads as empty.
func (c *CompletionController) ListMyTasks(ctx *gin.Context) {
	studentID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	day, ok := requestDay(ctx)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid date, expected YYYY-MM-DD")
		return
	}

	var catalog []models.Task
	if err := c.db.Order("created_at DESC").Find(&catalog).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load tasks")
		return
	}

	completed, err := c.ledger.CompletedTaskIDs(ctx.Request.Context(), studentID, day)
	if errors.Is(err, store.ErrNoDayRecord) {
		if err := c.ledger.EnsureDayRecord(ctx.Request.Context(), studentID, day); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create day record")
			return
		}
		completed = []string{}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load day record")
		return
	}

	snap, err := c.points.Snapshot(ctx.Request.Context(), studentID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load student")
		return
	}

	utils.Success(ctx, gin.H{
		"date":   day,
		"tasks":  services.ProjectTasks(catalog, completed),
		"points": snap.Points,
		"name":   snap.Name,
	})
}

// ToggleTask marks a task complete or incomplete for the given day and
// reconciles the point total. The ledger is always written before points; a
// partial failure (ledger done, points not) is reported, not hidden.
func (c *CompletionController) ToggleTask(ctx *gin.Context) {
	studentID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Complete *bool  `json:"complete" binding:"required"`
		Date     string `json:"date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	day := req.Date
	if day == "" {
		day = time.Now().In(time.Local).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid date, expected YYYY-MM-DD")
		return
	}

	var task models.Task
	if err := c.db.First(&task, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "task not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load task")
		return
	}

	result, err := c.reconciler.Toggle(ctx.Request.Context(), studentID, day, task, *req.Complete)
	switch {
	case errors.Is(err, services.ErrToggleInFlight):
		utils.Error(ctx, http.StatusConflict, 40940, "a toggle for this task is still in flight")
		return
	case errors.Is(err, services.ErrPointsWriteFailed):
		// The completion stuck but the total did not; surface the divergence.
		utils.Respond(ctx, http.StatusInternalServerError, 50044,
			"task completion saved but points were not updated", gin.H{"result": result})
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to toggle task")
		return
	}

	utils.Success(ctx, gin.H{"result": result, "date": day})
}

// MySummary returns the profile numbers for the signed-in student: points,
// level, streak and today's progress.
func (c *CompletionController) MySummary(ctx *gin.Context) {
	studentID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	day, ok := requestDay(ctx)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid date, expected YYYY-MM-DD")
		return
	}

	info, err := c.students.FindInfo(ctx.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, store.ErrStudentNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40441, "student not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load student")
		return
	}

	completed, err := c.ledger.CompletedTaskIDs(ctx.Request.Context(), studentID, day)
	if errors.Is(err, store.ErrNoDayRecord) {
		completed = []string{}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load day record")
		return
	}

	var totalTasks int64
	if err := c.db.Model(&models.Task{}).Count(&totalTasks).Error; err != nil {
		totalTasks = 0
	}

	days, err := c.ledger.CompletionDates(ctx.Request.Context(), studentID)
	if err != nil {
		days = nil
	}

	utils.Success(ctx, gin.H{
		"name":            info.Name,
		"class_name":      info.ClassName,
		"section_name":    info.SectionName,
		"points":          info.Points,
		"level":           services.LevelFor(info.Points),
		"streak":          services.ComputeStreak(days, day),
		"completed_today": len(completed),
		"total_tasks":     totalTasks,
		"last_active_at":  info.LastActiveAt,
	})
}
