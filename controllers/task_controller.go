package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/utils"
)

const taskCatalogCacheKey = "cache:tasks:catalog"

// TaskController manages the global task catalog. The catalog is staff
// authored and read-only for students; edits never rewrite points already
// awarded for past completions.
type TaskController struct {
	db *gorm.DB
}

// NewTaskController creates a new controller instance.
func NewTaskController(db *gorm.DB) *TaskController {
	return &TaskController{db: db}
}

// ListTasks returns the catalog ordered newest first.
func (t *TaskController) ListTasks(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(taskCatalogCacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var tasks []models.Task
	if err := t.db.Order("created_at DESC").Find(&tasks).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load tasks")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"tasks": tasks}}
	utils.CacheSetJSON(taskCatalogCacheKey, wrapper, time.Hour)
	utils.Success(ctx, gin.H{"tasks": tasks})
}

type taskRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
	Points      int    `json:"points" binding:"required"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Category    string `json:"category"`
}

func (r *taskRequest) clean() (models.Task, bool) {
	title := utils.SanitizePlain(strings.TrimSpace(r.Title))
	if title == "" || r.Points <= 0 {
		return models.Task{}, false
	}
	return models.Task{
		Title:       title,
		Description: utils.Sanitize(r.Description),
		Points:      r.Points,
		Icon:        utils.SanitizePlain(r.Icon),
		Color:       utils.SanitizePlain(r.Color),
		Category:    utils.SanitizePlain(r.Category),
	}, true
}

// CreateTask adds a catalog entry.
func (t *TaskController) CreateTask(ctx *gin.Context) {
	var req taskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}
	task, ok := req.clean()
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40043, "title must be set and points must be positive")
		return
	}

	if err := t.db.Create(&task).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to create task")
		return
	}

	utils.InvalidateByPrefix(taskCatalogCacheKey)
	utils.Success(ctx, gin.H{"task": task})
}

// UpdateTask edits a catalog entry in place.
func (t *TaskController) UpdateTask(ctx *gin.Context) {
	var req taskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}
	clean, ok := req.clean()
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40043, "title must be set and points must be positive")
		return
	}

	var task models.Task
	if err := t.db.First(&task, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "task not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load task")
		return
	}

	updates := map[string]interface{}{
		"title":       clean.Title,
		"description": clean.Description,
		"points":      clean.Points,
		"icon":        clean.Icon,
		"color":       clean.Color,
		"category":    clean.Category,
	}
	if err := t.db.Model(&task).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to update task")
		return
	}

	utils.InvalidateByPrefix(taskCatalogCacheKey)
	utils.Success(ctx, gin.H{"task": task})
}

// DeleteTask removes a catalog entry. Completion history referencing the id
// is kept; awarded points stay as they were.
func (t *TaskController) DeleteTask(ctx *gin.Context) {
	res := t.db.Delete(&models.Task{}, "id = ?", ctx.Param("id"))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to delete task")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40440, "task not found")
		return
	}

	utils.InvalidateByPrefix(taskCatalogCacheKey)
	utils.Success(ctx, gin.H{"message": "task deleted"})
}
