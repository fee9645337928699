package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/utils"
)

const competitionsCacheKey = "cache:competitions:list"

// CompetitionController manages staff-authored competitions.
type CompetitionController struct {
	db *gorm.DB
}

// NewCompetitionController creates a new controller instance.
func NewCompetitionController(db *gorm.DB) *CompetitionController {
	return &CompetitionController{db: db}
}

// ListCompetitions returns competitions newest first.
func (c *CompetitionController) ListCompetitions(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(competitionsCacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var competitions []models.Competition
	if err := c.db.Order("created_at DESC").Find(&competitions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list competitions")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"competitions": competitions}}
	utils.CacheSetJSON(competitionsCacheKey, wrapper, time.Hour)
	utils.Success(ctx, gin.H{"competitions": competitions})
}

type competitionRequest struct {
	Title         string `json:"title" binding:"required,min=1"`
	Type          string `json:"type" binding:"required"`
	TargetClassID string `json:"target_class_id"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	Prize         string `json:"prize"`
	Status        string `json:"status"`
}

func (r *competitionRequest) clean() (models.Competition, string) {
	title := utils.SanitizePlain(strings.TrimSpace(r.Title))
	if title == "" {
		return models.Competition{}, "title cannot be empty"
	}
	if r.Type != models.CompetitionInterClass && r.Type != models.CompetitionIntraClass {
		return models.Competition{}, "type must be inter-class or intra-class"
	}
	if r.Type == models.CompetitionInterClass {
		r.TargetClassID = ""
	}

	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return models.Competition{}, "invalid start_date, expected YYYY-MM-DD"
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return models.Competition{}, "invalid end_date, expected YYYY-MM-DD"
	}
	if end.Before(start) {
		return models.Competition{}, "end_date must not precede start_date"
	}

	status := r.Status
	if status == "" {
		status = models.CompetitionActive
	}
	if status != models.CompetitionActive && status != models.CompetitionCompleted {
		return models.Competition{}, "status must be active or completed"
	}

	return models.Competition{
		Title:         title,
		Type:          r.Type,
		TargetClassID: r.TargetClassID,
		StartDate:     start,
		EndDate:       end,
		Prize:         utils.SanitizePlain(r.Prize),
		Status:        status,
	}, ""
}

// CreateCompetition adds a competition.
func (c *CompetitionController) CreateCompetition(ctx *gin.Context) {
	var req competitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	comp, msg := req.clean()
	if msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40061, msg)
		return
	}

	if err := c.db.Create(&comp).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to create competition")
		return
	}

	utils.InvalidateByPrefix(competitionsCacheKey)
	utils.Success(ctx, gin.H{"competition": comp})
}

// UpdateCompetition edits a competition in place.
func (c *CompetitionController) UpdateCompetition(ctx *gin.Context) {
	var req competitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	clean, msg := req.clean()
	if msg != "" {
		utils.Error(ctx, http.StatusBadRequest, 40061, msg)
		return
	}

	updates := map[string]interface{}{
		"title":           clean.Title,
		"type":            clean.Type,
		"target_class_id": clean.TargetClassID,
		"start_date":      clean.StartDate,
		"end_date":        clean.EndDate,
		"prize":           clean.Prize,
		"status":          clean.Status,
	}
	res := c.db.Model(&models.Competition{}).Where("id = ?", ctx.Param("id")).Updates(updates)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to update competition")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40460, "competition not found")
		return
	}

	utils.InvalidateByPrefix(competitionsCacheKey)
	utils.Success(ctx, gin.H{"message": "competition updated"})
}

// DeleteCompetition removes a competition.
func (c *CompetitionController) DeleteCompetition(ctx *gin.Context) {
	res := c.db.Delete(&models.Competition{}, "id = ?", ctx.Param("id"))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to delete competition")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40460, "competition not found")
		return
	}

	utils.InvalidateByPrefix(competitionsCacheKey)
	utils.Success(ctx, gin.H{"message": "competition deleted"})
}
