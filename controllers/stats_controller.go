package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/utils"
)

// StatsController provides aggregate numbers for the garden program.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new controller instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns program-wide counts. Individual failures fall back to
// zero instead of failing the whole endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var studentCount, classCount, taskCount, dailyActive, completedToday int64

	if err := s.db.Model(&models.Student{}).Count(&studentCount).Error; err != nil {
		studentCount = 0
	}
	if err := s.db.Model(&models.ClassRoom{}).Count(&classCount).Error; err != nil {
		classCount = 0
	}
	if err := s.db.Model(&models.Task{}).Count(&taskCount).Error; err != nil {
		taskCount = 0
	}

	today := time.Now().In(time.Local).Format("2006-01-02")
	if err := s.db.Model(&models.ActiveDay{}).Where("day = ?", today).Count(&dailyActive).Error; err != nil {
		dailyActive = 0
	}
	if err := s.db.Model(&models.CompletionEntry{}).
		Joins("JOIN daily_completions ON daily_completions.id = completion_entries.completion_id").
		Where("daily_completions.day = ?", today).
		Count(&completedToday).Error; err != nil {
		completedToday = 0
	}

	utils.Success(ctx, gin.H{
		"student_count":      studentCount,
		"class_count":        classCount,
		"task_count":         taskCount,
		"daily_active_count": dailyActive,
		"completed_today":    completedToday,
	})
}
