package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/bustanapp/bustan/services"
	"github.com/bustanapp/bustan/utils"
)

// taskCategories are the tags staff can put on catalog entries.
var taskCategories = []string{"watering", "maintenance", "observation", "harvest"}

// ConfigController serves client-facing configuration: the level ladder and
// the task category tags.
type ConfigController struct{}

// NewConfigController creates a new controller instance.
func NewConfigController() *ConfigController {
	return &ConfigController{}
}

// GetLevels returns the point thresholds of the garden progression ladder.
func (c *ConfigController) GetLevels(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"levels":     services.Levels(),
		"categories": taskCategories,
	})
}
