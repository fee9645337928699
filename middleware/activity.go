package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bustanapp/bustan/models"
)

// ActivityRecorder marks the authenticated student active for the current
// local date after each successful request. Must run after AuthRequired.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		if c.GetString(ContextRoleKey) != models.RoleStudent {
			return
		}
		studentID := c.GetString(ContextUserIDKey)
		if studentID == "" {
			return
		}

		day := time.Now().In(time.Local).Format("2006-01-02")

		// Atomic upsert keyed on (day, student) to stay quiet under
		// concurrent requests from the same session.
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}, {Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now()}),
		}).Create(&models.ActiveDay{Day: day, StudentID: studentID}).Error
	}
}
