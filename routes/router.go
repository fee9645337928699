package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/config"
	"github.com/bustanapp/bustan/controllers"
	"github.com/bustanapp/bustan/middleware"
	"github.com/bustanapp/bustan/services"
	"github.com/bustanapp/bustan/store"
	"github.com/bustanapp/bustan/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file through zap.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	ledger := store.NewCompletionLedger(db)
	points := store.NewPointLedger(db)
	reconciler := services.NewReconciler(ledger, points, utils.Sugar)
	mentor := services.NewMentor(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, services.RedisChatHistory{}, utils.Sugar)

	authController := controllers.NewAuthController(db)
	completionController := controllers.NewCompletionController(db, ledger, points, reconciler)
	taskController := controllers.NewTaskController(db)
	classController := controllers.NewClassController(db)
	competitionController := controllers.NewCompetitionController(db)
	mentorController := controllers.NewMentorController(mentor)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public configuration and stats.
	api.GET("/config/levels", configController.GetLevels)
	api.GET("/stats", statsController.GetStats)

	// Signed-in surface.
	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.ActivityRecorder(db))
	protected.GET("/tasks", taskController.ListTasks)
	protected.GET("/competitions", competitionController.ListCompetitions)
	protected.GET("/me/tasks", completionController.ListMyTasks)
	protected.POST("/me/tasks/:id/toggle", completionController.ToggleTask)
	protected.GET("/me/summary", completionController.MySummary)

	mentorGroup := protected.Group("/mentor")
	mentorGroup.Use(middleware.RateLimitMiddleware())
	mentorGroup.GET("/tip", mentorController.Tip)
	mentorGroup.POST("/chat", mentorController.Chat)

	// Staff surface.
	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.POST("/tasks", taskController.CreateTask)
	admin.PUT("/tasks/:id", taskController.UpdateTask)
	admin.DELETE("/tasks/:id", taskController.DeleteTask)

	admin.GET("/classes", classController.ListClasses)
	admin.POST("/classes", classController.CreateClass)
	admin.PUT("/classes/:id", classController.UpdateClass)
	admin.DELETE("/classes/:id", classController.DeleteClass)
	admin.POST("/classes/:id/sections", classController.CreateSection)
	admin.PUT("/sections/:sectionId", classController.UpdateSection)
	admin.DELETE("/sections/:sectionId", classController.DeleteSection)
	admin.POST("/sections/:sectionId/students", classController.CreateStudent)
	admin.DELETE("/students/:studentId", classController.DeleteStudent)

	admin.POST("/competitions", competitionController.CreateCompetition)
	admin.PUT("/competitions/:id", competitionController.UpdateCompetition)
	admin.DELETE("/competitions/:id", competitionController.DeleteCompetition)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
