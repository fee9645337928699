package main

import (
	"github.com/bustanapp/bustan/config"
	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/routes"
	"github.com/bustanapp/bustan/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.ClassRoom{},
		&models.Section{},
		&models.Student{},
		&models.Task{},
		&models.DailyCompletion{},
		&models.CompletionEntry{},
		&models.Competition{},
		&models.ActiveDay{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
