package main

import (
	"time"

	"github.com/cspring/microblog/config"
	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/routes"
	"github.com/cspring/microblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{}, &models.PageView{})

	r := routes.SetupRouter(db)

	// Expired sessions are reaped in the background when Redis is absent
	utils.StartSessionSweeper(5 * time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
