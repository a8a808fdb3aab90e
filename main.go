package main

import (
	"github.com/mkryuchkov/socnet/config"
	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/routes"
	"github.com/mkryuchkov/socnet/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.PostAction{})

	// The reaction cache probes this client once inside SetupRouter; an
	// unreachable Redis degrades to store-only behavior.
	r := routes.SetupRouter(db, utils.GetRedis())

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
