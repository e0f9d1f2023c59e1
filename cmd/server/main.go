package main

import (
	"context"
	"fmt"
	"os"

	"github.com/arnavshah/allocation-api-go/pkg/config"
	"github.com/arnavshah/allocation-api-go/pkg/logger"
	"github.com/arnavshah/allocation-api-go/pkg/server"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	h, cleanup, err := server.NewHandler(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("could not initialise service", "error", err)
	}
	defer cleanup()

	r := server.NewRouter(h, cfg)

	log.Info("Server starting", "port", cfg.Port, "week_days", cfg.Week.Len())
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("could not run server", "error", err)
	}
}
