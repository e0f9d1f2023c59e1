package handler

import (
	"context"
	"net/http"

	"github.com/arnavshah/allocation-api-go/pkg/config"
	"github.com/arnavshah/allocation-api-go/pkg/logger"
	"github.com/arnavshah/allocation-api-go/pkg/server"
	"github.com/gin-gonic/gin"
)

var r http.Handler

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New("prod")
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.ReleaseMode)
	h, _, err := server.NewHandler(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("could not initialise service", "error", err)
	}
	r = server.NewRouter(h, cfg)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
