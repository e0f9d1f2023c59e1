package server

import (
	"context"

	"github.com/arnavshah/allocation-api-go/pkg/auth"
	"github.com/arnavshah/allocation-api-go/pkg/config"
	"github.com/arnavshah/allocation-api-go/pkg/database"
	"github.com/arnavshah/allocation-api-go/pkg/handlers"
	"github.com/arnavshah/allocation-api-go/pkg/logger"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/arnavshah/allocation-api-go/pkg/ratelimit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewHandler opens the database, seeds the admin user and wires every dependency.
// The returned cleanup closes what was opened.
func NewHandler(ctx context.Context, cfg *config.Config, log *logger.Logger) (*handlers.Handler, func(), error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	authn := auth.NewAuthenticator(cfg.JWTSecret, cfg.APIMasterSecret)
	created, err := authn.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Warn("Could not ensure admin user", "error", err)
	} else if created {
		log.Info("Default admin user created", "username", cfg.AdminUsername)
	}

	cleanup := func() {}
	var limiter ratelimit.Limiter = &ratelimit.DBLimiter{DB: db}
	if cfg.RedisAddr != "" {
		rl, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisAddr, db)
		if err != nil {
			log.Warn("Redis unavailable, counting quota in the database", "redis_addr", cfg.RedisAddr, "error", err)
		} else {
			limiter = rl
			cleanup = func() { _ = rl.Close() }
		}
	}

	h := &handlers.Handler{
		DB:                  db,
		Store:               database.NewPlanStore(db),
		Auth:                authn,
		Limiter:             limiter,
		Log:                 log.With("service", "allocation-api"),
		Planner:             planner.NewPlanner(cfg.Week),
		BlockOnHighSeverity: cfg.BlockOnHighSeverity,
		DefaultRateLimit:    cfg.DefaultRateLimit,
	}
	return h, cleanup, nil
}

// NewRouter registers every route on a fresh gin engine
func NewRouter(h *handlers.Handler, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID(), handlers.RequestLogger(h.Log))
	corsCfg := cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", h.Root)
	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	staff := r.Group("/admin")
	staff.Use(h.AuthMiddleware())

	admin := staff.Group("", h.RequireRole(database.RoleAdmin))
	{
		admin.POST("/users", h.CreateUser)
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Managers maintain member profiles without holding an API key
	members := staff.Group("/members", h.RequireRole(database.RoleAdmin, database.RoleManager))
	{
		members.GET("", h.ListMembers)
		members.PUT("/:id", h.PutMember)
		members.DELETE("/:id", h.DeleteMember)
	}

	// Planner Endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware(), h.QuotaMiddleware())
	{
		api.POST("/conflicts/analyze", h.Analyze)
		api.POST("/validate", h.ValidateInput)
		api.GET("/weeks/:week/conflicts", h.WeekConflicts)
		api.GET("/weeks/:week/assignments", h.ListWeekAssignments)
		api.POST("/weeks/:week/assignments", h.CommitAssignments)
		api.GET("/members", h.ListMembers)
		api.PUT("/members/:id", h.PutMember)
		api.DELETE("/members/:id", h.DeleteMember)
		api.GET("/usage", h.GetMyUsage)
	}

	return r
}
