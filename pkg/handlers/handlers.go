package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/allocation-api-go/pkg/apierr"
	"github.com/arnavshah/allocation-api-go/pkg/auth"
	"github.com/arnavshah/allocation-api-go/pkg/database"
	"github.com/arnavshah/allocation-api-go/pkg/logger"
	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/arnavshah/allocation-api-go/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Store   *database.PlanStore
	Auth    *auth.Authenticator
	Limiter ratelimit.Limiter
	Log     *logger.Logger
	Planner *planner.Planner

	// BlockOnHighSeverity refuses to commit proposals with high severity conflicts unless forced.
	BlockOnHighSeverity bool
	DefaultRateLimit    int
}

// plannerFor returns the configured planner, or one for the week length a request asked for
func (h *Handler) plannerFor(days int) (*planner.Planner, error) {
	if days == 0 || days == h.Planner.Week().Len() {
		return h.Planner, nil
	}
	week, err := models.WeekOf(days)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_request", err)
	}
	return planner.NewPlanner(week), nil
}

// planError maps core validation errors to 422 and leaves everything else as is
func planError(err error) error {
	switch {
	case errors.Is(err, planner.ErrInvalidAssignment):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_assignment", err)
	case errors.Is(err, planner.ErrInvalidProfile):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_profile", err)
	default:
		return err
	}
}

func isPlanError(err error) bool {
	return errors.Is(err, planner.ErrInvalidAssignment) || errors.Is(err, planner.ErrInvalidProfile)
}

func badRequest(err error) error {
	return apierr.New(http.StatusBadRequest, "invalid_request", err)
}

// recordUsage records a planner request against the calling key; failures are only logged
func (h *Handler) recordUsage(c *gin.Context, d database.UsageDelta) {
	apiKey, ok := currentKey(c)
	if !ok {
		return
	}
	if err := database.RecordUsage(c.Request.Context(), h.DB, apiKey.ID, d); err != nil {
		h.Log.Warn("Failed to record usage", "key_id", apiKey.ID, "error", err)
	}
}

// Root returns the service banner
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Allocation Conflict API",
		"version":   "3.0.0",
		"week_days": h.Planner.Week().Len(),
	})
}
