package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/allocation-api-go/pkg/apierr"
	"github.com/arnavshah/allocation-api-go/pkg/database"
	"github.com/gin-gonic/gin"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := currentKey(c)
	if !ok {
		apierr.Respond(c, apierr.New(http.StatusInternalServerError, "internal", errors.New("API key context missing")))
		return
	}

	usage, err := database.RecentUsage(c.Request.Context(), h.DB, apiKey.ID)
	if err != nil {
		h.Log.Error("Could not fetch usage details", "key_id", apiKey.ID, "error", err)
		apierr.Respond(c, err)
		return
	}

	today, err := database.RequestsToday(c.Request.Context(), h.DB, apiKey.ID)
	if err != nil {
		h.Log.Error("Could not fetch today's requests", "key_id", apiKey.ID, "error", err)
		apierr.Respond(c, err)
		return
	}

	// Calculate totals
	var totalRequests, totalAssignments, totalMembers, totalConflicts int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalAssignments += int64(u.TotalAssignments)
		totalMembers += int64(u.TotalMembers)
		totalConflicts += int64(u.TotalConflicts)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":       apiKey.Name,
		"rate_limit":     apiKey.RateLimit,
		"requests_today": today,
		"usage_history":  usage,
		"totals": gin.H{
			"requests":    totalRequests,
			"assignments": totalAssignments,
			"members":     totalMembers,
			"conflicts":   totalConflicts,
		},
	})
}
