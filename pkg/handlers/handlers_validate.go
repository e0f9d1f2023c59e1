package handlers

import (
	"net/http"

	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks an analysis body without evaluating conflicts.
// It accepts exactly the bodies the analyze endpoint accepts.
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AnalyzeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	p, err := h.plannerFor(input.WeekDays)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	profiles, err := planner.ProfileIndex(input.Profiles)
	if err == nil {
		_, err = p.Evaluate(nil, profiles, nil)
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	allocations, err := p.Aggregate(input.Existing, input.Proposed)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"assignment_count": len(input.Existing) + len(input.Proposed),
			"member_count":     len(allocations),
			"profile_count":    len(profiles),
			"week_days":        p.Week().Len(),
		},
	})
}
