package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/allocation-api-go/pkg/apierr"
	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/gin-gonic/gin"
)

// memberInput is a profile body; the member id comes from the path
type memberInput struct {
	Name            string           `json:"name"`
	MaxHoursPerDay  float64          `json:"max_hours_per_day" binding:"required"`
	MaxHoursPerWeek float64          `json:"max_hours_per_week" binding:"required"`
	UnavailableDays []models.Weekday `json:"unavailable_days"`
	Skills          []string         `json:"skills"`
}

// ListMembers returns every team member profile
func (h *Handler) ListMembers(c *gin.Context) {
	rows, err := h.Store.ListMembers(c.Request.Context())
	if err != nil {
		h.Log.Error("Failed to list members", "error", err)
		apierr.Respond(c, err)
		return
	}

	members := make([]models.MemberProfile, 0, len(rows))
	for _, row := range rows {
		prof, err := row.Profile()
		if err != nil {
			h.Log.Error("Stored member profile is corrupt", "member_id", row.ID, "error", err)
			apierr.Respond(c, err)
			return
		}
		members = append(members, prof)
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// PutMember creates or replaces a member profile after checking it with the evaluator's rules
func (h *Handler) PutMember(c *gin.Context) {
	var in memberInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	prof := models.MemberProfile{
		MemberID:        models.MemberID(c.Param("id")),
		Name:            in.Name,
		MaxHoursPerDay:  in.MaxHoursPerDay,
		MaxHoursPerWeek: in.MaxHoursPerWeek,
		UnavailableDays: in.UnavailableDays,
		Skills:          in.Skills,
	}
	if err := planner.ValidateProfile(prof); err != nil {
		apierr.Respond(c, planError(err))
		return
	}

	if _, err := h.Store.UpsertMember(c.Request.Context(), prof); err != nil {
		h.Log.Error("Failed to save member", "member_id", prof.MemberID, "error", err)
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": prof})
}

// DeleteMember removes a member profile
func (h *Handler) DeleteMember(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.Store.DeleteMember(c.Request.Context(), id)
	if err != nil {
		h.Log.Error("Failed to delete member", "member_id", id, "error", err)
		apierr.Respond(c, err)
		return
	}
	if !deleted {
		apierr.Respond(c, apierr.New(http.StatusNotFound, "not_found", errors.New("member "+id+" not found")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member deleted"})
}
