package handlers

import (
	"net/http"

	"github.com/arnavshah/allocation-api-go/pkg/apierr"
	"github.com/arnavshah/allocation-api-go/pkg/database"
	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Analyze evaluates a plan supplied entirely in the request body
func (h *Handler) Analyze(c *gin.Context) {
	var input models.AnalyzeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	p, err := h.plannerFor(input.WeekDays)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	profiles, err := planner.ProfileIndex(input.Profiles)
	if err != nil {
		apierr.Respond(c, planError(err))
		return
	}

	analysis, err := p.Analyze(input.Existing, input.Proposed, profiles)
	if err != nil {
		apierr.Respond(c, planError(err))
		return
	}
	h.logUnprofiled(c, analysis)

	h.recordUsage(c, usageOf(len(input.Existing)+len(input.Proposed), analysis))
	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Report:            analysis.Report,
		UnprofiledMembers: analysis.UnprofiledMembers,
	})
}

// WeekConflicts evaluates the assignments already stored for a week
func (h *Handler) WeekConflicts(c *gin.Context) {
	week, err := models.ParseWeekStart(c.Param("week"))
	if err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	existing, profiles, err := h.loadWeek(c, week)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	analysis, err := h.Planner.Analyze(existing, nil, profiles)
	if err != nil {
		apierr.Respond(c, planError(err))
		return
	}
	h.logUnprofiled(c, analysis)

	h.recordUsage(c, usageOf(len(existing), analysis))
	c.JSON(http.StatusOK, models.AnalyzeResponse{
		WeekStart:         week,
		Report:            analysis.Report,
		UnprofiledMembers: analysis.UnprofiledMembers,
	})
}

// ListWeekAssignments returns the stored assignments of a week
func (h *Handler) ListWeekAssignments(c *gin.Context) {
	week, err := models.ParseWeekStart(c.Param("week"))
	if err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}
	rows, err := h.Store.WeekRows(c.Request.Context(), week)
	if err != nil {
		h.Log.Error("Failed to list week assignments", "week_start", week, "error", err)
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"week_start": week, "assignments": rows})
}

// CommitAssignments analyzes proposed assignments against the stored week and
// persists them unless policy blocks a plan with high severity conflicts.
// Loading, analysis and saving share one store transaction.
func (h *Handler) CommitAssignments(c *gin.Context) {
	week, err := models.ParseWeekStart(c.Param("week"))
	if err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}
	var input models.CommitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apierr.Respond(c, badRequest(err))
		return
	}

	var (
		analysis planner.Analysis
		existing int
	)
	committed, err := h.Store.CommitWeek(c.Request.Context(), week, input.Proposed,
		func(stored []models.Assignment, profiles map[models.MemberID]models.MemberProfile) (bool, error) {
			var err error
			analysis, err = h.Planner.Analyze(stored, input.Proposed, profiles)
			if err != nil {
				return false, err
			}
			existing = len(stored)
			blocked := h.BlockOnHighSeverity && analysis.Report.Summary.High > 0 && !input.Force
			return !blocked, nil
		})
	if err != nil {
		if !isPlanError(err) {
			h.Log.Error("Failed to commit assignments", "week_start", week, "error", err)
		}
		apierr.Respond(c, planError(err))
		return
	}
	h.logUnprofiled(c, analysis)
	h.recordUsage(c, usageOf(existing+len(input.Proposed), analysis))

	resp := models.AnalyzeResponse{
		WeekStart:         week,
		Report:            analysis.Report,
		UnprofiledMembers: analysis.UnprofiledMembers,
		Committed:         committed,
	}
	if !committed {
		c.JSON(http.StatusConflict, resp)
		return
	}
	h.Log.Info("Assignments committed",
		"week_start", week,
		"assignments", len(input.Proposed),
		"conflicts", analysis.Report.Summary.Total,
		"forced", input.Force && analysis.Report.Summary.High > 0,
	)
	c.JSON(http.StatusCreated, resp)
}

// loadWeek fetches a week's stored assignments and every member profile concurrently
func (h *Handler) loadWeek(c *gin.Context, week string) ([]models.Assignment, map[models.MemberID]models.MemberProfile, error) {
	var (
		existing []models.Assignment
		profiles map[models.MemberID]models.MemberProfile
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		existing, err = h.Store.WeekAssignments(ctx, week)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = h.Store.Profiles(ctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		h.Log.Error("Failed to load planning week", "week_start", week, "error", err)
		return nil, nil, err
	}
	return existing, profiles, nil
}

func (h *Handler) logUnprofiled(c *gin.Context, a planner.Analysis) {
	if len(a.UnprofiledMembers) == 0 {
		return
	}
	h.Log.Warn("Assignments reference members without a profile",
		"request_id", c.GetString("requestID"),
		"members", a.UnprofiledMembers,
	)
}

func usageOf(assignments int, a planner.Analysis) database.UsageDelta {
	return database.UsageDelta{
		Assignments: assignments,
		Members:     len(a.Report.Utilization),
		Conflicts:   a.Report.Summary.Total,
	}
}
