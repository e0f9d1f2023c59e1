package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/arnavshah/allocation-api-go/pkg/models"
)

// Evaluate checks every profiled member against its constraints.
//
// Conflicts are emitted category by category in a fixed order: weekly
// overallocation, daily overallocation, unavailable-day assignment, skill
// mismatch. Within a category members come in ascending id order, days in
// week order and skill mismatches in proposed order. Members without a
// profile are skipped.
func (p *Planner) Evaluate(allocations map[models.MemberID]models.MemberAllocation, profiles map[models.MemberID]models.MemberProfile, proposed []models.Assignment) (models.ConflictReport, error) {
	if err := validateProfiles(profiles); err != nil {
		return models.ConflictReport{}, err
	}

	members := make([]models.MemberID, 0, len(profiles))
	for id := range profiles {
		members = append(members, id)
	}
	sortMembers(members)

	allocOf := func(id models.MemberID) models.MemberAllocation {
		if a, ok := allocations[id]; ok {
			return a
		}
		return models.MemberAllocation{MemberID: id}
	}

	conflicts := []models.Conflict{}
	for _, check := range []func(models.MemberAllocation, models.MemberProfile) []models.Conflict{
		p.checkWeekly,
		p.checkDaily,
		p.checkUnavailable,
	} {
		for _, id := range members {
			conflicts = append(conflicts, check(allocOf(id), profiles[id])...)
		}
	}
	for _, id := range members {
		conflicts = append(conflicts, checkSkills(profiles[id], proposed)...)
	}

	summary := summarize(conflicts)
	report := models.ConflictReport{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
		Summary:      summary,
		Utilization:  make([]models.MemberUtilization, 0, len(members)),
	}
	for _, id := range members {
		report.Utilization = append(report.Utilization, p.utilization(allocOf(id), profiles[id]))
	}
	report.Suggestions = suggest(conflicts, summary)
	return report, nil
}

func (p *Planner) checkWeekly(alloc models.MemberAllocation, prof models.MemberProfile) []models.Conflict {
	if alloc.TotalHours <= prof.MaxHoursPerWeek {
		return nil
	}
	over := alloc.TotalHours - prof.MaxHoursPerWeek
	return []models.Conflict{{
		Type:     models.WeeklyOverallocation,
		MemberID: prof.MemberID,
		Severity: models.SeverityHigh,
		Hours:    over,
		Limit:    prof.MaxHoursPerWeek,
		Message: fmt.Sprintf("%s is allocated %s hours this week, %s over the %s hour limit",
			displayName(prof), fmtHours(alloc.TotalHours), fmtHours(over), fmtHours(prof.MaxHoursPerWeek)),
	}}
}

func (p *Planner) checkDaily(alloc models.MemberAllocation, prof models.MemberProfile) []models.Conflict {
	var out []models.Conflict
	for _, day := range p.week.Days() {
		h := alloc.PerDayHours[day]
		if h <= prof.MaxHoursPerDay {
			continue
		}
		over := h - prof.MaxHoursPerDay
		out = append(out, models.Conflict{
			Type:     models.DailyOverallocation,
			MemberID: prof.MemberID,
			Severity: models.SeverityMedium,
			Day:      day,
			Hours:    over,
			Limit:    prof.MaxHoursPerDay,
			Message: fmt.Sprintf("%s is allocated %s hours on %s, %s over the %s hour daily limit",
				displayName(prof), fmtHours(h), day, fmtHours(over), fmtHours(prof.MaxHoursPerDay)),
		})
	}
	return out
}

func (p *Planner) checkUnavailable(alloc models.MemberAllocation, prof models.MemberProfile) []models.Conflict {
	var out []models.Conflict
	for _, day := range p.week.Days() {
		h := alloc.PerDayHours[day]
		if h <= 0 || !isUnavailable(prof, day) {
			continue
		}
		out = append(out, models.Conflict{
			Type:     models.UnavailableDayAssignment,
			MemberID: prof.MemberID,
			Severity: models.SeverityHigh,
			Day:      day,
			Hours:    h,
			Message: fmt.Sprintf("%s is unavailable on %s but has %s hours assigned",
				displayName(prof), day, fmtHours(h)),
		})
	}
	return out
}

// checkSkills only looks at proposed work; existing commitments were
// accepted already.
func checkSkills(prof models.MemberProfile, proposed []models.Assignment) []models.Conflict {
	has := make(map[string]bool, len(prof.Skills))
	for _, s := range prof.Skills {
		has[skillKey(s)] = true
	}

	var out []models.Conflict
	for _, a := range proposed {
		if a.MemberID != prof.MemberID || len(a.RequiredSkills) == 0 {
			continue
		}
		seen := make(map[string]bool)
		var missing []string
		for _, s := range a.RequiredSkills {
			k := skillKey(s)
			if k == "" || has[k] || seen[k] {
				continue
			}
			seen[k] = true
			missing = append(missing, strings.TrimSpace(s))
		}
		if len(missing) == 0 {
			continue
		}
		sort.Strings(missing)
		out = append(out, models.Conflict{
			Type:          models.SkillMismatch,
			MemberID:      prof.MemberID,
			Severity:      models.SeverityLow,
			Day:           a.Day,
			TaskID:        a.TaskID,
			MissingSkills: missing,
			Message: fmt.Sprintf("%s lacks %s required by task %s",
				displayName(prof), strings.Join(missing, ", "), a.TaskID),
		})
	}
	return out
}

// maxUtilization caps the reported percentage
const maxUtilization = math.MaxInt32

func (p *Planner) utilization(alloc models.MemberAllocation, prof models.MemberProfile) models.MemberUtilization {
	daily := make(map[models.Weekday]float64, p.week.Len())
	for _, day := range p.week.Days() {
		daily[day] = alloc.PerDayHours[day]
	}
	// A tiny weekly cap makes the ratio huge or infinite; decide on the float
	// and clamp before converting.
	rounded := math.Round(alloc.TotalHours / prof.MaxHoursPerWeek * 100)
	pct := maxUtilization
	if rounded < maxUtilization {
		pct = int(rounded)
	}
	return models.MemberUtilization{
		MemberID:              prof.MemberID,
		TotalHours:            alloc.TotalHours,
		MaxHoursPerWeek:       prof.MaxHoursPerWeek,
		UtilizationPercentage: pct,
		IsOverallocated:       rounded > 100,
		DailyHours:            daily,
	}
}

func validateProfiles(profiles map[models.MemberID]models.MemberProfile) error {
	for id, prof := range profiles {
		reason := ""
		switch {
		case prof.MemberID != id:
			reason = fmt.Sprintf("profile keyed as %q", id)
		case math.IsNaN(prof.MaxHoursPerDay) || prof.MaxHoursPerDay <= 0:
			reason = "max hours per day must be positive"
		case math.IsNaN(prof.MaxHoursPerWeek) || prof.MaxHoursPerWeek <= 0:
			reason = "max hours per week must be positive"
		}
		if reason == "" {
			for _, d := range prof.UnavailableDays {
				if !d.Valid() {
					reason = "unknown unavailable weekday " + string(d)
					break
				}
			}
		}
		if reason != "" {
			return &ProfileError{MemberID: prof.MemberID, Reason: reason}
		}
	}
	return nil
}

// ValidateProfile applies the evaluator's profile rules to a single profile
func ValidateProfile(prof models.MemberProfile) error {
	return validateProfiles(map[models.MemberID]models.MemberProfile{prof.MemberID: prof})
}

func isUnavailable(prof models.MemberProfile, day models.Weekday) bool {
	for _, d := range prof.UnavailableDays {
		if d == day {
			return true
		}
	}
	return false
}

func skillKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func displayName(prof models.MemberProfile) string {
	if prof.Name != "" {
		return prof.Name
	}
	return string(prof.MemberID)
}

func fmtHours(h float64) string {
	return fmt.Sprintf("%g", math.Round(h*100)/100)
}
