package planner

import "github.com/arnavshah/allocation-api-go/pkg/models"

func summarize(conflicts []models.Conflict) models.ConflictSummary {
	var s models.ConflictSummary
	for _, c := range conflicts {
		switch c.Severity {
		case models.SeverityHigh:
			s.High++
		case models.SeverityMedium:
			s.Medium++
		case models.SeverityLow:
			s.Low++
		}
	}
	s.Total = len(conflicts)
	return s
}

// suggest applies independent rules; any combination may fire.
func suggest(conflicts []models.Conflict, summary models.ConflictSummary) []models.Suggestion {
	out := []models.Suggestion{}

	if summary.High > 0 {
		out = append(out, models.Suggestion{
			Type:     models.SuggestRedistribute,
			Priority: "high",
			Message:  "Redistribute hours away from overallocated or unavailable members",
			Members:  membersWhere(conflicts, func(c models.Conflict) bool { return c.Severity == models.SeverityHigh }),
		})
	}

	skillGaps := membersWhere(conflicts, func(c models.Conflict) bool { return c.Type == models.SkillMismatch })
	if len(skillGaps) > 0 {
		out = append(out, models.Suggestion{
			Type:     models.SuggestTraining,
			Priority: "medium",
			Message:  "Arrange training or pair members with a colleague who has the missing skills",
			Members:  skillGaps,
		})
	}

	if len(conflicts) == 0 {
		out = append(out, models.Suggestion{
			Type:     models.SuggestNoConflicts,
			Priority: "info",
			Message:  "No conflicts detected, the plan fits every member's constraints",
		})
	}
	return out
}

func membersWhere(conflicts []models.Conflict, match func(models.Conflict) bool) []models.MemberID {
	seen := make(map[models.MemberID]bool)
	var out []models.MemberID
	for _, c := range conflicts {
		if match(c) && !seen[c.MemberID] {
			seen[c.MemberID] = true
			out = append(out, c.MemberID)
		}
	}
	sortMembers(out)
	return out
}
