package planner

import (
	"math"
	"sort"

	"github.com/arnavshah/allocation-api-go/pkg/models"
)

const maxHoursPerAssignment = 24

// Aggregate sums hours per member and day over existing and proposed
// assignments. Every record is validated before anything is summed, so a
// single bad record rejects the whole batch.
func (p *Planner) Aggregate(existing, proposed []models.Assignment) (map[models.MemberID]models.MemberAllocation, error) {
	if err := p.validateAssignments("existing", existing); err != nil {
		return nil, err
	}
	if err := p.validateAssignments("proposed", proposed); err != nil {
		return nil, err
	}

	// Collect hours per member and day first; summing them in sorted order
	// makes the totals independent of input order down to the last bit.
	hours := make(map[models.MemberID]map[models.Weekday][]float64)
	collect := func(list []models.Assignment) {
		for _, a := range list {
			days, ok := hours[a.MemberID]
			if !ok {
				days = make(map[models.Weekday][]float64)
				hours[a.MemberID] = days
			}
			days[a.Day] = append(days[a.Day], a.Hours)
		}
	}
	collect(existing)
	collect(proposed)

	out := make(map[models.MemberID]models.MemberAllocation, len(hours))
	for id, days := range hours {
		alloc := models.MemberAllocation{
			MemberID:    id,
			PerDayHours: make(map[models.Weekday]float64, p.week.Len()),
		}
		for _, day := range p.week.Days() {
			vals := days[day]
			sort.Float64s(vals)
			var sum float64
			for _, v := range vals {
				sum += v
			}
			alloc.PerDayHours[day] = sum
			alloc.TotalHours += sum
		}
		out[id] = alloc
	}
	return out, nil
}

func (p *Planner) validateAssignments(list string, assignments []models.Assignment) error {
	for i, a := range assignments {
		reason := ""
		switch {
		case a.MemberID == "":
			reason = "member id is required"
		case math.IsNaN(a.Hours) || math.IsInf(a.Hours, 0):
			reason = "hours must be a finite number"
		case a.Hours <= 0:
			reason = "hours must be positive"
		case a.Hours > maxHoursPerAssignment:
			reason = "hours must not exceed 24"
		case !a.Day.Valid():
			reason = "unknown weekday " + string(a.Day)
		case !p.week.Contains(a.Day):
			reason = string(a.Day) + " is outside the planning week"
		}
		if reason != "" {
			return &AssignmentError{
				List:     list,
				Index:    i,
				TaskID:   a.TaskID,
				MemberID: a.MemberID,
				Reason:   reason,
			}
		}
	}
	return nil
}
