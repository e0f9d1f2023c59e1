package planner

import (
	"sort"

	"github.com/arnavshah/allocation-api-go/pkg/models"
)

// Planner validates weekly assignment plans against member constraints.
// It holds only the agreed planning week and is safe for concurrent use.
type Planner struct {
	week models.Week
}

// NewPlanner creates a planner for the given planning week
func NewPlanner(week models.Week) *Planner {
	if week.Len() == 0 {
		week = models.WorkWeek
	}
	return &Planner{week: week}
}

// Week returns the planning week the planner was built for
func (p *Planner) Week() models.Week { return p.week }

// Analysis is a ConflictReport plus the members that had hours but no profile
type Analysis struct {
	Report            models.ConflictReport
	Allocations       map[models.MemberID]models.MemberAllocation
	UnprofiledMembers []models.MemberID
}

// Analyze aggregates existing and proposed assignments and evaluates them
func (p *Planner) Analyze(existing, proposed []models.Assignment, profiles map[models.MemberID]models.MemberProfile) (Analysis, error) {
	allocations, err := p.Aggregate(existing, proposed)
	if err != nil {
		return Analysis{}, err
	}
	report, err := p.Evaluate(allocations, profiles, proposed)
	if err != nil {
		return Analysis{}, err
	}

	var unprofiled []models.MemberID
	for id := range allocations {
		if _, ok := profiles[id]; !ok {
			unprofiled = append(unprofiled, id)
		}
	}
	sortMembers(unprofiled)

	return Analysis{
		Report:            report,
		Allocations:       allocations,
		UnprofiledMembers: unprofiled,
	}, nil
}

// ProfileIndex keys a list of profiles by member id, rejecting duplicates
func ProfileIndex(profiles []models.MemberProfile) (map[models.MemberID]models.MemberProfile, error) {
	out := make(map[models.MemberID]models.MemberProfile, len(profiles))
	for _, prof := range profiles {
		if _, dup := out[prof.MemberID]; dup {
			return nil, &ProfileError{MemberID: prof.MemberID, Reason: "duplicate profile"}
		}
		out[prof.MemberID] = prof
	}
	return out, nil
}

func sortMembers(ids []models.MemberID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
