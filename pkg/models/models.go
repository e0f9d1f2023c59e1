package models

// MemberID identifies a team member across assignments and profiles
type MemberID string

// Severity ranks how urgently a conflict needs attention
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ConflictType tags the category of a detected conflict
type ConflictType string

const (
	WeeklyOverallocation     ConflictType = "weekly_overallocation"
	DailyOverallocation      ConflictType = "daily_overallocation"
	UnavailableDayAssignment ConflictType = "unavailable_day_assignment"
	SkillMismatch            ConflictType = "skill_mismatch"
)

// Assignment is a commitment of a member's hours to a task on one day of the planning week
type Assignment struct {
	TaskID         string   `json:"task_id" binding:"required"`
	MemberID       MemberID `json:"member_id" binding:"required"`
	Day            Weekday  `json:"day" binding:"required"`
	Hours          float64  `json:"hours" binding:"gt=0,lte=24"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

// MemberProfile holds a member's capacity and competency constraints for the week
type MemberProfile struct {
	MemberID        MemberID  `json:"member_id" binding:"required"`
	Name            string    `json:"name,omitempty"`
	MaxHoursPerDay  float64   `json:"max_hours_per_day"`
	MaxHoursPerWeek float64   `json:"max_hours_per_week"`
	UnavailableDays []Weekday `json:"unavailable_days,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
}

// MemberAllocation is the per-day and weekly hour total of one member
type MemberAllocation struct {
	MemberID    MemberID            `json:"member_id"`
	PerDayHours map[Weekday]float64 `json:"per_day_hours"`
	TotalHours  float64             `json:"total_hours"`
}

// Conflict is a violated capacity, availability or skill constraint.
// Hours carries the overage for overallocation and the assigned hours for
// unavailable days; MissingSkills is only set for skill mismatches.
type Conflict struct {
	Type          ConflictType `json:"type"`
	MemberID      MemberID     `json:"member_id"`
	Severity      Severity     `json:"severity"`
	Day           Weekday      `json:"day,omitempty"`
	TaskID        string       `json:"task_id,omitempty"`
	Hours         float64      `json:"hours,omitempty"`
	Limit         float64      `json:"limit,omitempty"`
	MissingSkills []string     `json:"missing_skills,omitempty"`
	Message       string       `json:"message"`
}

// ConflictSummary counts conflicts by severity
type ConflictSummary struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// MemberUtilization reports how much of a member's weekly capacity is consumed
type MemberUtilization struct {
	MemberID              MemberID            `json:"member_id"`
	TotalHours            float64             `json:"total_hours"`
	MaxHoursPerWeek       float64             `json:"max_hours_per_week"`
	UtilizationPercentage int                 `json:"utilization_percentage"`
	IsOverallocated       bool                `json:"is_overallocated"`
	DailyHours            map[Weekday]float64 `json:"daily_hours"`
}

// SuggestionType names an advisory remediation
type SuggestionType string

const (
	SuggestRedistribute SuggestionType = "redistribute_hours"
	SuggestTraining     SuggestionType = "training_or_pairing"
	SuggestNoConflicts  SuggestionType = "no_conflicts"
)

// Suggestion is advisory output; nothing is resolved automatically
type Suggestion struct {
	Type     SuggestionType `json:"type"`
	Priority string         `json:"priority"`
	Message  string         `json:"message"`
	Members  []MemberID     `json:"members,omitempty"`
}

// ConflictReport is the full result of evaluating a weekly plan
type ConflictReport struct {
	HasConflicts bool                `json:"has_conflicts"`
	Conflicts    []Conflict          `json:"conflicts"`
	Summary      ConflictSummary     `json:"summary"`
	Utilization  []MemberUtilization `json:"utilization"`
	Suggestions  []Suggestion        `json:"suggestions"`
}

// AnalyzeInput is the body of the stateless analysis endpoint
type AnalyzeInput struct {
	WeekDays int             `json:"week_days,omitempty" binding:"omitempty,oneof=5 7"`
	Existing []Assignment    `json:"existing" binding:"dive"`
	Proposed []Assignment    `json:"proposed" binding:"dive"`
	Profiles []MemberProfile `json:"profiles" binding:"dive"`
}

// CommitInput is the body for proposing assignments against a stored week
type CommitInput struct {
	Proposed []Assignment `json:"proposed" binding:"required,min=1,dive"`
	Force    bool         `json:"force"`
}

// AnalyzeResponse is the data structure returned by analysis endpoints
type AnalyzeResponse struct {
	WeekStart         string         `json:"week_start,omitempty"`
	Report            ConflictReport `json:"report"`
	UnprofiledMembers []MemberID     `json:"unprofiled_members,omitempty"`
	Committed         bool           `json:"committed"`
}
