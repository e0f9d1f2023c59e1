package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamMember represents the team_members table: a member's capacity profile
type TeamMember struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	Name            string         `json:"name"`
	MaxHoursPerDay  float64        `gorm:"not null" json:"max_hours_per_day"`
	MaxHoursPerWeek float64        `gorm:"not null" json:"max_hours_per_week"`
	UnavailableDays datatypes.JSON `json:"unavailable_days"` // []string
	Skills          datatypes.JSON `json:"skills"`           // []string
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TaskAssignment represents the task_assignments table: hours committed for a planning week
type TaskAssignment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WeekStart      string         `gorm:"index:idx_week_member;not null" json:"week_start"`
	MemberID       string         `gorm:"index:idx_week_member;not null" json:"member_id"`
	TaskID         string         `gorm:"not null" json:"task_id"`
	Day            string         `gorm:"not null" json:"day"`
	Hours          float64        `gorm:"not null" json:"hours"`
	RequiredSkills datatypes.JSON `json:"required_skills"` // []string
	CreatedAt      time.Time      `json:"created_at"`
}

func (a *TaskAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Profile converts the row into the planner's profile type
func (m TeamMember) Profile() (models.MemberProfile, error) {
	prof := models.MemberProfile{
		MemberID:        models.MemberID(m.ID),
		Name:            m.Name,
		MaxHoursPerDay:  m.MaxHoursPerDay,
		MaxHoursPerWeek: m.MaxHoursPerWeek,
	}
	if err := decodeJSON(m.UnavailableDays, &prof.UnavailableDays); err != nil {
		return prof, fmt.Errorf("member %s unavailable days: %w", m.ID, err)
	}
	if err := decodeJSON(m.Skills, &prof.Skills); err != nil {
		return prof, fmt.Errorf("member %s skills: %w", m.ID, err)
	}
	return prof, nil
}

// Assignment converts the row into the planner's assignment type
func (a TaskAssignment) Assignment() (models.Assignment, error) {
	out := models.Assignment{
		TaskID:   a.TaskID,
		MemberID: models.MemberID(a.MemberID),
		Day:      models.Weekday(a.Day),
		Hours:    a.Hours,
	}
	if err := decodeJSON(a.RequiredSkills, &out.RequiredSkills); err != nil {
		return out, fmt.Errorf("assignment %s required skills: %w", a.ID, err)
	}
	return out, nil
}

// PlanStore loads and saves the data the planner is evaluated against
type PlanStore struct {
	DB *gorm.DB

	commitMu sync.Mutex
}

func NewPlanStore(db *gorm.DB) *PlanStore {
	return &PlanStore{DB: db}
}

// Profiles returns the profiles of the given members, or of every member when ids is empty
func (s *PlanStore) Profiles(ctx context.Context, ids []models.MemberID) (map[models.MemberID]models.MemberProfile, error) {
	q := s.DB.WithContext(ctx)
	if len(ids) > 0 {
		raw := make([]string, 0, len(ids))
		for _, id := range ids {
			raw = append(raw, string(id))
		}
		q = q.Where("id IN ?", raw)
	}
	var rows []TeamMember
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load team members: %w", err)
	}
	out := make(map[models.MemberID]models.MemberProfile, len(rows))
	for _, row := range rows {
		prof, err := row.Profile()
		if err != nil {
			return nil, err
		}
		out[prof.MemberID] = prof
	}
	return out, nil
}

// WeekAssignments returns the committed assignments of a planning week
func (s *PlanStore) WeekAssignments(ctx context.Context, weekStart string) ([]models.Assignment, error) {
	rows, err := s.WeekRows(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	out := make([]models.Assignment, 0, len(rows))
	for _, row := range rows {
		a, err := row.Assignment()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// WeekRows returns the raw rows of a planning week, oldest first
func (s *PlanStore) WeekRows(ctx context.Context, weekStart string) ([]TaskAssignment, error) {
	var rows []TaskAssignment
	if err := s.DB.WithContext(ctx).Where("week_start = ?", weekStart).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load week %s: %w", weekStart, err)
	}
	return rows, nil
}

// CommitDecision inspects the stored week and the profiles and reports whether to persist the proposal
type CommitDecision func(existing []models.Assignment, profiles map[models.MemberID]models.MemberProfile) (bool, error)

// CommitWeek loads a week, asks decide whether to commit and saves proposed,
// all inside one transaction. Commits are serialized per process and, on
// postgres, per week across processes with an advisory lock, so two commits
// never both pass decide against the same state.
func (s *PlanStore) CommitWeek(ctx context.Context, weekStart string, proposed []models.Assignment, decide CommitDecision) (bool, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	committed := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "week:"+weekStart).Error; err != nil {
				return fmt.Errorf("lock week %s: %w", weekStart, err)
			}
		}

		locked := &PlanStore{DB: tx}
		existing, err := locked.WeekAssignments(ctx, weekStart)
		if err != nil {
			return err
		}
		profiles, err := locked.Profiles(ctx, nil)
		if err != nil {
			return err
		}

		ok, err := decide(existing, profiles)
		if err != nil || !ok {
			return err
		}
		if _, err := insertAssignments(tx, weekStart, proposed); err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return committed, nil
}

func insertAssignments(tx *gorm.DB, weekStart string, assignments []models.Assignment) ([]TaskAssignment, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	rows := make([]TaskAssignment, 0, len(assignments))
	for _, a := range assignments {
		skills, err := encodeJSON(a.RequiredSkills)
		if err != nil {
			return nil, err
		}
		rows = append(rows, TaskAssignment{
			WeekStart:      weekStart,
			MemberID:       string(a.MemberID),
			TaskID:         a.TaskID,
			Day:            string(a.Day),
			Hours:          a.Hours,
			RequiredSkills: skills,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("save assignments for week %s: %w", weekStart, err)
	}
	return rows, nil
}

// UpsertMember creates or replaces a member's profile
func (s *PlanStore) UpsertMember(ctx context.Context, prof models.MemberProfile) (*TeamMember, error) {
	days, err := encodeJSON(prof.UnavailableDays)
	if err != nil {
		return nil, err
	}
	skills, err := encodeJSON(prof.Skills)
	if err != nil {
		return nil, err
	}
	row := TeamMember{
		ID:              string(prof.MemberID),
		Name:            prof.Name,
		MaxHoursPerDay:  prof.MaxHoursPerDay,
		MaxHoursPerWeek: prof.MaxHoursPerWeek,
		UnavailableDays: days,
		Skills:          skills,
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "max_hours_per_day", "max_hours_per_week", "unavailable_days", "skills", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert member %s: %w", prof.MemberID, err)
	}
	return &row, nil
}

// ListMembers returns all members ordered by id
func (s *PlanStore) ListMembers(ctx context.Context) ([]TeamMember, error) {
	var rows []TeamMember
	if err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return rows, nil
}

// DeleteMember removes a member's profile; it reports whether a row existed
func (s *PlanStore) DeleteMember(ctx context.Context, id string) (bool, error) {
	res := s.DB.WithContext(ctx).Delete(&TeamMember{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("delete member %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func encodeJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeJSON(raw datatypes.JSON, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
