package planner

import (
	"errors"
	"fmt"

	"github.com/arnavshah/allocation-api-go/pkg/models"
)

var (
	// ErrInvalidAssignment means an input assignment has malformed hours or day.
	ErrInvalidAssignment = errors.New("invalid assignment")
	// ErrInvalidProfile means a member profile carries a non-sensical constraint.
	ErrInvalidProfile = errors.New("invalid profile")
)

// AssignmentError pinpoints the record that aborted an aggregation
type AssignmentError struct {
	List     string // "existing" or "proposed"
	Index    int
	TaskID   string
	MemberID models.MemberID
	Reason   string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("%s: %s[%d] task %q member %q: %s",
		ErrInvalidAssignment, e.List, e.Index, e.TaskID, e.MemberID, e.Reason)
}

func (e *AssignmentError) Unwrap() error { return ErrInvalidAssignment }

// ProfileError pinpoints the member profile that aborted an evaluation
type ProfileError struct {
	MemberID models.MemberID
	Reason   string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%s: member %q: %s", ErrInvalidProfile, e.MemberID, e.Reason)
}

func (e *ProfileError) Unwrap() error { return ErrInvalidProfile }
