package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of the planning week
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var allWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday accepts a weekday name in any case
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// Valid reports whether d is one of the seven weekdays
func (d Weekday) Valid() bool {
	for _, w := range allWeekdays {
		if d == w {
			return true
		}
	}
	return false
}

func (d *Weekday) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("weekday must be a string: %w", err)
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Week is the ordered set of days a planning call covers.
// Callers pick a five or seven day week before invoking the planner.
type Week struct {
	days []Weekday
}

var (
	WorkWeek = Week{days: allWeekdays[:5]}
	FullWeek = Week{days: allWeekdays}
)

// WeekOf returns the five or seven day week
func WeekOf(n int) (Week, error) {
	switch n {
	case 5:
		return WorkWeek, nil
	case 7:
		return FullWeek, nil
	default:
		return Week{}, fmt.Errorf("planning week must have 5 or 7 days, got %d", n)
	}
}

// Days returns the week's days in calendar order
func (w Week) Days() []Weekday {
	return append([]Weekday(nil), w.days...)
}

// Len is the number of days in the week
func (w Week) Len() int { return len(w.days) }

// Contains reports whether d is part of the week
func (w Week) Contains(d Weekday) bool {
	for _, day := range w.days {
		if day == d {
			return true
		}
	}
	return false
}

// ParseWeekStart parses a YYYY-MM-DD date and returns the Monday of its week
func ParseWeekStart(date string) (string, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("week must be a YYYY-MM-DD date: %w", err)
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format("2006-01-02"), nil
}
