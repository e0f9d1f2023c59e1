package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/fatih/color"
)

var (
	// fatih/color disables itself when output is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func formatJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format JSON: %w", err)
	}
	return string(b), nil
}

func severityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityHigh:
		return errorColor
	case models.SeverityMedium:
		return warningColor
	default:
		return infoColor
	}
}

func printReport(w io.Writer, a planner.Analysis) {
	r := a.Report

	_, _ = headerColor.Fprintf(w, "▸ Conflicts\n")
	if !r.HasConflicts {
		_, _ = successColor.Fprintf(w, "  ✓ none\n")
	}
	for _, c := range r.Conflicts {
		_, _ = severityColor(c.Severity).Fprintf(w, "  %-6s ", strings.ToUpper(string(c.Severity)))
		fmt.Fprintf(w, "%s\n", c.Message)
	}
	_, _ = dimColor.Fprintf(w, "  %d high, %d medium, %d low\n\n", r.Summary.High, r.Summary.Medium, r.Summary.Low)

	_, _ = headerColor.Fprintf(w, "▸ Utilization\n")
	for _, u := range r.Utilization {
		clr := successColor
		if u.IsOverallocated {
			clr = errorColor
		}
		fmt.Fprintf(w, "  %-20s %6.2fh / %gh  ", u.MemberID, u.TotalHours, u.MaxHoursPerWeek)
		_, _ = clr.Fprintf(w, "%d%%\n", u.UtilizationPercentage)
	}
	fmt.Fprintln(w)

	if len(a.UnprofiledMembers) > 0 {
		_, _ = warningColor.Fprintf(w, "⚠ no profile for: %s\n\n", joinMembers(a.UnprofiledMembers))
	}

	_, _ = headerColor.Fprintf(w, "▸ Suggestions\n")
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "  [%s] %s", s.Priority, s.Message)
		if len(s.Members) > 0 {
			_, _ = dimColor.Fprintf(w, " (%s)", joinMembers(s.Members))
		}
		fmt.Fprintln(w)
	}
}

func joinMembers(ids []models.MemberID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
