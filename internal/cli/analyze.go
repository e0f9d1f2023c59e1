package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arnavshah/allocation-api-go/pkg/models"
	"github.com/arnavshah/allocation-api-go/pkg/planner"
	"github.com/spf13/cobra"
)

// errConflictsFound makes the process exit non-zero without printing twice
var errConflictsFound = errors.New("conflicts at or above the failure threshold")

var failOn string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <plan.json>",
	Short: "Report conflicts, utilization and suggestions for a plan",
	Long: `Aggregate existing and proposed assignments and report weekly and daily
overallocation, work on unavailable days and skill mismatches.

Use --fail-on to exit non-zero when conflicts of a severity are found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readPlan(args[0])
		if err != nil {
			return err
		}
		analysis, err := runPlan(input)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			resp := models.AnalyzeResponse{Report: analysis.Report, UnprofiledMembers: analysis.UnprofiledMembers}
			s, err := formatJSON(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
		} else {
			printReport(out, analysis)
		}

		if exceeds(analysis.Report.Summary, failOn) {
			return errConflictsFound
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <plan.json>",
	Short: "Check that a plan file is well formed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readPlan(args[0])
		if err != nil {
			return err
		}
		if _, err := runPlan(input); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d existing, %d proposed, %d profiles\n",
			args[0], len(input.Existing), len(input.Proposed), len(input.Profiles))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&failOn, "fail-on", "none", "exit non-zero on conflicts of this severity or worse: high, medium, low, none")
}

// IsConflictExit reports whether err only signals that the plan had conflicts
func IsConflictExit(err error) bool {
	return errors.Is(err, errConflictsFound)
}

func readPlan(path string) (models.AnalyzeInput, error) {
	var input models.AnalyzeInput
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return input, fmt.Errorf("failed to open plan: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return input, fmt.Errorf("failed to decode plan: %w", err)
	}
	return input, nil
}

func runPlan(input models.AnalyzeInput) (planner.Analysis, error) {
	days := input.WeekDays
	if weekDays != 0 {
		days = weekDays
	}
	if days == 0 {
		days = 5
	}
	week, err := models.WeekOf(days)
	if err != nil {
		return planner.Analysis{}, err
	}
	profiles, err := planner.ProfileIndex(input.Profiles)
	if err != nil {
		return planner.Analysis{}, err
	}
	return planner.NewPlanner(week).Analyze(input.Existing, input.Proposed, profiles)
}

func exceeds(s models.ConflictSummary, threshold string) bool {
	switch threshold {
	case "high":
		return s.High > 0
	case "medium":
		return s.High+s.Medium > 0
	case "low":
		return s.Total > 0
	default:
		return false
	}
}
