package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	weekDays   int
)

// rootCmd is the root command for plancheck.
var rootCmd = &cobra.Command{
	Use:     "plancheck",
	Version: "dev",
	Short:   "Check a weekly assignment plan for allocation conflicts",
	Long: `plancheck runs the allocation conflict detector against a plan file.

A plan file is the JSON body accepted by POST /api/conflicts/analyze: existing
assignments, proposed assignments and member profiles for one planning week.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	rootCmd.PersistentFlags().IntVar(&weekDays, "week-days", 0, "planning week length, 5 or 7 (default: from the plan, else 5)")
	rootCmd.AddCommand(analyzeCmd, validateCmd)
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
