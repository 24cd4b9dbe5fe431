package cli

import (
	"github.com/spf13/cobra"

	"oil-sentiment/internal/app"
)

var (
	runMergedPath   string
	runSelectedPath string
	runPersist      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scoring pipeline once over the configured source files",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RunOptions{
			MergedCSVPath:   runMergedPath,
			SelectedCSVPath: runSelectedPath,
			Persist:         runPersist,
		}
		return getApp().Run(cmd.Context(), opts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runMergedPath, "merged", "merged.csv", "Path to write the merged scored table")
	runCmd.Flags().StringVar(&runSelectedPath, "selected", "", "Optional path to write weeks matching the selector target")
	runCmd.Flags().BoolVar(&runPersist, "persist", false, "Upsert the merged weeks into PostgreSQL")
}
