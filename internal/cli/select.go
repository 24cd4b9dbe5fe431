package cli

import (
	"github.com/spf13/cobra"

	"oil-sentiment/internal/app"
)

var (
	selectTarget    float64
	selectTolerance float64
	selectCSVPath   string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "List weeks whose Total_Score matches a target within tolerance",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SelectOptions{
			Target:       selectTarget,
			TargetSet:    cmd.Flags().Changed("target"),
			Tolerance:    selectTolerance,
			ToleranceSet: cmd.Flags().Changed("tolerance"),
			CSVPath:      selectCSVPath,
		}
		return getApp().Select(cmd.Context(), opts)
	},
}

func init() {
	selectCmd.Flags().Float64Var(&selectTarget, "target", 4.0, "Target Total_Score (defaults to config)")
	selectCmd.Flags().Float64Var(&selectTolerance, "tolerance", 1e-5, "Allowed |Total_Score - target| (defaults to config)")
	selectCmd.Flags().StringVar(&selectCSVPath, "csv", "", "Write the selection as CSV instead of printing")
}
