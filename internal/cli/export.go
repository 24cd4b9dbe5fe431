package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"oil-sentiment/internal/app"
	"oil-sentiment/internal/weekkey"
)

var (
	exportFrom      string
	exportTo        string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted weekly scores as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		if exportFrom != "" {
			key, err := parseWeekFlag(exportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.FromYear, opts.FromWeek = key.Year, key.Week
		}

		if exportTo != "" {
			key, err := parseWeekFlag(exportTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.ToYear, opts.ToWeek = key.Year, key.Week
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func parseWeekFlag(v string) (weekkey.Key, error) {
	var year, week int
	if _, err := fmt.Sscanf(v, "%d-W%d", &year, &week); err != nil {
		return weekkey.Key{}, err
	}
	if week < 1 || week > 52 {
		return weekkey.Key{}, fmt.Errorf("week must be in [1, 52], got %d", week)
	}
	return weekkey.New(year, week), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start week (YYYY-Www, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End week (YYYY-Www, inclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
