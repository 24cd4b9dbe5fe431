package cli

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var simulateScore float64

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send a test candidate-week alert through the configured channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateAlert(cmd.Context(), decimal.NewFromFloat(simulateScore))
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateScore, "score", 5.0, "Total_Score to report in the test alert")
}
