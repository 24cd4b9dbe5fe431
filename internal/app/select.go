package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/merge"
	"oil-sentiment/internal/service"
)

// Select runs the pipeline and prints the weeks whose Total_Score falls
// within tolerance of the target, oldest first. With --csv the selection is
// written in schema order instead.
func (a *App) Select(ctx context.Context, opts SelectOptions) error {
	target := decimal.NewFromFloat(a.Config.Selector.Target)
	if opts.TargetSet {
		target = decimal.NewFromFloat(opts.Target)
	}
	tolerance := decimal.NewFromFloat(a.Config.Selector.Tolerance)
	if opts.ToleranceSet {
		tolerance = decimal.NewFromFloat(opts.Tolerance)
	}

	svc := service.New(a.Config, nil, nil, nil, a.Logger)
	merged, err := svc.Pipeline(ctx)
	if err != nil {
		return err
	}

	selected, err := merge.SelectByScore(merged, target, tolerance)
	if err != nil {
		return err
	}

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, svc.Schema(), selected); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Int("selected", len(selected)).Msg("selection written")
		return nil
	}

	if len(selected) == 0 {
		fmt.Fprintf(os.Stdout, "no weeks with Total_Score within %s of %s\n", tolerance, target)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Week\tClose\tPrice\tBull/Bear\tPos Delta\tStorage\tInv Delta\tTotal")
	for _, rec := range selected {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Key,
			priceField(rec, func(p decimal.Decimal) string { return p.StringFixed(2) }),
			scoreCell(rec.Price != nil, func() decimal.Decimal { return rec.Price.Score }),
			scoreCell(rec.Positioning != nil, func() decimal.Decimal { return rec.Positioning.BullishBearishScore }),
			scoreCell(rec.Positioning != nil, func() decimal.Decimal { return rec.Positioning.DeltaScore }),
			scoreCell(rec.Inventory != nil, func() decimal.Decimal { return rec.Inventory.StorageScore }),
			scoreCell(rec.Inventory != nil, func() decimal.Decimal { return rec.Inventory.DeltaScore }),
			rec.TotalScore.String(),
		)
	}
	return writer.Flush()
}

func priceField(rec merge.Record, format func(decimal.Decimal) string) string {
	if rec.Price == nil {
		return "-"
	}
	return format(rec.Price.Close)
}

func scoreCell(present bool, value func() decimal.Decimal) string {
	if !present {
		return "-"
	}
	return value().String()
}
