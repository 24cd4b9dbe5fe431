package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints recent persisted weeks, newest first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show weeks")
	}
	if closeStore != nil {
		defer closeStore()
	}

	scores, err := store.ListRecentScores(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Fprintln(os.Stdout, "no weeks found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Week\tStart\tClose\tPrice\tBull/Bear\tPos Delta\tStorage\tInv Delta\tTotal")

	for _, score := range scores {
		fmt.Fprintf(
			writer,
			"%04d-W%02d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			score.Year,
			score.Week,
			score.WeekStart.Format(time.DateOnly),
			nullDecimalCell(score.Close),
			nullDecimalCell(score.PriceScore),
			nullDecimalCell(score.BullishBearishScore),
			nullDecimalCell(score.PositioningDelta),
			nullDecimalCell(score.StorageScore),
			nullDecimalCell(score.InventoryDelta),
			score.TotalScore.String(),
		)
	}

	return writer.Flush()
}

func nullDecimalCell(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.String()
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
