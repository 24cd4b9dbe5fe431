package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"oil-sentiment/internal/storage"
)

// Export renders persisted weekly scores as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	if opts.MaxPoints <= 0 {
		opts.MaxPoints = a.Config.Export.MaxDataPoints
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var scores []storage.WeekScore
	if opts.FromYear > 0 && opts.ToYear > 0 {
		scores, err = store.ListScoresBetween(ctx, opts.FromYear, opts.FromWeek, opts.ToYear, opts.ToWeek)
	} else {
		scores, err = store.ListRecentScores(ctx, opts.MaxPoints)
		reverseScores(scores) // recent listing is newest first
	}
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		a.Logger.Info().Msg("no weeks found for export window")
		return nil
	}

	downsampled := downsampleScores(scores, opts.MaxPoints)
	a.Logger.Info().Int("total", len(scores)).Int("exported", len(downsampled)).Msg("exporting weeks")

	if opts.CSVPath != "" {
		if err := writeScoresCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeScoresPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func reverseScores(scores []storage.WeekScore) {
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
}

func downsampleScores(scores []storage.WeekScore, max int) []storage.WeekScore {
	if max <= 0 || len(scores) <= max {
		return scores
	}

	result := make([]storage.WeekScore, 0, max)
	step := float64(len(scores)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(scores) {
			idx = len(scores) - 1
		}
		result = append(result, scores[idx])
	}
	return result
}

func writeScoresCSV(path string, scores []storage.WeekScore) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"week_start", "year", "week", "open", "close", "price_score", "bullish_bearish_score", "positioning_delta_score", "storage_score", "inventory_delta_score", "total_score"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, score := range scores {
		record := []string{
			score.WeekStart.Format(time.DateOnly),
			itoa(score.Year),
			itoa(score.Week),
			csvCell(score.Open),
			csvCell(score.Close),
			csvCell(score.PriceScore),
			csvCell(score.BullishBearishScore),
			csvCell(score.PositioningDelta),
			csvCell(score.StorageScore),
			csvCell(score.InventoryDelta),
			score.TotalScore.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// csvCell renders an absent value as an empty cell, never as zero.
func csvCell(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

func writeScoresPNG(path string, scores []storage.WeekScore) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(scores))
	closes := make([]float64, len(scores))
	totals := make([]float64, len(scores))

	for i, score := range scores {
		x[i] = score.WeekStart
		if score.Close.Valid {
			closes[i] = score.Close.Decimal.InexactFloat64()
		}
		totals[i] = score.TotalScore.InexactFloat64()
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Close (USD/bbl)",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Total_Score",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Close",
				XValues: x,
				YValues: closes,
			},
			chart.TimeSeries{
				Name:    "Total_Score",
				XValues: x,
				YValues: totals,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
