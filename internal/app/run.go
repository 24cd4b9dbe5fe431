package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/merge"
	"oil-sentiment/internal/service"
)

// Run executes the pipeline once: ingest, normalize, merge, score. The
// merged table is written in schema order; optionally the selector output
// and the database are fed from the same run.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	svc := service.New(a.Config, nil, nil, nil, a.Logger)

	merged, err := svc.Pipeline(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info().Int("weeks", len(merged)).Msg("pipeline complete")

	schema := svc.Schema()

	if opts.MergedCSVPath != "" {
		if err := writeRecordsCSV(opts.MergedCSVPath, schema, merged); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.MergedCSVPath).Msg("merged table written")
	}

	if opts.SelectedCSVPath != "" {
		target := decimal.NewFromFloat(a.Config.Selector.Target)
		tolerance := decimal.NewFromFloat(a.Config.Selector.Tolerance)
		selected, err := merge.SelectByScore(merged, target, tolerance)
		if err != nil {
			return err
		}
		if err := writeRecordsCSV(opts.SelectedCSVPath, schema, selected); err != nil {
			return err
		}
		a.Logger.Info().
			Str("path", opts.SelectedCSVPath).
			Int("selected", len(selected)).
			Str("target", target.String()).
			Msg("selected weeks written")
	}

	if opts.Persist {
		if err := a.persistRun(ctx, merged); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) persistRun(ctx context.Context, merged []merge.Record) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("database not configured; cannot persist run")
	}
	if closeStore != nil {
		defer closeStore()
	}

	for _, rec := range merged {
		if err := store.UpsertWeekScore(ctx, service.ToWeekScore(rec)); err != nil {
			return err
		}
	}
	a.Logger.Info().Int("weeks", len(merged)).Msg("run persisted")
	return nil
}

func writeRecordsCSV(path string, schema merge.Schema, records []merge.Record) error {
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

	if err := writer.Write(schema.Columns()); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(schema.Row(rec)); err != nil {
			return err
		}
	}
	return writer.Error()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
