package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"oil-sentiment/internal/alerting"
	"oil-sentiment/internal/config"
	"oil-sentiment/internal/ingest"
	"oil-sentiment/internal/merge"
	"oil-sentiment/internal/normalize"
	"oil-sentiment/internal/storage"
)

// Service orchestrates one refresh cycle: ingest the three weekly exports,
// normalize and score each, merge on the week key, persist, and flag
// candidate trading weeks.
type Service struct {
	cfg      *config.Config
	store    storage.WeekScoreStore
	alerts   storage.AlertStore
	notifier alerting.Notifier
	logger   zerolog.Logger

	threshold decimal.Decimal
	channels  []string
	alertsOn  bool
	locker    storage.AdvisoryLocker
	lockKey   int64
}

// New constructs the pipeline service.
func New(cfg *config.Config, store storage.WeekScoreStore, alerts storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	threshold := decimal.Zero
	if cfg.Alerting.Enabled {
		threshold = decimal.NewFromFloat(cfg.Alerting.MinTotalScore)
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		cfg:       cfg,
		store:     store,
		alerts:    alerts,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		threshold: threshold,
		channels:  cfg.Alerting.Channels,
		alertsOn:  cfg.Alerting.Enabled,
		locker:    locker,
		lockKey:   cfg.Refresh.AdvisoryLockKey,
	}
}

// ProcessCycle 执行单个刷新周期；watch 模式下通过 advisory lock 避免多副本并发。
func (s *Service) ProcessCycle(ctx context.Context, at time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("cycle", at).Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	merged, err := s.Pipeline(ctx)
	if err != nil {
		return err
	}
	if len(merged) == 0 {
		s.logger.Warn().Msg("pipeline produced no merged weeks")
		return nil
	}

	if s.store != nil {
		for _, rec := range merged {
			if err := s.store.UpsertWeekScore(ctx, ToWeekScore(rec)); err != nil {
				s.logger.Error().Err(err).Str("week", rec.Key.String()).Msg("failed to upsert week score")
			}
		}
	}

	latest := merged[len(merged)-1]
	s.logger.Info().
		Str("week", latest.Key.String()).
		Str("total_score", latest.TotalScore.String()).
		Int("weeks", len(merged)).
		Msg("cycle complete")

	return s.maybeAlert(ctx, latest)
}

// Pipeline runs ingest, the three normalizers, and the merge. The result is
// sorted ascending by week key with Total_Score applied; reprocessing the
// same inputs yields an identical result.
func (s *Service) Pipeline(ctx context.Context) ([]merge.Record, error) {
	priceRows, err := ingest.ReadPriceFile(s.cfg.Inputs.PricePath)
	if err != nil {
		return nil, fmt.Errorf("ingest price: %w", err)
	}
	inventoryRows, err := ingest.ReadInventoryFile(s.cfg.Inputs.InventoryPath, s.cfg.Inputs.InventoryLevelColumn)
	if err != nil {
		return nil, fmt.Errorf("ingest inventory: %w", err)
	}
	cotRows, err := ingest.ReadCOTFile(s.cfg.Inputs.COTPath)
	if err != nil {
		return nil, fmt.Errorf("ingest cot: %w", err)
	}

	price, err := normalize.Price(priceRows, s.priceConfig())
	if err != nil {
		return nil, fmt.Errorf("normalize price: %w", err)
	}
	inventory, err := normalize.Inventory(inventoryRows, s.seasonalConfig())
	if err != nil {
		return nil, fmt.Errorf("normalize inventory: %w", err)
	}
	positioning, err := normalize.COT(cotRows, s.cotConfig())
	if err != nil {
		return nil, fmt.Errorf("normalize cot: %w", err)
	}

	s.logger.Debug().
		Int("price_weeks", len(price)).
		Int("inventory_weeks", len(inventory)).
		Int("cot_weeks", len(positioning)).
		Msg("sources normalized")

	return merge.Merge(price, inventory, positioning), nil
}

// Schema returns the ordered output schema for the configured horizons.
func (s *Service) Schema() merge.Schema {
	return merge.NewSchema(s.cfg.Scoring.ReturnHorizons)
}

func (s *Service) priceConfig() normalize.PriceConfig {
	return normalize.PriceConfig{
		BreakevenLower: decimal.NewFromFloat(s.cfg.Scoring.PriceBreakevenLower),
		BreakevenUpper: decimal.NewFromFloat(s.cfg.Scoring.PriceBreakevenUpper),
		Horizons:       s.cfg.Scoring.ReturnHorizons,
	}
}

func (s *Service) seasonalConfig() normalize.SeasonalConfig {
	return normalize.SeasonalConfig{
		Lookbacks:    s.cfg.Scoring.SeasonalLookbacks,
		ExcludeYears: s.cfg.Scoring.SeasonalExcludeYears,
	}
}

func (s *Service) cotConfig() normalize.COTConfig {
	return normalize.COTConfig{
		MinOpenInterest: decimal.NewFromFloat(s.cfg.Scoring.MinOpenInterest),
		MaxWeekSkew:     s.cfg.Scoring.MaxWeekSkew,
	}
}

// maybeAlert flags the latest week when its composite score reaches the
// configured threshold. The cooldown suppresses re-alerting the same week
// on every refresh cycle.
func (s *Service) maybeAlert(ctx context.Context, latest merge.Record) error {
	if !s.alertsOn || s.notifier == nil {
		return nil
	}
	if latest.TotalScore.LessThan(s.threshold) {
		return nil
	}

	if s.alerts != nil {
		last, err := s.alerts.LatestAlert(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to read latest alert")
		} else if last != nil {
			sameWeek := last.Year == latest.Key.Year && last.Week == latest.Key.Week
			if sameWeek && time.Since(last.CreatedAt) < s.cfg.Alerting.Cooldown {
				s.logger.Debug().Str("week", latest.Key.String()).Msg("alert suppressed by cooldown")
				return nil
			}
		}
	}

	note := buildNotification(latest, s.threshold, s.channels)
	if s.alerts != nil {
		record := storage.AlertRecord{
			Year:       latest.Key.Year,
			Week:       latest.Key.Week,
			TotalScore: latest.TotalScore,
			Threshold:  s.threshold,
			Channels:   s.channels,
		}
		if _, err := s.alerts.InsertAlert(ctx, record); err != nil {
			s.logger.Error().Err(err).Str("week", latest.Key.String()).Msg("failed to persist alert record")
		}
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("week", latest.Key.String()).Msg("failed to dispatch alert")
	}
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}

func buildNotification(rec merge.Record, threshold decimal.Decimal, channels []string) alerting.Notification {
	note := alerting.Notification{
		Week:       rec.Key,
		WeekStart:  rec.Key.WeekStart(),
		TotalScore: rec.TotalScore,
		Threshold:  threshold,
		Channels:   channels,
	}
	if rec.Price != nil {
		note.Close = present(rec.Price.Close)
		note.PriceScore = present(rec.Price.Score)
	}
	if rec.Inventory != nil {
		note.StorageScore = present(rec.Inventory.StorageScore)
		note.InventoryDlt = present(rec.Inventory.DeltaScore)
	}
	if rec.Positioning != nil {
		note.BullishBear = present(rec.Positioning.BullishBearishScore)
		note.PositioningDlt = present(rec.Positioning.DeltaScore)
	}
	return note
}

// ToWeekScore flattens a merged record into its persisted form. Absent
// sources stay NULL rather than zero so partial weeks keep their meaning.
func ToWeekScore(rec merge.Record) storage.WeekScore {
	score := storage.WeekScore{
		Year:       rec.Key.Year,
		Week:       rec.Key.Week,
		WeekStart:  rec.Key.WeekStart(),
		TotalScore: rec.TotalScore,
	}
	if rec.Price != nil {
		score.WeekStart = rec.Price.WeekStart
		score.Open = present(rec.Price.Open)
		score.Close = present(rec.Price.Close)
		score.PriceScore = present(rec.Price.Score)
	}
	if rec.Inventory != nil {
		score.StorageScore = present(rec.Inventory.StorageScore)
		score.InventoryDelta = present(rec.Inventory.DeltaScore)
	}
	if rec.Positioning != nil {
		score.BullishBearishScore = present(rec.Positioning.BullishBearishScore)
		score.PositioningDelta = present(rec.Positioning.DeltaScore)
	}
	return score
}

func present(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
