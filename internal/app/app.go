package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"oil-sentiment/internal/alerting"
	"oil-sentiment/internal/config"
	"oil-sentiment/internal/scheduler"
	"oil-sentiment/internal/service"
	"oil-sentiment/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Watch executes the long-running refresh service.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:       a.Config.Refresh.Interval,
		StartupDelay:   a.Config.Refresh.StartupDelay,
		RunImmediately: true,
	}, a.Logger)

	notifier := a.newNotifier()

	var scoreStore storage.WeekScoreStore
	var alertStore storage.AlertStore
	if store != nil {
		scoreStore = store
		alertStore = store
	}

	svc := service.New(a.Config, scoreStore, alertStore, notifier, a.Logger)

	a.Logger.Info().Msg("starting watch service")
	err = sched.Run(ctx, svc.ProcessCycle)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch service terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch service stopped")
	return nil
}

// RunOptions hold parameters for the one-shot pipeline run.
type RunOptions struct {
	MergedCSVPath   string
	SelectedCSVPath string
	Persist         bool
}

// SelectOptions configure the candidate-week filter command.
type SelectOptions struct {
	Target       float64
	TargetSet    bool
	Tolerance    float64
	ToleranceSet bool
	CSVPath      string
}

// ExportOptions hold parameters for exporting persisted scores.
type ExportOptions struct {
	FromYear, FromWeek int
	ToYear, ToWeek     int
	PNGPath            string
	CSVPath            string
	MaxPoints          int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
