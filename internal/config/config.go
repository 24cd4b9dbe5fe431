package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"oil-sentiment/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Inputs   InputsConfig   `mapstructure:"inputs"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Selector SelectorConfig `mapstructure:"selector"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// InputsConfig points at the three weekly source exports.
type InputsConfig struct {
	PricePath            string `mapstructure:"price_path"`
	InventoryPath        string `mapstructure:"inventory_path"`
	COTPath              string `mapstructure:"cot_path"`
	InventoryLevelColumn string `mapstructure:"inventory_level_column"`
}

// ScoringConfig carries the domain policy knobs of the three normalizers.
type ScoringConfig struct {
	// Cost-curve breakeven band for the price score.
	PriceBreakevenLower float64 `mapstructure:"price_breakeven_lower"`
	PriceBreakevenUpper float64 `mapstructure:"price_breakeven_upper"`
	// Forward-return horizons in weeks.
	ReturnHorizons []int `mapstructure:"return_horizons"`
	// Seasonal lookback windows for the inventory bands, in years.
	SeasonalLookbacks []int `mapstructure:"seasonal_lookbacks"`
	// Years excluded from seasonal statistics.
	SeasonalExcludeYears []int `mapstructure:"seasonal_exclude_years"`
	// Positioning rows at or below this open interest are dropped.
	MinOpenInterest float64 `mapstructure:"min_open_interest"`
	// Tolerated distance between a source's declared week and the
	// canonical ISO week before the run aborts with an alignment error.
	MaxWeekSkew int `mapstructure:"max_week_skew"`
}

// SelectorConfig drives the candidate-week filter.
type SelectorConfig struct {
	Target    float64 `mapstructure:"target"`
	Tolerance float64 `mapstructure:"tolerance"`
}

// RefreshConfig governs watch-mode cadence.
type RefreshConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled       bool           `mapstructure:"enabled"`
	MinTotalScore float64        `mapstructure:"min_total_score"`
	Cooldown      time.Duration  `mapstructure:"cooldown"`
	Channels      []string       `mapstructure:"channels"`
	Telegram      TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OILSENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "oilsentry")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("inputs.price_path", "data/Price.csv")
	v.SetDefault("inputs.inventory_path", "data/Inventory.csv")
	v.SetDefault("inputs.cot_path", "data/COT.csv")

	v.SetDefault("scoring.price_breakeven_lower", 68.0)
	v.SetDefault("scoring.price_breakeven_upper", 70.0)
	v.SetDefault("scoring.return_horizons", []int{1, 2, 3, 4, 8, 12, 24})
	v.SetDefault("scoring.seasonal_lookbacks", []int{5, 10})
	v.SetDefault("scoring.seasonal_exclude_years", []int{2020})
	v.SetDefault("scoring.min_open_interest", 0.0)
	v.SetDefault("scoring.max_week_skew", 1)

	v.SetDefault("selector.target", 4.0)
	v.SetDefault("selector.tolerance", 1e-5)

	v.SetDefault("refresh.interval", "24h")
	v.SetDefault("refresh.startup_delay", "0s")
	v.SetDefault("refresh.advisory_lock_key", int64(0x6f696c73))

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_total_score", 4.0)
	v.SetDefault("alerting.cooldown", "24h")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 5200)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scoring.PriceBreakevenUpper <= c.Scoring.PriceBreakevenLower {
		return fmt.Errorf("scoring.price_breakeven_upper must exceed scoring.price_breakeven_lower")
	}
	for _, h := range c.Scoring.ReturnHorizons {
		if h <= 0 {
			return fmt.Errorf("scoring.return_horizons must be positive week counts")
		}
	}
	for _, l := range c.Scoring.SeasonalLookbacks {
		if l <= 0 {
			return fmt.Errorf("scoring.seasonal_lookbacks must be positive year counts")
		}
	}
	if c.Selector.Tolerance < 0 {
		return fmt.Errorf("selector.tolerance cannot be negative")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}
