package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
//
// Percentage-valued fields (spacing, volatility, fees, P&L limits) are
// expressed in percent units throughout, e.g. 0.2 means 0.2%.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Feed struct {
		Source  string `yaml:"source"` // "http", "ws", or "mock"
		BaseURL string `yaml:"base_url"`
		WSURL   string `yaml:"ws_url"`
		APIKey  string `yaml:"api_key"`
		Symbol  string `yaml:"symbol"`
	} `yaml:"feed"`
	Loop struct {
		CycleIntervalMs  int `yaml:"cycle_interval_ms"`
		VolatilityWindow int `yaml:"volatility_window"` // samples kept for volatility
	} `yaml:"loop"`
	Grid struct {
		BaseSpacingPct       float64 `yaml:"base_spacing_pct"`
		MinSpacingPct        float64 `yaml:"min_spacing_pct"`
		MaxSpacingPct        float64 `yaml:"max_spacing_pct"`
		SpacingEpsilon       float64 `yaml:"spacing_epsilon"`
		OrderSize            float64 `yaml:"order_size"`
		MinQuoteReserve      float64 `yaml:"min_quote_reserve"`
		MinBaseReserve       float64 `yaml:"min_base_reserve"`
		EnableDynamicSpacing bool    `yaml:"enable_dynamic_spacing"`
	} `yaml:"grid"`
	Regime struct {
		VeryLowMax           float64 `yaml:"very_low_max"`
		LowMax               float64 `yaml:"low_max"`
		MediumMax            float64 `yaml:"medium_max"`
		HighMax              float64 `yaml:"high_max"`
		EnableGate           bool    `yaml:"enable_gate"`
		MinVolatilityToTrade float64 `yaml:"min_volatility_to_trade"`
		PauseInVeryLowVol    bool    `yaml:"pause_in_very_low_vol"`
	} `yaml:"regime"`
	Fees struct {
		Enabled             bool    `yaml:"enabled"`
		TakerRatePct        float64 `yaml:"taker_rate_pct"`
		MakerRatePct        float64 `yaml:"maker_rate_pct"`
		SlippagePct         float64 `yaml:"slippage_pct"`
		MinProfitMultiplier float64 `yaml:"min_profit_multiplier"`
		NeutralVolatility   float64 `yaml:"neutral_volatility"`
		EnableMarketImpact  bool    `yaml:"enable_market_impact"`
		ImpactCoefficient   float64 `yaml:"impact_coefficient"`
		GraceTrades         int     `yaml:"grace_trades"`
	} `yaml:"fees"`
	Risk struct {
		InitialBalance       float64 `yaml:"initial_balance"`
		MaxDailyLossPct      float64 `yaml:"max_daily_loss_pct"`
		MaxDrawdownPct       float64 `yaml:"max_drawdown_pct"`
		MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
		CooldownSeconds      int     `yaml:"cooldown_seconds"`
	} `yaml:"risk"`
	Stops struct {
		Enabled       bool    `yaml:"enabled"`
		Trailing      bool    `yaml:"trailing"`
		StopLossPct   float64 `yaml:"stop_loss_pct"`
		TakeProfitPct float64 `yaml:"take_profit_pct"`
	} `yaml:"stops"`
	Consensus struct {
		MinConfidence      float64 `yaml:"min_confidence"`
		WeightUpdateCycles int     `yaml:"weight_update_cycles"`
	} `yaml:"consensus"`
	Schedule struct {
		DailyResetCron   string `yaml:"daily_reset_cron"`
		StatusReportCron string `yaml:"status_report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("FEED_WS_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := os.Getenv("FEED_SOURCE"); v != "" {
		cfg.Feed.Source = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		var bal float64
		if _, err := fmt.Sscanf(v, "%f", &bal); err == nil {
			cfg.Risk.InitialBalance = bal
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero-valued fields before the YAML file is parsed,
// so a partial config only needs to name what it changes. Boolean feature
// flags default to enabled here; an explicit `false` in YAML overrides them.
func (c *Config) applyDefaults() {
	c.Feed.Source = "mock"
	c.Feed.Symbol = "SOL-USDC"

	c.Loop.CycleIntervalMs = 100
	c.Loop.VolatilityWindow = 600

	c.Grid.BaseSpacingPct = 0.2
	c.Grid.MinSpacingPct = 0.1
	c.Grid.MaxSpacingPct = 0.75
	c.Grid.SpacingEpsilon = 0.01
	c.Grid.OrderSize = 0.1
	c.Grid.MinQuoteReserve = 100.0
	c.Grid.MinBaseReserve = 0.1
	c.Grid.EnableDynamicSpacing = true

	c.Regime.VeryLowMax = 0.5
	c.Regime.LowMax = 1.0
	c.Regime.MediumMax = 1.5
	c.Regime.HighMax = 2.0
	c.Regime.EnableGate = true
	c.Regime.MinVolatilityToTrade = 0.3
	c.Regime.PauseInVeryLowVol = true

	c.Fees.Enabled = true
	c.Fees.TakerRatePct = 0.04
	c.Fees.MakerRatePct = 0.02
	c.Fees.SlippagePct = 0.05
	c.Fees.MinProfitMultiplier = 2.0
	c.Fees.NeutralVolatility = 1.0
	c.Fees.ImpactCoefficient = 0.0001
	c.Fees.GraceTrades = 10

	c.Risk.InitialBalance = 10000.0
	c.Risk.MaxDailyLossPct = 5.0
	c.Risk.MaxDrawdownPct = 10.0
	c.Risk.MaxConsecutiveLosses = 5
	c.Risk.CooldownSeconds = 300

	c.Stops.Enabled = true
	c.Stops.Trailing = true
	c.Stops.StopLossPct = 5.0
	c.Stops.TakeProfitPct = 10.0

	c.Consensus.MinConfidence = 0.65
	c.Consensus.WeightUpdateCycles = 10

	c.Schedule.DailyResetCron = "0 0 0 * * *"
	c.Schedule.StatusReportCron = "0 0 * * * *"

	c.Metrics.ListenAddr = ":9090"
}

// Validate checks construction-time invariants. Invalid configuration is a
// hard error, never silently corrected.
func (c *Config) Validate() error {
	switch c.Feed.Source {
	case "http":
		if c.Feed.BaseURL == "" {
			return fmt.Errorf("feed.base_url is required for http source")
		}
	case "ws":
		if c.Feed.WSURL == "" {
			return fmt.Errorf("feed.ws_url is required for ws source")
		}
	case "mock":
	default:
		return fmt.Errorf("feed.source must be http, ws, or mock, got %q", c.Feed.Source)
	}

	if c.Loop.CycleIntervalMs <= 0 {
		return fmt.Errorf("loop.cycle_interval_ms must be positive")
	}
	if c.Loop.VolatilityWindow < 2 {
		return fmt.Errorf("loop.volatility_window must be at least 2")
	}

	if c.Grid.MinSpacingPct <= 0 {
		return fmt.Errorf("grid.min_spacing_pct must be positive")
	}
	if c.Grid.MinSpacingPct >= c.Grid.MaxSpacingPct {
		return fmt.Errorf("grid.min_spacing_pct (%.4f) must be < grid.max_spacing_pct (%.4f)",
			c.Grid.MinSpacingPct, c.Grid.MaxSpacingPct)
	}
	if c.Grid.OrderSize <= 0 {
		return fmt.Errorf("grid.order_size must be positive")
	}
	if c.Grid.MinQuoteReserve < 0 || c.Grid.MinBaseReserve < 0 {
		return fmt.Errorf("grid reserve balances cannot be negative")
	}

	if !(c.Regime.VeryLowMax < c.Regime.LowMax &&
		c.Regime.LowMax < c.Regime.MediumMax &&
		c.Regime.MediumMax < c.Regime.HighMax) {
		return fmt.Errorf("regime thresholds must be strictly ascending")
	}
	if c.Regime.MinVolatilityToTrade < 0 {
		return fmt.Errorf("regime.min_volatility_to_trade cannot be negative")
	}

	if c.Fees.TakerRatePct < 0 || c.Fees.MakerRatePct < 0 || c.Fees.SlippagePct < 0 {
		return fmt.Errorf("fee rates cannot be negative")
	}
	if c.Fees.MinProfitMultiplier < 1.0 {
		return fmt.Errorf("fees.min_profit_multiplier must be >= 1.0")
	}
	if c.Fees.NeutralVolatility <= 0 {
		return fmt.Errorf("fees.neutral_volatility must be positive")
	}
	if c.Fees.GraceTrades < 0 {
		return fmt.Errorf("fees.grace_trades cannot be negative")
	}

	if c.Risk.InitialBalance <= 0 {
		return fmt.Errorf("risk.initial_balance must be positive")
	}
	if c.Risk.MaxDailyLossPct <= 0 || c.Risk.MaxDrawdownPct <= 0 {
		return fmt.Errorf("risk loss limits must be positive")
	}
	if c.Risk.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("risk.max_consecutive_losses must be positive")
	}
	if c.Risk.CooldownSeconds <= 0 {
		return fmt.Errorf("risk.cooldown_seconds must be positive")
	}

	if c.Stops.Enabled {
		if c.Stops.StopLossPct <= 0 || c.Stops.TakeProfitPct <= 0 {
			return fmt.Errorf("stop-loss and take-profit percentages must be positive")
		}
	}

	if c.Consensus.MinConfidence < 0 || c.Consensus.MinConfidence > 1 {
		return fmt.Errorf("consensus.min_confidence must be within [0, 1]")
	}
	if c.Consensus.WeightUpdateCycles <= 0 {
		return fmt.Errorf("consensus.weight_update_cycles must be positive")
	}

	return nil
}
