// Package config loads and validates the engine's setup-time configuration:
// YAML input decoded into struct-tagged types and checked with validator
// struct tags, covering this venue's symbol/fee/replay/event-bus concerns.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/archon-trading/spotvenue/pkg/money"
	"gopkg.in/yaml.v2"
)

// ReplayMode is the closed set of replay dispatch speeds.
type ReplayMode string

const (
	ReplayBacktest    ReplayMode = "BACKTEST"
	ReplayRealtime    ReplayMode = "REALTIME"
	ReplayAccelerated ReplayMode = "ACCELERATED"
	ReplayStepped     ReplayMode = "STEPPED"
)

// FeeAssetPolicy controls which asset a trade's fee is deducted from.
type FeeAssetPolicy string

const (
	FeeAssetReceived FeeAssetPolicy = "RECEIVED" // base-on-buy, quote-on-sell
	FeeAssetFixed    FeeAssetPolicy = "FIXED"
)

// Symbol describes one tradable instrument and its exchange filters.
type Symbol struct {
	Symbol      string        `yaml:"symbol" validate:"required"`
	BaseAsset   string        `yaml:"base_asset" validate:"required"`
	QuoteAsset  string        `yaml:"quote_asset" validate:"required"`
	TickSize    money.Decimal `yaml:"-" validate:"-"`
	TickSizeStr string        `yaml:"tick_size" validate:"required"`
	LotSize     money.Decimal `yaml:"-" validate:"-"`
	LotSizeStr  string        `yaml:"lot_size" validate:"required"`
	MinNotional money.Decimal `yaml:"-" validate:"-"`
	MinNotionalStr string     `yaml:"min_notional" validate:"required"`
	Active      bool          `yaml:"active"`
	SlippageBps int64         `yaml:"slippage_bps"`
}

// FeeRate is the taker/maker rate pair for a symbol (or the default).
type FeeRate struct {
	TakerRate money.Decimal
	MakerRate money.Decimal
}

// FeeConfig is the venue-wide fee schedule.
type FeeConfig struct {
	DefaultTakerBps int64                 `yaml:"default_taker_bps" validate:"gte=0"`
	DefaultMakerBps int64                 `yaml:"default_maker_bps" validate:"gte=0"`
	PerSymbolBps    map[string][2]int64   `yaml:"per_symbol_bps"`
	AssetPolicy     FeeAssetPolicy        `yaml:"asset_policy"`
}

// EventBusConfig configures Component E.
type EventBusConfig struct {
	QueueCapacity     int     `yaml:"event_queue_capacity" validate:"gt=0"`
	DispatchPoolSize  int     `yaml:"dispatch_pool_size" validate:"gt=0"`
	DropOldestLowPrio bool    `yaml:"drop_oldest_low_priority"`
	PublishRateLimit  float64 `yaml:"publish_rate_limit_per_sec"`
}

// ReplayConfig configures Component G.
type ReplayConfig struct {
	Mode                ReplayMode    `yaml:"mode" validate:"required"`
	AccelerationFactor  float64       `yaml:"acceleration_factor"`
	BreakerMaxFailures  uint32        `yaml:"breaker_max_failures"`
	BreakerOpenDuration time.Duration `yaml:"breaker_open_duration"`
}

// Config is the full engine setup-time configuration.
type Config struct {
	Symbols       []Symbol        `yaml:"symbols" validate:"required,dive"`
	Fees          FeeConfig       `yaml:"fee_config"`
	EventBus      EventBusConfig  `yaml:"event_bus"`
	Replay        ReplayConfig    `yaml:"replay"`
	StpDefault    string          `yaml:"stp_default"`
	APIKeys       map[string]string `yaml:"api_keys"` // api key -> user id, seeded once at startup
}

var validate = validator.New()

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.resolveDecimals(); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// resolveDecimals parses the string-encoded decimal fields (tick size, lot
// size, min notional) so config.yaml can carry exact literals without the
// YAML decoder ever touching float64.
func (c *Config) resolveDecimals() error {
	for i := range c.Symbols {
		s := &c.Symbols[i]
		var err error
		if s.TickSize, err = money.Parse(s.TickSizeStr); err != nil {
			return fmt.Errorf("config: symbol %s: tick_size: %w", s.Symbol, err)
		}
		if s.LotSize, err = money.Parse(s.LotSizeStr); err != nil {
			return fmt.Errorf("config: symbol %s: lot_size: %w", s.Symbol, err)
		}
		if s.MinNotional, err = money.Parse(s.MinNotionalStr); err != nil {
			return fmt.Errorf("config: symbol %s: min_notional: %w", s.Symbol, err)
		}
	}
	return nil
}

// SymbolByName returns the configured Symbol, or false if unknown/inactive.
func (c *Config) SymbolByName(symbol string) (Symbol, bool) {
	for _, s := range c.Symbols {
		if s.Symbol == symbol {
			return s, s.Active
		}
	}
	return Symbol{}, false
}

// FeeRateFor resolves the taker/maker rate for a symbol, falling back to
// the venue default.
func (c *Config) FeeRateFor(symbol string) (takerBps, makerBps int64) {
	if pair, ok := c.Fees.PerSymbolBps[symbol]; ok {
		return pair[0], pair[1]
	}
	return c.Fees.DefaultTakerBps, c.Fees.DefaultMakerBps
}

// Default returns a Config with sane defaults for tests and local runs.
func Default() *Config {
	return &Config{
		Symbols: []Symbol{},
		Fees: FeeConfig{
			DefaultTakerBps: 10,
			DefaultMakerBps: 10,
			AssetPolicy:     FeeAssetReceived,
		},
		EventBus: EventBusConfig{
			QueueCapacity:     4096,
			DispatchPoolSize:  8,
			DropOldestLowPrio: true,
		},
		Replay: ReplayConfig{
			Mode:                ReplayBacktest,
			AccelerationFactor:  1.0,
			BreakerMaxFailures:  5,
			BreakerOpenDuration: 30 * time.Second,
		},
		StpDefault: "NONE",
	}
}
