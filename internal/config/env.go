// Package config loads and validates the environment-variable driven
// configuration of §6: endpoints, capital/risk limits, and trading
// mode. It also carries the per-provider operational defaults (rate
// limit, circuit breaker, backoff) consumed by the price cache, tip
// oracle, and sidecar submission channel.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Config is the fully resolved, validated runtime configuration.
type Config struct {
	StreamEndpoint     string
	RPCEndpoint        string
	AggregatorURL      string
	AggregatorAPIKey   string
	SidecarEndpoint    string
	TipOracleURL       string
	WalletKeyFile      string
	WalletPasswordVar  string
	WalletPrivateKey   string
	DatabaseURL        string

	Capital               float64
	MaxPositionSize       float64
	MinProfitMarginMult   float64
	MaxDailyTrades        int
	DailyLossLimit        float64
	MaxConsecutiveFailures int

	EnableRealTrading bool
	PaperTrading      bool

	AllowNonAtomic      bool
	VolumeFilterEnabled bool

	MaxConcurrentOpportunities int
	TipPercentile              int
	VenuesConfigPath           string
}

// Load reads the environment (optionally seeded by a .env file), fills
// in defaults, and validates the result. It never panics on external
// input — a value that fails validation returns a *domain.ConfigError.
// A numeric or boolean variable whose text does not parse is treated
// as unset and takes its default; no error is reported for it.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is not an error

	cfg := &Config{
		StreamEndpoint:    os.Getenv("STREAM_ENDPOINT"),
		RPCEndpoint:       os.Getenv("RPC_ENDPOINT"),
		AggregatorURL:     os.Getenv("AGGREGATOR_URL"),
		AggregatorAPIKey:  os.Getenv("AGGREGATOR_API_KEY"),
		SidecarEndpoint:   os.Getenv("SIDECAR_ENDPOINT"),
		TipOracleURL:      os.Getenv("TIP_ORACLE_URL"),
		WalletKeyFile:      os.Getenv("WALLET_KEY_FILE"),
		WalletPasswordVar:  os.Getenv("WALLET_PASSWORD_VAR"),
		WalletPrivateKey:   os.Getenv("WALLET_PRIVATE_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),

		Capital:                getFloat("CAPITAL", 2.0),
		MaxPositionSize:        getFloat("MAX_POSITION_SIZE", 0.5),
		MinProfitMarginMult:    getFloat("MIN_PROFIT_MARGIN_MULT", 2.0),
		MaxDailyTrades:         getInt("MAX_DAILY_TRADES", 200),
		DailyLossLimit:         getFloat("DAILY_LOSS_LIMIT", 0.5),
		MaxConsecutiveFailures: getInt("MAX_CONSECUTIVE_FAILURES", 100),

		EnableRealTrading: getBool("ENABLE_REAL_TRADING", false),
		PaperTrading:      getBool("PAPER_TRADING", true),

		AllowNonAtomic:      getBool("ALLOW_NON_ATOMIC", false),
		VolumeFilterEnabled: getBool("VOLUME_FILTER_ENABLED", false),

		MaxConcurrentOpportunities: getInt("MAX_CONCURRENT_OPPORTUNITIES", 15),
		TipPercentile:              getInt("TIP_PERCENTILE", 95),
		VenuesConfigPath:           getString("VENUES_CONFIG_PATH", "config/venues.yaml"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the invariants of §6.
func (c *Config) Validate() error {
	if c.StreamEndpoint == "" {
		return &domain.ConfigError{Field: "STREAM_ENDPOINT", Reason: "required"}
	}
	if c.RPCEndpoint == "" {
		return &domain.ConfigError{Field: "RPC_ENDPOINT", Reason: "required"}
	}
	if c.TipOracleURL == "" {
		return &domain.ConfigError{Field: "TIP_ORACLE_URL", Reason: "required"}
	}
	if !c.PaperTrading && c.SidecarEndpoint == "" {
		return &domain.ConfigError{Field: "SIDECAR_ENDPOINT", Reason: "required for live trading"}
	}
	if c.WalletKeyFile == "" && c.WalletPrivateKey == "" {
		return &domain.ConfigError{Field: "WALLET_KEY_FILE/WALLET_PRIVATE_KEY", Reason: "one of these is required"}
	}
	if c.WalletKeyFile != "" && c.WalletPasswordVar == "" {
		return &domain.ConfigError{Field: "WALLET_PASSWORD_VAR", Reason: "required when WALLET_KEY_FILE is set"}
	}

	if !(c.Capital > 0) || math.IsInf(c.Capital, 0) || math.IsNaN(c.Capital) {
		return &domain.ConfigError{Field: "CAPITAL", Reason: "must be a positive finite number"}
	}
	if !finite(c.MaxPositionSize) || c.MaxPositionSize <= 0 || c.MaxPositionSize > c.Capital {
		return &domain.ConfigError{Field: "MAX_POSITION_SIZE", Reason: "must be finite, positive, and <= CAPITAL"}
	}
	if !finite(c.MinProfitMarginMult) || c.MinProfitMarginMult < 1.0 || c.MinProfitMarginMult > 10.0 {
		return &domain.ConfigError{Field: "MIN_PROFIT_MARGIN_MULT", Reason: "must be in [1.0, 10.0]"}
	}
	if c.MaxDailyTrades <= 0 {
		return &domain.ConfigError{Field: "MAX_DAILY_TRADES", Reason: "must be positive"}
	}
	if !finite(c.DailyLossLimit) || c.DailyLossLimit <= 0 {
		return &domain.ConfigError{Field: "DAILY_LOSS_LIMIT", Reason: "must be a positive finite number"}
	}
	if c.MaxConsecutiveFailures <= 0 {
		return &domain.ConfigError{Field: "MAX_CONSECUTIVE_FAILURES", Reason: "must be positive"}
	}
	if c.TipPercentile != 95 && c.TipPercentile != 99 {
		return &domain.ConfigError{Field: "TIP_PERCENTILE", Reason: "must be 95 or 99"}
	}
	if c.MaxConcurrentOpportunities <= 0 {
		return &domain.ConfigError{Field: "MAX_CONCURRENT_OPPORTUNITIES", Reason: "must be positive"}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func getFloat(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Redacted returns a copy of the config with secrets blanked, safe for
// logging (used by `cmd config check`).
func (c *Config) Redacted() Config {
	cp := *c
	if cp.WalletPrivateKey != "" {
		cp.WalletPrivateKey = "[redacted]"
	}
	if cp.AggregatorAPIKey != "" {
		cp.AggregatorAPIKey = "[redacted]"
	}
	return cp
}

// String implements fmt.Stringer for human-readable summaries.
func (c Config) String() string {
	return fmt.Sprintf("stream=%s rpc=%s sidecar=%s capital=%.4f max_position=%.4f paper=%v real=%v",
		c.StreamEndpoint, c.RPCEndpoint, c.SidecarEndpoint, c.Capital, c.MaxPositionSize, c.PaperTrading, c.EnableRealTrading)
}
