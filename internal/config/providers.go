package config

import (
	"fmt"
	"time"
)

// ProviderConfig is the operational configuration for one outbound
// dependency (price stream, tip oracle, aggregator, sidecar): rate
// limit, circuit breaker, and backoff. Mirrors the shape used for
// every HTTP-speaking component in §4 and §5.
type ProviderConfig struct {
	Name             string
	BaseURL          string
	RPS              float64
	Burst            int
	RequestTimeout   time.Duration
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	BackoffAttempts  int
	FailureThreshold int
	SuccessThreshold int
	CircuitTimeout   time.Duration
	DailyBudget      int64 // 0 means unbounded
}

// Validate ensures a provider configuration is internally consistent.
func (p ProviderConfig) Validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("provider %s: base_url cannot be empty", p.Name)
	}
	if p.RPS <= 0 {
		return fmt.Errorf("provider %s: rps must be positive", p.Name)
	}
	if p.Burst <= 0 {
		return fmt.Errorf("provider %s: burst must be positive", p.Name)
	}
	if p.BackoffMax <= p.BackoffBase {
		return fmt.Errorf("provider %s: backoff_max must exceed backoff_base", p.Name)
	}
	if p.FailureThreshold <= 0 || p.SuccessThreshold <= 0 {
		return fmt.Errorf("provider %s: circuit thresholds must be positive", p.Name)
	}
	return nil
}

// PriceStreamConfig returns the §4.1 operational defaults for the
// price-cache refresh path: 10 req/s, 5s timeout, 100ms/x2/cap 1.6s
// backoff across 5 attempts.
func PriceStreamConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:             "price_stream",
		BaseURL:          baseURL,
		RPS:              10,
		Burst:            10,
		RequestTimeout:   5 * time.Second,
		BackoffBase:      100 * time.Millisecond,
		BackoffMax:       1600 * time.Millisecond,
		BackoffAttempts:  5,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CircuitTimeout:   30 * time.Second,
	}
}

// TipOracleConfig returns the §4.2 operational defaults: 10 min
// refresh cadence, retry x2, cap 10 min.
func TipOracleConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:             "tip_oracle",
		BaseURL:          baseURL,
		RPS:              1,
		Burst:            1,
		RequestTimeout:   10 * time.Second,
		BackoffBase:      10 * time.Second,
		BackoffMax:       10 * time.Minute,
		BackoffAttempts:  2,
		FailureThreshold: 3,
		SuccessThreshold: 1,
		CircuitTimeout:   10 * time.Minute,
	}
}

// AggregatorQuoteConfig returns the §6 aggregator rate-limit policy:
// 5 requests per scan cycle, 50 per 10s overall.
func AggregatorQuoteConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:             "aggregator_quote",
		BaseURL:          baseURL,
		RPS:              5,
		Burst:            5,
		RequestTimeout:   3 * time.Second,
		BackoffBase:      200 * time.Millisecond,
		BackoffMax:       2 * time.Second,
		BackoffAttempts:  3,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CircuitTimeout:   30 * time.Second,
		DailyBudget:      50 * 6 * 60 * 24, // generous ceiling; the 50/10s bucket is the binding constraint
	}
}

// RPCConfig returns defaults for the chain RPC endpoint used by C5/C9.
func RPCConfig(baseURL string) ProviderConfig {
	return ProviderConfig{
		Name:             "chain_rpc",
		BaseURL:          baseURL,
		RPS:              20,
		Burst:            20,
		RequestTimeout:   3 * time.Second,
		BackoffBase:      100 * time.Millisecond,
		BackoffMax:       1 * time.Second,
		BackoffAttempts:  3,
		FailureThreshold: 8,
		SuccessThreshold: 2,
		CircuitTimeout:   15 * time.Second,
	}
}

// SidecarConfig returns defaults for the low-latency bundle submission
// channel used by C9.
func SidecarConfig(endpoint string) ProviderConfig {
	return ProviderConfig{
		Name:             "sidecar",
		BaseURL:          endpoint,
		RPS:              50,
		Burst:            50,
		RequestTimeout:   2 * time.Second,
		BackoffBase:      50 * time.Millisecond,
		BackoffMax:       500 * time.Millisecond,
		BackoffAttempts:  2,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CircuitTimeout:   10 * time.Second,
	}
}
