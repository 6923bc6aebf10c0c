// Package client wraps an http.RoundTripper with per-provider rate
// limiting, circuit breaking, and budget enforcement, so every
// outbound call the engine makes (price-stream refresh, tip-oracle
// fetch, aggregator quote, chain RPC, sidecar HTTP fallback) goes
// through the same middleware stack.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/crossvenue/arbengine/internal/config"
	"github.com/crossvenue/arbengine/internal/net/budget"
	"github.com/crossvenue/arbengine/internal/net/circuit"
	"github.com/crossvenue/arbengine/internal/net/ratelimit"
)

// WrapperConfig configures the HTTP client wrapper for one provider.
type WrapperConfig struct {
	Provider       string
	ProviderConfig config.ProviderConfig
	RateLimiter    *ratelimit.Limiter
	CircuitBreaker *circuit.Breaker
	BudgetTracker  *budget.Tracker
}

// Wrapper wraps an HTTP RoundTripper with rate limiting, circuit
// breaking, and daily budget enforcement.
type Wrapper struct {
	cfg       WrapperConfig
	transport http.RoundTripper
	userAgent string
}

// NewWrapper creates a new HTTP client wrapper with the full
// middleware stack.
func NewWrapper(cfg WrapperConfig, transport http.RoundTripper) *Wrapper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Wrapper{cfg: cfg, transport: transport, userAgent: "arbengine/1.0"}
}

// RoundTrip implements http.RoundTripper.
func (w *Wrapper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	if w.cfg.BudgetTracker != nil {
		if err := w.cfg.BudgetTracker.Allow(); err != nil {
			if _, exhausted := err.(*budget.BudgetExhaustedError); exhausted {
				return nil, &ProviderError{Provider: w.cfg.Provider, Type: "budget", Err: err}
			}
		}
	}

	if w.cfg.RateLimiter != nil {
		if err := w.cfg.RateLimiter.Wait(req.Context(), w.cfg.ProviderConfig.BaseURL); err != nil {
			return nil, &ProviderError{Provider: w.cfg.Provider, Type: "rate_limit", Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	var response *http.Response
	execute := func(ctx context.Context) error {
		if w.cfg.BudgetTracker != nil {
			_ = w.cfg.BudgetTracker.Consume()
		}

		resp, err := w.transport.RoundTrip(req.WithContext(ctx))
		if err != nil {
			return &ProviderError{Provider: w.cfg.Provider, Type: "transport", Err: err}
		}
		if resp.StatusCode >= 500 {
			return &ProviderError{Provider: w.cfg.Provider, Type: "http_5xx", StatusCode: resp.StatusCode, Err: fmt.Errorf("server error")}
		}
		response = resp
		return nil
	}

	var err error
	if w.cfg.CircuitBreaker != nil {
		err = w.cfg.CircuitBreaker.Call(req.Context(), execute)
	} else {
		err = execute(req.Context())
	}
	if err != nil {
		return nil, err
	}
	return response, nil
}

// ProviderError carries the provider name and failure category
// (§7 taxonomy: rate_limit/budget/transport/http_5xx). An open
// circuit is returned as the breaker's own error, not as a
// ProviderError.
type ProviderError struct {
	Provider   string
	Type       string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s %s (HTTP %d): %v", e.Provider, e.Type, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s %s: %v", e.Provider, e.Type, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether the error category should be retried
// locally rather than surfaced (§7 NetworkTransient).
func (e *ProviderError) IsTransient() bool {
	switch e.Type {
	case "transport", "http_5xx", "rate_limit":
		return true
	default:
		return false
	}
}

// NewClient builds an *http.Client for a provider, wired through rate
// limiting, circuit breaking, and budget enforcement.
func NewClient(providerCfg config.ProviderConfig, limiter *ratelimit.Limiter, breaker *circuit.Breaker, budgetTracker *budget.Tracker) *http.Client {
	wrapper := NewWrapper(WrapperConfig{
		Provider:       providerCfg.Name,
		ProviderConfig: providerCfg,
		RateLimiter:    limiter,
		CircuitBreaker: breaker,
		BudgetTracker:  budgetTracker,
	}, &http.Transport{MaxIdleConnsPerHost: 2, IdleConnTimeout: 30 * time.Second})

	return &http.Client{Transport: wrapper, Timeout: providerCfg.RequestTimeout}
}
