// Package aggregator implements an optional cross-check against a
// Jupiter-style quote aggregator: given the two assets of a triangle
// leg, it asks the aggregator for its own exchange ratio and reports
// how far the detector's inferred middle-leg ratio diverged. The
// cross-check never gates detection; it is logged only.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/domain"
)

// Client queries an aggregator-quote HTTP endpoint for the
// inputMint->outputMint exchange ratio.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New constructs a Client against baseURL using httpClient, which is
// expected to already carry the provider's rate limiter and circuit
// breaker per config.AggregatorQuoteConfig.
func New(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

type quoteResponse struct {
	InAmount  string `json:"inAmount"`
	OutAmount string `json:"outAmount"`
}

// Ratio fetches the aggregator's outAmount/inAmount exchange ratio for
// a swap of amount (truncated to an integer) from inputMint to
// outputMint.
func (c *Client) Ratio(ctx context.Context, inputMint, outputMint domain.Address, amount float64) (float64, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint.Base58())
	q.Set("outputMint", outputMint.Base58())
	q.Set("amount", fmt.Sprintf("%d", int64(amount)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build aggregator quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch aggregator quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("aggregator quote returned status %d", resp.StatusCode)
	}

	var parsed quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode aggregator quote: %w", err)
	}

	var in, out float64
	if _, err := fmt.Sscanf(parsed.InAmount, "%f", &in); err != nil || in <= 0 {
		return 0, fmt.Errorf("aggregator quote: invalid inAmount %q", parsed.InAmount)
	}
	if _, err := fmt.Sscanf(parsed.OutAmount, "%f", &out); err != nil {
		return 0, fmt.Errorf("aggregator quote: invalid outAmount %q", parsed.OutAmount)
	}
	return out / in, nil
}

// CheckRatio compares the detector's inferred middle-leg ratio against
// the aggregator's own quote and logs the divergence at debug level.
// Failures to reach the aggregator are logged and otherwise ignored:
// this is a cross-check, not a dependency.
func (c *Client) CheckRatio(ctx context.Context, assetA, assetB domain.Address, inferredRatio, amount float64) {
	actual, err := c.Ratio(ctx, assetA, assetB, amount)
	if err != nil {
		log.Debug().Err(err).Msg("aggregator cross-check unavailable")
		return
	}
	divergence := (inferredRatio - actual) / actual
	log.Debug().
		Float64("inferred_ratio", inferredRatio).
		Float64("aggregator_ratio", actual).
		Float64("divergence_pct", divergence*100).
		Msg("triangle middle-leg cross-check")
}
