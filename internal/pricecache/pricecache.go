// Package pricecache implements the streaming price cache (C3): a
// concurrent (asset, venue) -> price-record map that ingests a
// high-rate event stream, serves point-in-time snapshots to scanners,
// and refreshes itself from a rate-limited, circuit-broken HTTP
// source without ever blocking readers on a slow fetch.
package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/domain"
	"github.com/crossvenue/arbengine/internal/net/ratelimit"
)

const (
	defaultTTL = 5 * time.Second
	staleMult  = 2

	backoffBase  = 100 * time.Millisecond
	backoffMax   = 1600 * time.Millisecond
	backoffTries = 5
)

// Ingestor absorbs one externally-sourced price record into the
// cache. Both the HTTP polling refresher and an alternate websocket
// feed implement it by calling Upsert.
type Ingestor interface {
	Upsert(record domain.PriceRecord)
}

// Cache is the concurrent (asset, venue) price map.
type Cache struct {
	ttl time.Duration

	mu         sync.RWMutex
	records    map[domain.PriceKey]domain.PriceRecord
	lastFetch  time.Time

	client  *http.Client
	source  string
	limiter *ratelimit.Limiter
}

// New constructs a Cache with the default 5 s TTL.
func New(client *http.Client, source string, limiter *ratelimit.Limiter) *Cache {
	return &Cache{
		ttl:     defaultTTL,
		records: make(map[domain.PriceKey]domain.PriceRecord),
		client:  client,
		source:  source,
		limiter: limiter,
	}
}

// Upsert absorbs one record, replacing any prior record for the same
// (asset_mint, venue_name) key. Satisfies Ingestor.
func (c *Cache) Upsert(record domain.PriceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[record.Key()] = record
}

// NeedsRefresh reports whether the last successful fetch is absent or
// older than the TTL.
func (c *Cache) NeedsRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch.IsZero() || time.Since(c.lastFetch) > c.ttl
}

// Snapshot returns a point-in-time copy of every record fresh enough
// to read: age <= 2*TTL. Callers get a stable view for one scan tick.
func (c *Cache) Snapshot() map[domain.PriceKey]domain.PriceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cutoff := staleMult * c.ttl
	out := make(map[domain.PriceKey]domain.PriceRecord, len(c.records))
	for k, v := range c.records {
		if time.Since(v.IngestedAt) <= cutoff {
			out[k] = v
		}
	}
	return out
}

// SnapshotByAsset groups the same fresh-filtered snapshot by asset
// mint, the shape C7's pair/triangle scans consume directly.
func (c *Cache) SnapshotByAsset() map[domain.Address][]domain.PriceRecord {
	flat := c.Snapshot()
	out := make(map[domain.Address][]domain.PriceRecord)
	for _, rec := range flat {
		out[rec.AssetMint] = append(out[rec.AssetMint], rec)
	}
	return out
}

// Len reports the current record count, including stale entries not
// yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

type wireRecord struct {
	AssetMint   string  `json:"token_mint"`
	VenueName   string  `json:"dex"`
	PriceInBase float64 `json:"price_sol"`
	Volume24h   float64 `json:"volume_24h"`
	PoolHandle  string  `json:"pool_address"`
}

type wireResponse struct {
	Prices      []wireRecord `json:"prices"`
	TotalTokens int          `json:"total_tokens"`
}

// Refresh fetches a fresh JSON array from the configured source
// behind the rate limiter, with exponential backoff on transient
// failure (100ms x2, cap 1.6s, 5 attempts). On total failure, prior
// data is preserved untouched — no partial clears.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.source); err != nil {
			return fmt.Errorf("price cache rate limit wait: %w", err)
		}
	}

	backoff := backoffBase
	var lastErr error
	for attempt := 0; attempt < backoffTries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > backoffMax {
				backoff = backoffMax
			}
		}

		records, err := c.fetchOnce(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		c.mu.Lock()
		for _, rec := range records {
			c.records[rec.Key()] = rec
		}
		c.lastFetch = time.Now()
		c.mu.Unlock()
		return nil
	}

	log.Warn().Err(lastErr).Str("source", c.source).Msg("price cache refresh exhausted retries, preserving prior data")
	return fmt.Errorf("price cache refresh failed after %d attempts: %w", backoffTries, lastErr)
}

func (c *Cache) fetchOnce(ctx context.Context) ([]domain.PriceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
	if err != nil {
		return nil, fmt.Errorf("build price fetch request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch price stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price stream returned status %d", resp.StatusCode)
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode price stream response: %w", err)
	}

	now := time.Now()
	out := make([]domain.PriceRecord, 0, len(wire.Prices))
	for _, w := range wire.Prices {
		addr, err := domain.ParseAddress(w.AssetMint)
		if err != nil {
			continue
		}
		out = append(out, domain.PriceRecord{
			AssetMint:   addr,
			VenueName:   w.VenueName,
			PriceInBase: w.PriceInBase,
			Volume24h:   w.Volume24h,
			PoolHandle:  w.PoolHandle,
			IngestedAt:  now,
		})
	}
	return out, nil
}

// Run drives the background refresh loop until ctx is canceled,
// triggering a Refresh whenever NeedsRefresh reports true.
func (c *Cache) Run(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.NeedsRefresh() {
				if err := c.Refresh(ctx); err != nil {
					log.Debug().Err(err).Msg("scheduled price cache refresh failed")
				}
			}
		}
	}
}
