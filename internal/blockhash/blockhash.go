// Package blockhash maintains a recent-blockhash cache (C5): a
// background task fetches a fresh blockhash every 400 ms, and get()
// returns the cached value when its age is under 5 s, otherwise
// fetches synchronously and repopulates.
package blockhash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/domain"
)

const (
	refreshInterval = 400 * time.Millisecond
	freshWindow     = 5 * time.Second
	cacheLifetime   = 60 * time.Second
)

// Fetcher retrieves the current chain blockhash. Implementations wrap
// an RPC client; kept as an interface so tests can stub it without a
// live endpoint.
type Fetcher interface {
	FetchBlockhash(ctx context.Context) (domain.Address, error)
}

// Cache holds the most recently observed blockhash.
type Cache struct {
	fetcher Fetcher

	mu        sync.RWMutex
	hash      domain.Address
	fetchedAt time.Time
}

// New constructs a Cache with no blockhash yet cached; the first Get
// call will fetch synchronously.
func New(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Age reports how long ago the cached blockhash was fetched. A zero
// fetchedAt (never populated) reports an age larger than any realistic
// threshold.
func (c *Cache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fetchedAt.IsZero() {
		return cacheLifetime * 10
	}
	return time.Since(c.fetchedAt)
}

// Get returns the cached blockhash when its age is under 5 s;
// otherwise it fetches synchronously and repopulates the cache.
func (c *Cache) Get(ctx context.Context) (domain.Address, error) {
	if c.Age() < freshWindow {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.hash, nil
	}
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) (domain.Address, error) {
	hash, err := c.fetcher.FetchBlockhash(ctx)
	if err != nil {
		return domain.Address{}, fmt.Errorf("fetch blockhash: %w", err)
	}
	c.mu.Lock()
	c.hash = hash
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return hash, nil
}

// Run drives the background refresh loop until ctx is canceled,
// fetching a fresh blockhash every 400 ms. Fetch errors are logged and
// leave the prior cached hash in place.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("blockhash background refresh failed, keeping prior hash")
			}
		}
	}
}

// RPCFetcher is the HTTP JSON-RPC Fetcher used in production,
// targeting an RPC endpoint's getLatestBlockhash method.
type RPCFetcher struct {
	client   *http.Client
	endpoint string
}

// NewRPCFetcher constructs an RPCFetcher against the given endpoint.
func NewRPCFetcher(client *http.Client, endpoint string) *RPCFetcher {
	return &RPCFetcher{client: client, endpoint: endpoint}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FetchBlockhash issues a getLatestBlockhash JSON-RPC call and decodes
// the base58 result into a 32-byte address.
func (f *RPCFetcher) FetchBlockhash(ctx context.Context) (domain.Address, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getLatestBlockhash",
		Params:  []interface{}{map[string]string{"commitment": "confirmed"}},
	})
	if err != nil {
		return domain.Address{}, fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Address{}, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Address{}, fmt.Errorf("rpc call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Address{}, fmt.Errorf("rpc endpoint returned status %d", resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Address{}, fmt.Errorf("decode rpc response: %w", err)
	}
	if parsed.Error != nil {
		return domain.Address{}, fmt.Errorf("rpc error: %s", parsed.Error.Message)
	}

	raw, err := base58.Decode(parsed.Result.Value.Blockhash)
	if err != nil {
		return domain.Address{}, fmt.Errorf("decode base58 blockhash: %w", err)
	}
	if len(raw) != 32 {
		return domain.Address{}, fmt.Errorf("unexpected blockhash length %d", len(raw))
	}

	var hash domain.Address
	copy(hash[:], raw)
	return hash, nil
}
