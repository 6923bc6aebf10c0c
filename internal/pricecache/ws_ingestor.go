package pricecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/domain"
)

// WSIngestor streams price updates from a websocket feed and upserts
// each one into a Cache, as an alternative to the HTTP polling
// Refresh/Run loop. Satisfies no interface itself; the cache it feeds
// is the Ingestor.
type WSIngestor struct {
	url    string
	sink   Ingestor
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSIngestor constructs a WSIngestor that writes every received
// record into sink via Upsert.
func NewWSIngestor(url string, sink Ingestor) *WSIngestor {
	return &WSIngestor{url: url, sink: sink, dialer: websocket.DefaultDialer}
}

type wsRecord struct {
	AssetMint   string  `json:"token_mint"`
	VenueName   string  `json:"dex"`
	PriceInBase float64 `json:"price_sol"`
	Volume24h   float64 `json:"volume_24h"`
	PoolHandle  string  `json:"pool_address"`
}

// Run dials the feed and reads records until ctx is cancelled or the
// connection drops; a dropped connection is reconnected with a fixed
// backoff rather than treated as fatal, since the HTTP poller remains
// available as a fallback source of truth.
func (w *WSIngestor) Run(ctx context.Context) {
	const reconnectDelay = 2 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connectAndRead(ctx); err != nil {
			log.Warn().Err(err).Str("url", w.url).Msg("price websocket disconnected, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (w *WSIngestor) connectAndRead(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial price websocket: %w", err)
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	defer func() {
		conn.Close()
		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var rec wsRecord
		if err := conn.ReadJSON(&rec); err != nil {
			return fmt.Errorf("read price websocket message: %w", err)
		}
		w.handle(rec)
	}
}

func (w *WSIngestor) handle(rec wsRecord) {
	addr, err := domain.ParseAddress(rec.AssetMint)
	if err != nil {
		log.Debug().Str("token_mint", rec.AssetMint).Msg("price websocket: unparseable asset mint, dropping record")
		return
	}
	w.sink.Upsert(domain.PriceRecord{
		AssetMint:   addr,
		VenueName:   rec.VenueName,
		PriceInBase: rec.PriceInBase,
		Volume24h:   rec.Volume24h,
		PoolHandle:  rec.PoolHandle,
		IngestedAt:  time.Now(),
	})
}

// Close drops the current connection, if any, forcing connectAndRead
// to return and Run to attempt a fresh dial.
func (w *WSIngestor) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
