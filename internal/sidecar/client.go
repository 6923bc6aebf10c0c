// Package sidecar implements the bundle-submission transport (C9):
// a gRPC SearcherService client using a JSON wire codec in place of
// generated protobuf stubs, an HTTP JSON-RPC fallback for
// environments without a gRPC sidecar, and endpoint round-robin on
// failure.
package sidecar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/crossvenue/arbengine/internal/rpcpool"
)

const (
	serviceName              = "searcher.SearcherService"
	sendBundleMethod         = "/" + serviceName + "/SendBundle"
	getTipAccountsMethod     = "/" + serviceName + "/GetTipAccounts"
	subscribeResultsMethod   = "/" + serviceName + "/SubscribeBundleResults"
	dialTimeout              = 5 * time.Second
)

// Client submits bundles via gRPC with an HTTP fallback, rotating
// endpoints on failure the way the original searcher client does.
type Client struct {
	pool *rpcpool.Pool
	conn *grpc.ClientConn

	httpClient *httpFallbackClient
}

// NewClient dials the first endpoint in the pool over TLS. If dialing
// fails the client still constructs successfully, but it does not
// redial later: every SendBundle then goes through the HTTP fallback
// and GetTipAccounts returns an error.
func NewClient(endpoints []string, httpEndpoint string) (*Client, error) {
	pool := rpcpool.New("sidecar", endpoints)
	c := &Client{
		pool:       pool,
		httpClient: newHTTPFallbackClient(httpEndpoint),
	}
	if err := c.dial(pool.Current()); err != nil {
		log.Warn().Err(err).Str("endpoint", pool.Current()).Msg("sidecar: initial grpc dial failed, using HTTP fallback only")
	}
	return c, nil
}

func (c *Client) dial(endpoint string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(nil)),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
		grpc.WithBlock(),
	)
	if err != nil {
		return fmt.Errorf("dial sidecar endpoint %s: %w", endpoint, err)
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	return nil
}

// rotateAndRedial advances the endpoint pool and attempts to dial the
// new current endpoint, mirroring rotate_endpoint's reconnect step.
func (c *Client) rotateAndRedial() error {
	next := c.pool.Rotate()
	return c.dial(next)
}

// SendBundle submits a bundle of already-signed, tip-inclusive
// transactions. It tries the current gRPC endpoint, rotates once and
// retries on failure, and falls back to HTTP JSON-RPC if gRPC is
// unavailable entirely.
func (c *Client) SendBundle(ctx context.Context, transactions [][]byte) (string, error) {
	req := &SendBundleRequest{Transactions: transactions}

	if c.conn != nil {
		resp, err := c.sendBundleGRPC(ctx, req)
		if err == nil {
			return resp.BundleID, nil
		}
		log.Warn().Err(err).Msg("sidecar: grpc send_bundle failed, rotating endpoint")

		if redialErr := c.rotateAndRedial(); redialErr == nil {
			resp, err = c.sendBundleGRPC(ctx, req)
			if err == nil {
				return resp.BundleID, nil
			}
			log.Warn().Err(err).Msg("sidecar: grpc send_bundle failed after rotation, falling back to http")
		}
	}

	return c.httpClient.sendBundle(ctx, req)
}

func (c *Client) sendBundleGRPC(ctx context.Context, req *SendBundleRequest) (*SendBundleResponse, error) {
	resp := &SendBundleResponse{}
	if err := c.conn.Invoke(ctx, sendBundleMethod, req, resp); err != nil {
		return nil, fmt.Errorf("grpc send_bundle: %w", err)
	}
	return resp, nil
}

// GetTipAccounts fetches the sidecar's current tip account set.
func (c *Client) GetTipAccounts(ctx context.Context) ([]string, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("sidecar: no active grpc connection")
	}
	resp := &getTipAccountsResponse{}
	if err := c.conn.Invoke(ctx, getTipAccountsMethod, &getTipAccountsRequest{}, resp); err != nil {
		return nil, fmt.Errorf("grpc get_tip_accounts: %w", err)
	}
	return resp.Accounts, nil
}

var subscribeStreamDesc = &grpc.StreamDesc{
	StreamName:    "SubscribeBundleResults",
	ServerStreams: true,
}

// SubscribeBundleResults opens the streaming results channel and
// forwards decoded results on the returned channel until ctx is
// canceled or the stream ends. The channel is closed on return.
func (c *Client) SubscribeBundleResults(ctx context.Context) (<-chan BundleResult, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("sidecar: no active grpc connection")
	}
	stream, err := c.conn.NewStream(ctx, subscribeStreamDesc, subscribeResultsMethod)
	if err != nil {
		return nil, fmt.Errorf("open bundle results stream: %w", err)
	}
	if err := stream.SendMsg(&subscribeRequest{}); err != nil {
		return nil, fmt.Errorf("send subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("close subscribe send side: %w", err)
	}

	out := make(chan BundleResult)
	go func() {
		defer close(out)
		for {
			var result BundleResult
			if err := stream.RecvMsg(&result); err != nil {
				if err != context.Canceled {
					log.Debug().Err(err).Msg("sidecar: bundle results stream ended")
				}
				return
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
