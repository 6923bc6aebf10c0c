package sidecar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpFallbackClient submits bundles via JSON-RPC when no gRPC
// sidecar channel is reachable. Client.SendBundle switches to it on
// its own; the execution pipeline cannot tell which path was used, so
// its AllowNonAtomic refusal does not apply to this fallback (it only
// covers a pipeline built with no submitter at all).
type httpFallbackClient struct {
	endpoint string
	client   *http.Client
}

func newHTTPFallbackClient(endpoint string) *httpFallbackClient {
	return &httpFallbackClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Second},
	}
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCResponse struct {
	Result *SendBundleResponse `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (h *httpFallbackClient) sendBundle(ctx context.Context, req *SendBundleRequest) (string, error) {
	encoded := make([]string, len(req.Transactions))
	for i, tx := range req.Transactions {
		encoded[i] = base64.StdEncoding.EncodeToString(tx)
	}

	body, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendBundle",
		Params:  []interface{}{encoded},
	})
	if err != nil {
		return "", fmt.Errorf("sidecar http fallback: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sidecar http fallback: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sidecar http fallback: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sidecar http fallback: status %d", resp.StatusCode)
	}

	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("sidecar http fallback: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("sidecar http fallback: %s", rpcResp.Error.Message)
	}
	if rpcResp.Result == nil {
		return "", fmt.Errorf("sidecar http fallback: empty result")
	}
	return rpcResp.Result.BundleID, nil
}
