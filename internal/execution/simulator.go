package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crossvenue/arbengine/internal/domain"
	"github.com/crossvenue/arbengine/internal/rpcpool"
)

// SimulationResult is the outcome of a dry-run simulation. A bundle
// whose simulation would fail is rejected before it ever reaches the
// sidecar (§4.6 step 4 is mandatory, never skippable).
type SimulationResult struct {
	WouldSucceed  bool
	UnitsConsumed uint64
	Logs          []string
	FailureReason string
}

// Simulator dry-runs a built instruction set against current chain
// state before submission.
type Simulator interface {
	Simulate(ctx context.Context, instructions []domain.Instruction) (SimulationResult, error)
}

// RPCSimulator calls the chain RPC's simulateTransaction method,
// rotating across endpoints on transport failure.
type RPCSimulator struct {
	pool   *rpcpool.Pool
	client *http.Client
}

// NewRPCSimulator builds a simulator backed by an RPC endpoint pool.
func NewRPCSimulator(endpoints []string, client *http.Client) *RPCSimulator {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RPCSimulator{pool: rpcpool.New("simulator", endpoints), client: client}
}

type simulateRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type simulateRPCResponse struct {
	Result *struct {
		Value struct {
			Err           interface{} `json:"err"`
			Logs          []string    `json:"logs"`
			UnitsConsumed uint64      `json:"unitsConsumed"`
		} `json:"value"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Simulate encodes instructions into an opaque base64 payload (the
// transaction wire format is out of scope here: the instructions are
// JSON-encoded as given, and the pipeline passes them unsigned) and
// posts it to simulateTransaction.
func (s *RPCSimulator) Simulate(ctx context.Context, instructions []domain.Instruction) (SimulationResult, error) {
	encoded, err := json.Marshal(instructions)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("simulator: encode instructions: %w", err)
	}

	var result SimulationResult
	err = rpcpool.Do(s.pool, func(endpoint string) error {
		r, e := s.simulateOnce(ctx, endpoint, encoded)
		if e != nil {
			return e
		}
		result = r
		return nil
	})
	return result, err
}

func (s *RPCSimulator) simulateOnce(ctx context.Context, endpoint string, encoded []byte) (SimulationResult, error) {
	body, err := json.Marshal(simulateRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "simulateTransaction",
		Params:  []interface{}{string(encoded)},
	})
	if err != nil {
		return SimulationResult{}, fmt.Errorf("simulator: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return SimulationResult{}, fmt.Errorf("simulator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("simulator: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SimulationResult{}, fmt.Errorf("simulator: status %d", resp.StatusCode)
	}

	var rpcResp simulateRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return SimulationResult{}, fmt.Errorf("simulator: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return SimulationResult{}, fmt.Errorf("simulator: rpc error: %s", rpcResp.Error.Message)
	}
	if rpcResp.Result == nil {
		return SimulationResult{}, fmt.Errorf("simulator: empty result")
	}

	v := rpcResp.Result.Value
	if v.Err != nil {
		return SimulationResult{
			WouldSucceed:  false,
			UnitsConsumed: v.UnitsConsumed,
			Logs:          v.Logs,
			FailureReason: fmt.Sprintf("%v", v.Err),
		}, nil
	}
	return SimulationResult{WouldSucceed: true, UnitsConsumed: v.UnitsConsumed, Logs: v.Logs}, nil
}

// FakeSimulator always returns a fixed result, for paper trading and
// tests where no live RPC is available.
type FakeSimulator struct {
	Result SimulationResult
	Err    error
}

// Simulate returns the configured fixed result.
func (f FakeSimulator) Simulate(context.Context, []domain.Instruction) (SimulationResult, error) {
	return f.Result, f.Err
}
