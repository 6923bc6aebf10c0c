// Package rpcpool implements a round-robin multi-endpoint pool shared
// by the simulator and the sidecar bundle client (C9):
// try the current endpoint, rotate and retry once on failure, log the
// rotation.
package rpcpool

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Pool holds an ordered endpoint list and the index currently in use.
type Pool struct {
	mu        sync.Mutex
	endpoints []string
	current   int
	label     string
}

// New builds a Pool over endpoints, starting at index 0. Panics if
// endpoints is empty since a pool with nothing to rotate to is a
// startup configuration error.
func New(label string, endpoints []string) *Pool {
	if len(endpoints) == 0 {
		panic("rpcpool: " + label + ": at least one endpoint is required")
	}
	return &Pool{label: label, endpoints: endpoints}
}

// Current returns the endpoint currently selected.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endpoints[p.current]
}

// Rotate advances to the next endpoint, wrapping around, and returns
// the new current endpoint.
func (p *Pool) Rotate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = (p.current + 1) % len(p.endpoints)
	next := p.endpoints[p.current]
	log.Warn().Str("pool", p.label).Str("endpoint", next).Msg("rotating rpc endpoint")
	return next
}

// Len reports the number of configured endpoints.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Do runs fn against the current endpoint. On failure it rotates once
// and retries against the new endpoint, matching the sidecar client's
// single-retry-with-rotation behavior. It never rotates more than
// once per call so a fully down pool fails fast.
func Do(p *Pool, fn func(endpoint string) error) error {
	endpoint := p.Current()
	if err := fn(endpoint); err != nil {
		next := p.Rotate()
		return fn(next)
	}
	return nil
}
