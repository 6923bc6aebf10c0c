package registry

import (
	"fmt"
	"sync"

	"github.com/crossvenue/arbengine/internal/domain"
)

// PoolRegistry is the dynamic C2 table: full pool address to
// descriptor. Entries are immutable once inserted — a second Insert
// for the same address is an error unless preceded by Remove. Keyed
// end-to-end on the full on-chain address (the short handle the price
// stream emits is a display artifact only and never a lookup key).
type PoolRegistry struct {
	mu    sync.RWMutex
	pools map[string]domain.PoolDescriptor
}

// NewPoolRegistry returns an empty pool registry.
func NewPoolRegistry() *PoolRegistry {
	return &PoolRegistry{pools: make(map[string]domain.PoolDescriptor)}
}

// Insert adds a new pool descriptor, keyed on its FullAddress. Returns
// an error if a descriptor is already registered at that address.
func (p *PoolRegistry) Insert(d domain.PoolDescriptor) error {
	if d.FullAddress == "" {
		return fmt.Errorf("pool descriptor missing full_address")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.pools[d.FullAddress]; exists {
		return fmt.Errorf("pool %s already registered, remove before replacing", d.FullAddress)
	}
	p.pools[d.FullAddress] = d
	return nil
}

// Get resolves a pool descriptor by its full address.
func (p *PoolRegistry) Get(fullAddress string) (domain.PoolDescriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.pools[fullAddress]
	if !ok {
		return domain.PoolDescriptor{}, domain.ErrPoolMissing
	}
	return d, nil
}

// Remove deletes a pool descriptor, clearing the way for re-insertion
// (e.g. on a confirmed pool migration). A no-op if absent.
func (p *PoolRegistry) Remove(fullAddress string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pools, fullAddress)
}

// Len reports the number of registered pools.
func (p *PoolRegistry) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pools)
}

// Has reports whether fullAddress is currently registered.
func (p *PoolRegistry) Has(fullAddress string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.pools[fullAddress]
	return ok
}
