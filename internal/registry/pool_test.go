package registry

import (
	"errors"
	"testing"

	"github.com/crossvenue/arbengine/internal/domain"
)

func TestPoolRegistry_InsertGetRemove(t *testing.T) {
	r := NewPoolRegistry()
	d := domain.PoolDescriptor{FullAddress: "BGm1tav5FullAddressExample111111", VenueKind: "RaydiumAmmV4"}

	if err := r.Insert(d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 pool, got %d", r.Len())
	}

	got, err := r.Get(d.FullAddress)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != d {
		t.Fatalf("expected %+v, got %+v", d, got)
	}

	r.Remove(d.FullAddress)
	if r.Has(d.FullAddress) {
		t.Fatal("expected pool to be removed")
	}
}

func TestPoolRegistry_DuplicateInsertRejected(t *testing.T) {
	r := NewPoolRegistry()
	d := domain.PoolDescriptor{FullAddress: "addr1"}
	if err := r.Insert(d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := r.Insert(d); err == nil {
		t.Fatal("expected error re-inserting an existing pool without a Remove")
	}
}

func TestPoolRegistry_ReinsertAfterRemoveSucceeds(t *testing.T) {
	r := NewPoolRegistry()
	d := domain.PoolDescriptor{FullAddress: "addr1"}
	if err := r.Insert(d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	r.Remove(d.FullAddress)
	if err := r.Insert(d); err != nil {
		t.Fatalf("expected re-insert after remove to succeed: %v", err)
	}
}

func TestPoolRegistry_GetMissingReturnsErrPoolMissing(t *testing.T) {
	r := NewPoolRegistry()
	if _, err := r.Get("nonexistent"); !errors.Is(err, domain.ErrPoolMissing) {
		t.Fatalf("expected ErrPoolMissing, got %v", err)
	}
}

func TestPoolRegistry_InsertRejectsEmptyAddress(t *testing.T) {
	r := NewPoolRegistry()
	if err := r.Insert(domain.PoolDescriptor{}); err == nil {
		t.Fatal("expected error for empty full address")
	}
}
