package pricecache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crossvenue/arbengine/internal/domain"
)

func testAddress(b byte) domain.Address {
	var a domain.Address
	a[0] = b
	return a
}

func TestUpsert_ReplacesSameKey(t *testing.T) {
	c := New(http.DefaultClient, "http://unused", nil)
	asset := testAddress(1)

	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "RaydiumAmmV4", PriceInBase: 1.0, IngestedAt: time.Now()})
	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "RaydiumAmmV4", PriceInBase: 2.0, IngestedAt: time.Now()})

	if c.Len() != 1 {
		t.Fatalf("expected a single record after replace, got %d", c.Len())
	}
	snap := c.Snapshot()
	rec, ok := snap[domain.PriceKey{AssetMint: asset, VenueName: "RaydiumAmmV4"}]
	if !ok || rec.PriceInBase != 2.0 {
		t.Fatalf("expected replaced record with price 2.0, got %+v (ok=%v)", rec, ok)
	}
}

func TestSnapshot_FiltersStaleEntries(t *testing.T) {
	c := New(http.DefaultClient, "http://unused", nil)
	asset := testAddress(2)

	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "fresh", IngestedAt: time.Now()})
	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "stale", IngestedAt: time.Now().Add(-11 * time.Second)})

	snap := c.Snapshot()
	if _, ok := snap[domain.PriceKey{AssetMint: asset, VenueName: "fresh"}]; !ok {
		t.Fatal("expected fresh record in snapshot")
	}
	if _, ok := snap[domain.PriceKey{AssetMint: asset, VenueName: "stale"}]; ok {
		t.Fatal("expected record older than 2*TTL to be filtered from snapshot")
	}
	if c.Len() != 2 {
		t.Fatal("stale records must not be evicted eagerly, only filtered at read")
	}
}

func TestSnapshotByAsset_GroupsByAssetMint(t *testing.T) {
	c := New(http.DefaultClient, "http://unused", nil)
	asset := testAddress(3)

	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "A", IngestedAt: time.Now()})
	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "B", IngestedAt: time.Now()})

	grouped := c.SnapshotByAsset()
	if len(grouped[asset]) != 2 {
		t.Fatalf("expected 2 records grouped under asset, got %d", len(grouped[asset]))
	}
}

func TestNeedsRefresh_TrueBeforeFirstFetch(t *testing.T) {
	c := New(http.DefaultClient, "http://unused", nil)
	if !c.NeedsRefresh() {
		t.Fatal("expected needs_refresh before any successful fetch")
	}
}

func TestRefresh_UpsertsFromJSONArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(wireResponse{
			Prices: []wireRecord{
				{
					AssetMint:   testAddress(9).String(),
					VenueName:   "OrcaWhirlpool",
					PriceInBase: 42.5,
					Volume24h:   1000,
					PoolHandle:  "fullpooladdress",
				},
			},
			TotalTokens: 1,
		})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, nil)
	if err := c.Refresh(context.TODO()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if c.NeedsRefresh() {
		t.Fatal("expected needs_refresh false immediately after a successful fetch")
	}

	snap := c.Snapshot()
	rec, ok := snap[domain.PriceKey{AssetMint: testAddress(9), VenueName: "OrcaWhirlpool"}]
	if !ok || rec.PriceInBase != 42.5 || rec.PoolHandle != "fullpooladdress" {
		t.Fatalf("expected upserted record from refresh, got %+v (ok=%v)", rec, ok)
	}
}

func TestRefresh_PreservesPriorDataOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, nil)
	asset := testAddress(4)
	c.Upsert(domain.PriceRecord{AssetMint: asset, VenueName: "kept", IngestedAt: time.Now()})

	if err := c.Refresh(context.TODO()); err == nil {
		t.Fatal("expected refresh to fail against a 500 server")
	}
	if c.Len() != 1 {
		t.Fatal("expected prior record to survive a failed refresh with no partial clear")
	}
}
