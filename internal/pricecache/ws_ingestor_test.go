package pricecache

import (
	"testing"
	"time"

	"github.com/crossvenue/arbengine/internal/domain"
)

type recordingSink struct {
	records []domain.PriceRecord
}

func (s *recordingSink) Upsert(record domain.PriceRecord) {
	s.records = append(s.records, record)
}

func TestWSIngestor_HandleUpsertsValidRecord(t *testing.T) {
	sink := &recordingSink{}
	w := NewWSIngestor("ws://unused", sink)

	w.handle(wsRecord{
		AssetMint:   testAddress(5).String(),
		VenueName:   "RaydiumCpmm",
		PriceInBase: 3.5,
		Volume24h:   100,
		PoolHandle:  "pool",
	})

	if len(sink.records) != 1 {
		t.Fatalf("expected one upserted record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.AssetMint != testAddress(5) || rec.VenueName != "RaydiumCpmm" || rec.PriceInBase != 3.5 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if time.Since(rec.IngestedAt) > time.Second {
		t.Fatal("expected IngestedAt to be stamped at handle time")
	}
}

func TestWSIngestor_HandleDropsUnparseableMint(t *testing.T) {
	sink := &recordingSink{}
	w := NewWSIngestor("ws://unused", sink)

	w.handle(wsRecord{AssetMint: "not-a-valid-address", VenueName: "RaydiumCpmm", PriceInBase: 1})

	if len(sink.records) != 0 {
		t.Fatalf("expected unparseable mint to be dropped, got %d records", len(sink.records))
	}
}

func TestWSIngestor_CloseWithoutConnectionIsNoop(t *testing.T) {
	w := NewWSIngestor("ws://unused", &recordingSink{})
	if err := w.Close(); err != nil {
		t.Fatalf("expected no error closing an unconnected ingestor, got %v", err)
	}
}
