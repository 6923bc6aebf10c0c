package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/crossvenue/arbengine/internal/domain"
)

type fakeStats struct{ snap domain.RuntimeStatistics }

func (f fakeStats) Snapshot() domain.RuntimeStatistics { return f.snap }

func TestHandleHealth(t *testing.T) {
	s := &Server{stats: fakeStats{}, router: mux.NewRouter()}
	s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	want := domain.RuntimeStatistics{OpportunitiesDetected: 42, TotalProfitInBase: 1.5}
	s := &Server{stats: fakeStats{snap: want}, router: mux.NewRouter()}
	s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got domain.RuntimeStatistics
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestHandleNotFound(t *testing.T) {
	s := &Server{stats: fakeStats{}, router: mux.NewRouter()}
	s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
