package sidecar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := jsonCodec{}
	req := &SendBundleRequest{Transactions: [][]byte{{1, 2, 3}}}

	data, err := c.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got SendBundleRequest
	if err := c.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Transactions) != 1 || got.Transactions[0][2] != 3 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestJSONCodec_Name(t *testing.T) {
	if (jsonCodec{}).Name() != "json" {
		t.Fatalf("expected codec name json, got %s", jsonCodec{}.Name())
	}
}

func TestHTTPFallbackClient_SendBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rpcReq jsonRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&rpcReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if rpcReq.Method != "sendBundle" {
			t.Fatalf("unexpected method %q", rpcReq.Method)
		}
		_ = json.NewEncoder(w).Encode(jsonRPCResponse{Result: &SendBundleResponse{BundleID: "bundle-123"}})
	}))
	defer srv.Close()

	client := newHTTPFallbackClient(srv.URL)
	id, err := client.sendBundle(context.Background(), &SendBundleRequest{Transactions: [][]byte{{9}}})
	if err != nil {
		t.Fatalf("send bundle: %v", err)
	}
	if id != "bundle-123" {
		t.Fatalf("expected bundle-123, got %s", id)
	}
}

func TestHTTPFallbackClient_PropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "bundle rejected"},
		})
	}))
	defer srv.Close()

	client := newHTTPFallbackClient(srv.URL)
	_, err := client.sendBundle(context.Background(), &SendBundleRequest{Transactions: [][]byte{{9}}})
	if err == nil {
		t.Fatal("expected propagated rpc error")
	}
}
