package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

func transportCall(args map[string]any) contractx.ToolCall {
	return contractx.ToolCall{Tool: contractx.ToolTransportation, Args: args}
}

func placeResult(name, placeID string) map[string]any {
	return map[string]any{
		"name":              name,
		"formatted_address": name + " address",
		"rating":            4.2,
		"place_id":          placeID,
	}
}

func TestTransportationDedupesAcrossQueries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/place/textsearch/json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		// Central Station comes back for every query; it must appear once.
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				placeResult("Central Station", "place-central"),
			},
		})
	}))
	defer srv.Close()

	adapter := NewTransportationAdapter(TransportationConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), transportCall(map[string]any{"city": "Tokyo"}))
	if !res.OK() {
		t.Fatalf("Invoke() failed: %+v", res.Failure)
	}

	var options []TransportOption
	if err := json.Unmarshal(res.Payload, &options); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("duplicate place ids must collapse, got %d options", len(options))
	}
	if options[0].PlaceID != "place-central" {
		t.Fatalf("unexpected option: %+v", options[0])
	}
}

func TestTransportationCapsResults(t *testing.T) {
	t.Parallel()

	var serial int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]any, 0, 6)
		for i := 0; i < 6; i++ {
			serial++
			results = append(results, placeResult(fmt.Sprintf("Hub %d", serial), fmt.Sprintf("place-%d", serial)))
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": results})
	}))
	defer srv.Close()

	adapter := NewTransportationAdapter(TransportationConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), transportCall(map[string]any{"city": "Tokyo"}))
	if !res.OK() {
		t.Fatalf("Invoke() failed: %+v", res.Failure)
	}

	var options []TransportOption
	if err := json.Unmarshal(res.Payload, &options); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(options) != maxTransportResults {
		t.Fatalf("expected cap at %d, got %d", maxTransportResults, len(options))
	}
}

func TestTransportationModePrependsQuery(t *testing.T) {
	t.Parallel()

	var firstQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if firstQuery == "" {
			firstQuery = r.URL.Query().Get("query")
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS"})
	}))
	defer srv.Close()

	adapter := NewTransportationAdapter(TransportationConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), transportCall(map[string]any{"city": "Tokyo", "mode": "tram"}))
	if !res.OK() {
		t.Fatalf("Invoke() failed: %+v", res.Failure)
	}
	if firstQuery != "tram station in Tokyo" {
		t.Fatalf("mode must lead the query list, got %q", firstQuery)
	}
}

func TestTransportationOverQueryLimitIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "OVER_QUERY_LIMIT"})
	}))
	defer srv.Close()

	adapter := NewTransportationAdapter(TransportationConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), transportCall(map[string]any{"city": "Tokyo"}))
	if res.OK() || res.Failure.Kind != contractx.FailureTransient {
		t.Fatalf("over query limit must be transient, got %+v", res)
	}
}

func TestTransportationRequestDeniedIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED"})
	}))
	defer srv.Close()

	adapter := NewTransportationAdapter(TransportationConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), transportCall(map[string]any{"city": "Tokyo"}))
	if res.OK() || res.Failure.Kind != contractx.FailureFatal {
		t.Fatalf("request denied must be fatal, got %+v", res)
	}
}
