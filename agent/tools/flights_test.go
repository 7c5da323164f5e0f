package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

func flightsCall(args map[string]any) contractx.ToolCall {
	return contractx.ToolCall{Tool: contractx.ToolFlights, Args: args}
}

func amadeusStub(t *testing.T, tokenCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			tokenCalls.Add(1)
			if r.Method != http.MethodPost {
				t.Errorf("token request must be POST, got %s", r.Method)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-1",
				"expires_in":   1800,
			})
		case "/v2/shopping/flight-offers":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
				t.Errorf("unexpected auth header %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{
						"price": map[string]any{"total": "412.50", "currency": "USD"},
						"validatingAirlineCodes": []string{"GA"},
						"itineraries": []map[string]any{
							{
								"segments": []map[string]any{
									{
										"departure": map[string]any{"iataCode": "CGK", "at": "2026-10-05T09:00:00"},
										"arrival":   map[string]any{"iataCode": "HND", "at": "2026-10-05T18:30:00"},
									},
								},
							},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFlightsSearchAndTokenCache(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	srv := amadeusStub(t, &tokenCalls)
	defer srv.Close()

	adapter := NewFlightsAdapter(FlightsConfig{BaseURL: srv.URL, APIKey: "id", APISecret: "secret"})
	call := flightsCall(map[string]any{
		"origin_city":      "Jakarta",
		"destination_city": "Tokyo",
		"date":             "2026-10-05",
		"adults":           2,
	})

	res := adapter.Invoke(context.Background(), call)
	if !res.OK() {
		t.Fatalf("Invoke() failed: %+v", res.Failure)
	}

	var payload flightSearchPayload
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Origin != "CGK" || payload.Destination != "HND" {
		t.Fatalf("unexpected route %s->%s", payload.Origin, payload.Destination)
	}
	if payload.Count != 1 || len(payload.Items) != 1 {
		t.Fatalf("unexpected item count: %+v", payload)
	}
	if payload.Items[0].PriceTotal != "412.50" || payload.Items[0].From != "CGK" {
		t.Fatalf("unexpected offer: %+v", payload.Items[0])
	}

	// Second call reuses the cached token.
	if res := adapter.Invoke(context.Background(), call); !res.OK() {
		t.Fatalf("second Invoke() failed: %+v", res.Failure)
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("expected 1 token request, got %d", got)
	}
}

func TestFlightsOriginFallsBackToJakarta(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	srv := amadeusStub(t, &tokenCalls)
	defer srv.Close()

	adapter := NewFlightsAdapter(FlightsConfig{BaseURL: srv.URL, APIKey: "id", APISecret: "secret"})
	res := adapter.Invoke(context.Background(), flightsCall(map[string]any{
		"destination_city": "Tokyo",
		"date":             "2026-10-05",
	}))
	if !res.OK() {
		t.Fatalf("Invoke() failed: %+v", res.Failure)
	}

	var payload flightSearchPayload
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Origin != defaultOriginIATA {
		t.Fatalf("expected fallback origin %s, got %s", defaultOriginIATA, payload.Origin)
	}
}

func TestFlightsMissingCredentialsIsFatal(t *testing.T) {
	t.Parallel()

	adapter := NewFlightsAdapter(FlightsConfig{BaseURL: "http://unused"})
	res := adapter.Invoke(context.Background(), flightsCall(map[string]any{
		"destination_city": "Tokyo",
		"date":             "2026-10-05",
	}))
	if res.OK() || res.Failure.Kind != contractx.FailureFatal {
		t.Fatalf("missing credentials must be fatal, got %+v", res)
	}
}

func TestFlightsUnknownDestinationIsFatal(t *testing.T) {
	t.Parallel()

	adapter := NewFlightsAdapter(FlightsConfig{BaseURL: "http://unused", APIKey: "id", APISecret: "secret"})
	res := adapter.Invoke(context.Background(), flightsCall(map[string]any{
		"destination_city": "Atlantis",
		"date":             "2026-10-05",
	}))
	if res.OK() || res.Failure.Kind != contractx.FailureFatal {
		t.Fatalf("unmapped destination must be fatal, got %+v", res)
	}
}
