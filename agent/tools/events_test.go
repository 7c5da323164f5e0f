package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

func eventsCall(args map[string]any) contractx.ToolCall {
	return contractx.ToolCall{Tool: contractx.ToolEvents, Args: args}
}

func TestEventsSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discovery/v2/events.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("city") != "Tokyo" || q.Get("sort") != "date,asc" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("startDateTime") != "2026-10-05T00:00:00Z" {
			t.Errorf("unexpected startDateTime %q", q.Get("startDateTime"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"_embedded": map[string]any{
				"events": []map[string]any{
					{
						"name": "Autumn Jazz Night",
						"url":  "https://tickets.example/1",
						"dates": map[string]any{
							"start": map[string]any{"localDate": "2026-10-05", "localTime": "19:30:00"},
						},
						"_embedded": map[string]any{
							"venues": []map[string]any{{"name": "Blue Hall"}},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	adapter := NewEventsAdapter(EventsConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), eventsCall(map[string]any{
		"city": "Tokyo",
		"date": "2026-10-05",
	}))
	if !res.OK() {
		t.Fatalf("Invoke() failed: %+v", res.Failure)
	}

	var events []Event
	if err := json.Unmarshal(res.Payload, &events); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Name != "Autumn Jazz Night" || e.Venue != "Blue Hall" || e.Time != "19:30:00" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestEventsNoResultsIsEmptySuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	adapter := NewEventsAdapter(EventsConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), eventsCall(map[string]any{"city": "Tokyo"}))
	if !res.OK() {
		t.Fatalf("no events must be an empty success, got %+v", res.Failure)
	}
	if string(res.Payload) != `[]` {
		t.Fatalf("expected empty list payload, got %s", res.Payload)
	}
}

func TestEventsRateLimitIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewEventsAdapter(EventsConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Invoke(context.Background(), eventsCall(map[string]any{"city": "Tokyo"}))
	if res.OK() || res.Failure.Kind != contractx.FailureTransient {
		t.Fatalf("429 must be transient, got %+v", res)
	}
}

func TestEventsMissingCityIsFatal(t *testing.T) {
	t.Parallel()

	adapter := NewEventsAdapter(EventsConfig{BaseURL: "http://unused", APIKey: "k"})
	res := adapter.Invoke(context.Background(), eventsCall(nil))
	if res.OK() || res.Failure.Kind != contractx.FailureFatal {
		t.Fatalf("missing city must be fatal, got %+v", res)
	}
}
