package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	it := contractx.Itinerary{
		ID:          "itn-1",
		Language:    contractx.LanguageEnglish,
		Destination: "Bali",
		Weather:     json.RawMessage(`{"avg_temp_c":29.1}`),
		Narrative:   "Day 1: beach.",
		CreatedAt:   time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}

	id, err := store.Save(context.Background(), it)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id != "itn-1" {
		t.Fatalf("unexpected id %q", id)
	}

	got, err := store.Load(context.Background(), "itn-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Destination != "Bali" || got.Narrative != "Day 1: beach." {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if string(got.Weather) != `{"avg_temp_c":29.1}` {
		t.Fatalf("weather section lost: %s", got.Weather)
	}
}

func TestMemoryStoreMissingID(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Save(context.Background(), contractx.Itinerary{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, contractx.ErrItineraryNotFound) {
		t.Fatalf("expected ErrItineraryNotFound, got %v", err)
	}
}
