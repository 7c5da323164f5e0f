package tools

import (
	"context"
	"testing"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

func TestLodgingWithoutDatabaseIsFatal(t *testing.T) {
	t.Parallel()

	adapter := NewLodgingAdapter(nil)
	res := adapter.Invoke(context.Background(), contractx.ToolCall{
		Tool: contractx.ToolLodging,
		Args: map[string]any{"city": "Bali"},
	})
	if res.OK() || res.Failure.Kind != contractx.FailureFatal {
		t.Fatalf("missing database must be fatal, got %+v", res)
	}
}

func TestNormalizeDayType(t *testing.T) {
	t.Parallel()

	if got := normalizeDayType("Weekends"); got != "weekends" {
		t.Fatalf("expected weekends, got %q", got)
	}
	if got := normalizeDayType("holiday"); got != "" {
		t.Fatalf("unknown day type must normalize empty, got %q", got)
	}
}
