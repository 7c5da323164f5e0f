package plannode

import (
	"errors"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

var (
	ErrInvalidQuery = errors.New("query is empty")
)

// Phase tracks the executor's progress through the pipeline. A plan either
// runs to Done or, in the one hard-failure case, to Failed; there is no
// user-triggered mid-flight cancellation.
type Phase string

const (
	PhasePlanned      Phase = "planned"
	PhaseDispatched   Phase = "dispatched"
	PhaseJoining      Phase = "joining"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

// GraphInput is the raw inbound request before validation.
type GraphInput struct {
	Query       string
	Language    string
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
	PartySize   int
}

// GraphOutput carries the finished itinerary out of the pipeline.
type GraphOutput struct {
	Itinerary contractx.Itinerary
}

// GraphState is the single mutable value threaded through the pipeline
// nodes. Concurrent tool calls never touch it; each writes only its own
// result slot inside DispatchAndJoin before the barrier.
type GraphState struct {
	Request          contractx.TravelRequest
	Plan             contractx.InvocationPlan
	ExtractionFailed bool
	Results          []contractx.ToolResult
	Hits             []contractx.RetrievalHit
	Aggregate        contractx.AggregatedContext
	Itinerary        contractx.Itinerary
	NarrativeErr     error
	Phase            Phase
	Now              time.Time
}

// DispatchConfig bounds each tool call during fan-out.
type DispatchConfig struct {
	CallTimeout  time.Duration
	RetryBackoff time.Duration
}

const (
	DefaultCallTimeout  = 20 * time.Second
	DefaultRetryBackoff = 500 * time.Millisecond
)

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	return c
}
