package contract

import "context"

// Extractor maps a free-text request into an invocation plan. A plan with
// schema-invalid calls dropped is still a valid plan; a fully unparseable
// model response is reported as ErrExtraction.
type Extractor interface {
	Extract(ctx context.Context, req TravelRequest) (InvocationPlan, error)
}

// ToolGateway dispatches one tool call to its adapter. Failures are carried
// inside the ToolResult, never as a Go error, so a result always exists.
type ToolGateway interface {
	Invoke(ctx context.Context, call ToolCall) ToolResult
}

// Retriever returns grounding snippets for a query, most relevant first.
// It degrades to an empty slice instead of failing.
type Retriever interface {
	Retrieve(ctx context.Context, query string) []RetrievalHit
}

// Synthesizer turns an aggregated context into an itinerary. The returned
// itinerary is always serializable; a non-nil error wrapping ErrSynthesis
// means the narrative fallback was used.
type Synthesizer interface {
	Synthesize(ctx context.Context, agg AggregatedContext) (Itinerary, error)
}

// ItineraryStore is the persistence boundary for finished itineraries.
type ItineraryStore interface {
	Save(ctx context.Context, it Itinerary) (string, error)
	Load(ctx context.Context, id string) (Itinerary, error)
}

// Embedder produces a fixed-dimension embedding for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Answerer serves the ad-hoc chat path without full synthesis.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}
