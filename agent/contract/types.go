package contract

import (
	"encoding/json"
	"time"
)

// Language is the resolved output language of an itinerary.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageIndonesian Language = "id"
)

// ResolveLanguage normalizes a raw language value, defaulting to English.
func ResolveLanguage(raw string) Language {
	switch Language(raw) {
	case LanguageIndonesian:
		return LanguageIndonesian
	default:
		return LanguageEnglish
	}
}

// ToolName identifies one of the known tool adapters. The set is closed:
// adding a tool means adding a constant here plus an adapter variant, never
// a runtime lookup of arbitrary names.
type ToolName string

const (
	ToolFlights        ToolName = "flights"
	ToolLodging        ToolName = "lodging"
	ToolWeather        ToolName = "weather"
	ToolEvents         ToolName = "events"
	ToolTransportation ToolName = "transportation"
)

// KnownTools returns all tool names in a fixed order.
func KnownTools() []ToolName {
	return []ToolName{ToolFlights, ToolLodging, ToolWeather, ToolEvents, ToolTransportation}
}

// IsKnownTool reports whether name is a member of the closed tool set.
func IsKnownTool(name ToolName) bool {
	switch name {
	case ToolFlights, ToolLodging, ToolWeather, ToolEvents, ToolTransportation:
		return true
	default:
		return false
	}
}

// TravelRequest is the immutable per-request input. Explicit fields, when
// set, pre-seed the extractor's arguments.
type TravelRequest struct {
	Query       string   `json:"query"`
	Language    Language `json:"language"`
	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
	StartDate   string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     string   `json:"end_date,omitempty"`   // YYYY-MM-DD
	PartySize   int      `json:"party_size,omitempty"`
}

// ToolCall is one planned adapter invocation. Args hold JSON-serializable
// primitives and flat collections only; the adapter boundary enforces this.
type ToolCall struct {
	Tool ToolName       `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// InvocationPlan is the ordered set of tool calls derived from a request.
type InvocationPlan struct {
	Calls []ToolCall `json:"calls,omitempty"`
}

// Empty reports whether the plan carries no tool calls.
func (p InvocationPlan) Empty() bool {
	return len(p.Calls) == 0
}

// FailureKind classifies a tool failure for the executor's retry policy.
type FailureKind string

const (
	FailureTransient FailureKind = "transient"
	FailureFatal     FailureKind = "fatal"
)

// ToolFailure describes why a tool call did not produce a payload.
type ToolFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// ToolResult is the terminal outcome of one tool call: either a full JSON
// payload or a failure, never both and never partially filled.
type ToolResult struct {
	Call    ToolCall        `json:"call"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Failure *ToolFailure    `json:"failure,omitempty"`
}

// OK reports whether the call succeeded. An empty payload is still a success.
func (r ToolResult) OK() bool {
	return r.Failure == nil
}

// Success builds a successful result for call with the given payload.
func Success(call ToolCall, payload json.RawMessage) ToolResult {
	if len(payload) == 0 {
		payload = json.RawMessage(`[]`)
	}
	return ToolResult{Call: call, Payload: payload}
}

// Failed builds a failed result for call.
func Failed(call ToolCall, kind FailureKind, message string) ToolResult {
	return ToolResult{Call: call, Failure: &ToolFailure{Kind: kind, Message: message}}
}

// RetrievalHit is one grounding snippet, most relevant hits first.
type RetrievalHit struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id"`
}

// AggregatedContext joins every terminal tool result with the retrieval hits
// for one request. It is the exclusive input to synthesis and the only place
// where cross-tool data mixes.
type AggregatedContext struct {
	Request          TravelRequest  `json:"request"`
	Results          []ToolResult   `json:"results,omitempty"`
	Hits             []RetrievalHit `json:"hits,omitempty"`
	ExtractionFailed bool           `json:"extraction_failed,omitempty"`
}

// GapAnnotation marks a section that failed to produce data.
type GapAnnotation struct {
	Section ToolName `json:"section"`
	Reason  string   `json:"reason"`
}

// Itinerary is the finished artifact. The stored shape equals the wire
// shape; every field round-trips through JSON without loss.
type Itinerary struct {
	ID              string          `json:"id"`
	Language        Language        `json:"language"`
	Destination     string          `json:"destination,omitempty"`
	Flights         json.RawMessage `json:"flights,omitempty"`
	Lodging         json.RawMessage `json:"lodging,omitempty"`
	Weather         json.RawMessage `json:"weather,omitempty"`
	Events          json.RawMessage `json:"events,omitempty"`
	Transportation  json.RawMessage `json:"transportation,omitempty"`
	Narrative       string          `json:"narrative,omitempty"`
	NarrativeFailed bool            `json:"narrative_failed,omitempty"`
	Gaps            []GapAnnotation `json:"gaps,omitempty"`
	NotRequested    []ToolName      `json:"not_requested,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SetSection writes a tool payload into its itinerary section.
func (it *Itinerary) SetSection(tool ToolName, payload json.RawMessage) {
	switch tool {
	case ToolFlights:
		it.Flights = payload
	case ToolLodging:
		it.Lodging = payload
	case ToolWeather:
		it.Weather = payload
	case ToolEvents:
		it.Events = payload
	case ToolTransportation:
		it.Transportation = payload
	}
}

// Section reads a tool payload back out of its itinerary section.
func (it *Itinerary) Section(tool ToolName) json.RawMessage {
	switch tool {
	case ToolFlights:
		return it.Flights
	case ToolLodging:
		return it.Lodging
	case ToolWeather:
		return it.Weather
	case ToolEvents:
		return it.Events
	case ToolTransportation:
		return it.Transportation
	default:
		return nil
	}
}
