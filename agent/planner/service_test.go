package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	"github.com/tualang-ai/tualang/agent/itinerary"
	plannode "github.com/tualang-ai/tualang/agent/nodes"
)

type fakeExtractor struct {
	plan contractx.InvocationPlan
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, req contractx.TravelRequest) (contractx.InvocationPlan, error) {
	if f.err != nil {
		return contractx.InvocationPlan{}, f.err
	}
	return f.plan, nil
}

type fakeGateway struct {
	payloads map[contractx.ToolName]json.RawMessage
}

func (f *fakeGateway) Invoke(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	payload, ok := f.payloads[call.Tool]
	if !ok {
		return contractx.Failed(call, contractx.FailureFatal, "no stub payload")
	}
	return contractx.Success(call, payload)
}

type fakeRetriever struct {
	hits []contractx.RetrievalHit
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) []contractx.RetrievalHit {
	return f.hits
}

type fakeSynthesizer struct {
	err     error
	lastAgg contractx.AggregatedContext
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, agg contractx.AggregatedContext) (contractx.Itinerary, error) {
	f.lastAgg = agg
	it := contractx.Itinerary{
		ID:          "itn-e2e",
		Language:    agg.Request.Language,
		Destination: agg.Request.Destination,
		Narrative:   "Day 1: explore.",
	}
	for _, res := range agg.Results {
		if res.OK() {
			it.SetSection(res.Call.Tool, res.Payload)
		}
	}
	if f.err != nil {
		it.Narrative = ""
		it.NarrativeFailed = true
		return it, f.err
	}
	return it, nil
}

type fakeAnswerRunner struct {
	content string
	err     error
}

func (f *fakeAnswerRunner) Invoke(ctx context.Context, in map[string]any, opts ...compose.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func newTestService(t *testing.T, ext contractx.Extractor, gw contractx.ToolGateway, retr contractx.Retriever, synth contractx.Synthesizer, store contractx.ItineraryStore) *Service {
	t.Helper()
	svc, err := New(ext, gw, retr, synth, store, &fakeAnswerRunner{content: "Visit in October."}, Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func TestPlanItineraryEndToEnd(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{plan: contractx.InvocationPlan{Calls: []contractx.ToolCall{
		{Tool: contractx.ToolWeather, Args: map[string]any{"city": "Bali", "date": "2026-09-01"}},
		{Tool: contractx.ToolEvents, Args: map[string]any{"city": "Bali"}},
	}}}
	gw := &fakeGateway{payloads: map[contractx.ToolName]json.RawMessage{
		contractx.ToolWeather: json.RawMessage(`{"avg_temp_c":29.1}`),
		contractx.ToolEvents:  json.RawMessage(`[{"name":"Beach Festival"}]`),
	}}
	retr := &fakeRetriever{hits: []contractx.RetrievalHit{{Text: "Uluwatu temple at sunset", Score: 0.8}}}
	synth := &fakeSynthesizer{}
	store := itinerary.NewMemoryStore()

	svc := newTestService(t, ext, gw, retr, synth, store)

	it, err := svc.PlanItinerary(context.Background(), plannode.GraphInput{
		Query:       "3 days in Bali in September",
		Destination: "Bali",
	})
	if err != nil {
		t.Fatalf("PlanItinerary() error = %v", err)
	}

	if it.ID != "itn-e2e" {
		t.Fatalf("unexpected itinerary id %q", it.ID)
	}
	if string(it.Weather) != `{"avg_temp_c":29.1}` {
		t.Fatalf("weather section lost: %s", it.Weather)
	}
	if string(it.Events) != `[{"name":"Beach Festival"}]` {
		t.Fatalf("events section lost: %s", it.Events)
	}
	if len(synth.lastAgg.Hits) != 1 {
		t.Fatalf("synthesis must see retrieval hits, got %+v", synth.lastAgg.Hits)
	}
	if store.Len() != 1 {
		t.Fatalf("itinerary must be persisted, store has %d", store.Len())
	}

	loaded, err := svc.LoadItinerary(context.Background(), "itn-e2e")
	if err != nil {
		t.Fatalf("LoadItinerary() error = %v", err)
	}
	if loaded.ID != "itn-e2e" {
		t.Fatalf("loaded wrong itinerary: %+v", loaded)
	}
}

func TestPlanItineraryRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeExtractor{}, &fakeGateway{}, &fakeRetriever{}, &fakeSynthesizer{}, itinerary.NewMemoryStore())

	_, err := svc.PlanItinerary(context.Background(), plannode.GraphInput{Query: "   "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPlanItineraryHardFailure(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{err: fmt.Errorf("%w: unparseable_output", contractx.ErrExtraction)}
	synth := &fakeSynthesizer{err: fmt.Errorf("%w: narrative is empty", contractx.ErrSynthesis)}

	svc := newTestService(t, ext, &fakeGateway{}, &fakeRetriever{}, synth, itinerary.NewMemoryStore())

	_, err := svc.PlanItinerary(context.Background(), plannode.GraphInput{Query: "plan something"})
	if !errors.Is(err, contractx.ErrNoItinerary) {
		t.Fatalf("expected ErrNoItinerary, got %v", err)
	}
}

func TestPlanItinerarySurvivesNarrativeFailure(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{plan: contractx.InvocationPlan{Calls: []contractx.ToolCall{
		{Tool: contractx.ToolWeather, Args: map[string]any{"city": "Bali", "date": "2026-09-01"}},
	}}}
	gw := &fakeGateway{payloads: map[contractx.ToolName]json.RawMessage{
		contractx.ToolWeather: json.RawMessage(`{"avg_temp_c":29.1}`),
	}}
	synth := &fakeSynthesizer{err: fmt.Errorf("%w: narrative is empty", contractx.ErrSynthesis)}

	svc := newTestService(t, ext, gw, &fakeRetriever{}, synth, itinerary.NewMemoryStore())

	it, err := svc.PlanItinerary(context.Background(), plannode.GraphInput{Query: "3 days in Bali"})
	if err != nil {
		t.Fatalf("narrative failure alone must still plan: %v", err)
	}
	if !it.NarrativeFailed {
		t.Fatal("expected narrative-failed marker")
	}
	if string(it.Weather) != `{"avg_temp_c":29.1}` {
		t.Fatalf("sections must survive narrative failure: %s", it.Weather)
	}
}

func TestAnswer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeExtractor{}, &fakeGateway{}, &fakeRetriever{
		hits: []contractx.RetrievalHit{{Text: "October is dry season", Score: 0.9}},
	}, &fakeSynthesizer{}, itinerary.NewMemoryStore())

	answer, err := svc.Answer(context.Background(), "when should I visit Bali?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "Visit in October." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeExtractor{}, &fakeGateway{}, &fakeRetriever{}, &fakeSynthesizer{}, itinerary.NewMemoryStore())

	_, err := svc.Answer(context.Background(), "  ")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(nil, &fakeGateway{}, &fakeRetriever{}, &fakeSynthesizer{}, nil, nil, Config{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for nil extractor")
	}
	_, err = New(&fakeExtractor{}, nil, &fakeRetriever{}, &fakeSynthesizer{}, nil, nil, Config{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for nil gateway")
	}
}
