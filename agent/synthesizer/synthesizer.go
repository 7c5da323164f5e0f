package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	llmx "github.com/tualang-ai/tualang/agent/llm"
)

type llmOutput struct {
	Destination string `json:"destination,omitempty"`
	Narrative   string `json:"narrative"`
}

// Synthesizer produces the final itinerary. Section payloads are copied
// straight from the tool results; only the narrative comes from the model.
// A schema-invalid model response gets one repair pass carrying the parse
// error; after a second failure the itinerary ships without a narrative and
// with the narrative-failed marker set, so the caller always receives
// something serializable.
type Synthesizer struct {
	runner llmx.Invoker[map[string]any, llmOutput]
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, logger zerolog.Logger) (*Synthesizer, error) {
	runner, err := llmx.CompileStructuredGraph[llmOutput](ctx, chatModel, systemPrompt, "synthesizer.itinerary_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile synthesizer graph: %v", contractx.ErrModelInvoke, err)
	}
	return newWith(runner, logger), nil
}

// NewWithRunner wires a prebuilt runner. Tests use it to bypass the model.
func NewWithRunner(runner llmx.Invoker[map[string]any, llmOutput], logger zerolog.Logger) *Synthesizer {
	return newWith(runner, logger)
}

func newWith(runner llmx.Invoker[map[string]any, llmOutput], logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		runner: runner,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

var _ contractx.Synthesizer = (*Synthesizer)(nil)

func (s *Synthesizer) Synthesize(ctx context.Context, agg contractx.AggregatedContext) (contractx.Itinerary, error) {
	it := s.baseItinerary(agg)

	out, err := s.invokeOnce(ctx, agg, "")
	if err != nil {
		s.logger.Warn().Err(err).Msg("synthesis attempt failed, running repair pass")
		out, err = s.invokeOnce(ctx, agg, err.Error())
	}
	if err != nil {
		it.NarrativeFailed = true
		return it, fmt.Errorf("%w: %v", contractx.ErrSynthesis, err)
	}

	it.Narrative = strings.TrimSpace(out.Narrative)
	if dest := strings.TrimSpace(out.Destination); dest != "" && it.Destination == "" {
		it.Destination = dest
	}
	return it, nil
}

func (s *Synthesizer) invokeOnce(ctx context.Context, agg contractx.AggregatedContext, parseError string) (llmOutput, error) {
	payload := map[string]any{
		"request":  agg.Request,
		"results":  agg.Results,
		"snippets": agg.Hits,
		"language": agg.Request.Language,
	}
	if parseError != "" {
		payload["previous_error"] = "your previous response was rejected: " + parseError
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return llmOutput{}, fmt.Errorf("marshal synthesis payload: %v", err)
	}

	out, err := s.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return llmOutput{}, err
	}
	if strings.TrimSpace(out.Narrative) == "" {
		return llmOutput{}, fmt.Errorf("%w: narrative is empty", contractx.ErrSchemaViolation)
	}
	return out, nil
}

// baseItinerary assembles everything that does not depend on the model:
// raw section payloads, gap annotations, and the not-requested markers.
func (s *Synthesizer) baseItinerary(agg contractx.AggregatedContext) contractx.Itinerary {
	it := contractx.Itinerary{
		ID:          s.newID(),
		Language:    agg.Request.Language,
		Destination: strings.TrimSpace(agg.Request.Destination),
		CreatedAt:   s.now().UTC(),
	}

	requested := map[contractx.ToolName]struct{}{}
	for _, res := range agg.Results {
		requested[res.Call.Tool] = struct{}{}
		if res.OK() {
			it.SetSection(res.Call.Tool, res.Payload)
			continue
		}
		it.Gaps = append(it.Gaps, contractx.GapAnnotation{
			Section: res.Call.Tool,
			Reason:  res.Failure.Message,
		})
	}

	for _, tool := range contractx.KnownTools() {
		if _, ok := requested[tool]; !ok {
			it.NotRequested = append(it.NotRequested, tool)
		}
	}
	return it
}
