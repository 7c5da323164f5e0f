package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	llmx "github.com/tualang-ai/tualang/agent/llm"
)

type llmOutput struct {
	ToolCalls []llmToolCall `json:"tool_calls"`
}

type llmToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Extractor maps a free-text travel request into an invocation plan through
// a structured-output model call, then validates every call against the
// fixed per-tool schemas. Validation fails closed: an invalid call is
// dropped and logged, never forwarded with missing fields.
type Extractor struct {
	runner llmx.Invoker[map[string]any, llmOutput]
	logger zerolog.Logger
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, logger zerolog.Logger) (*Extractor, error) {
	runner, err := llmx.CompileStructuredGraph[llmOutput](ctx, chatModel, systemPrompt, "extractor.plan_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile extractor graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Extractor{runner: runner, logger: logger}, nil
}

// NewWithRunner wires a prebuilt runner. Tests use it to bypass the model.
func NewWithRunner(runner llmx.Invoker[map[string]any, llmOutput], logger zerolog.Logger) *Extractor {
	return &Extractor{runner: runner, logger: logger}
}

var _ contractx.Extractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, req contractx.TravelRequest) (contractx.InvocationPlan, error) {
	if strings.TrimSpace(req.Query) == "" {
		return contractx.InvocationPlan{}, fmt.Errorf("%w: query is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"query":       req.Query,
		"language":    req.Language,
		"origin":      req.Origin,
		"destination": req.Destination,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"party_size":  req.PartySize,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.InvocationPlan{}, fmt.Errorf("%w: marshal extractor payload: %v", contractx.ErrValidation, err)
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		// The parser rejected the model output wholesale; the caller
		// degrades to a retrieval-only plan.
		return contractx.InvocationPlan{}, fmt.Errorf("%w: unparseable_output: %v", contractx.ErrExtraction, err)
	}

	return e.buildPlan(req, out), nil
}

func (e *Extractor) buildPlan(req contractx.TravelRequest, out llmOutput) contractx.InvocationPlan {
	calls := make([]contractx.ToolCall, 0, len(out.ToolCalls))
	seen := map[contractx.ToolName]struct{}{}

	for _, raw := range out.ToolCalls {
		call := contractx.ToolCall{
			Tool: contractx.ToolName(strings.TrimSpace(raw.Tool)),
			Args: raw.Args,
		}
		if call.Args == nil {
			call.Args = map[string]any{}
		}
		seedExplicitFields(&call, req)

		if err := validateToolCall(call); err != nil {
			e.logger.Warn().Err(err).Str("tool", string(call.Tool)).Msg("extraction dropped invalid tool call")
			continue
		}
		// One call per tool; the adapters are mutually independent and a
		// duplicate would race its twin for the same section.
		if _, dup := seen[call.Tool]; dup {
			continue
		}
		seen[call.Tool] = struct{}{}
		calls = append(calls, call)
	}

	return contractx.InvocationPlan{Calls: calls}
}

// seedExplicitFields fills argument gaps from the request's explicit fields
// before validation, so a model omission does not drop an otherwise
// resolvable call.
func seedExplicitFields(call *contractx.ToolCall, req contractx.TravelRequest) {
	setIfMissing := func(key, val string) {
		if val == "" {
			return
		}
		if _, ok := call.Args[key]; !ok {
			call.Args[key] = val
		}
	}

	switch call.Tool {
	case contractx.ToolFlights:
		setIfMissing("origin_city", req.Origin)
		setIfMissing("destination_city", req.Destination)
		setIfMissing("date", req.StartDate)
		if req.PartySize > 0 {
			if _, ok := call.Args["adults"]; !ok {
				call.Args["adults"] = req.PartySize
			}
		}
	case contractx.ToolLodging, contractx.ToolTransportation:
		setIfMissing("city", req.Destination)
	case contractx.ToolWeather, contractx.ToolEvents:
		setIfMissing("city", req.Destination)
		setIfMissing("date", req.StartDate)
	}
}
