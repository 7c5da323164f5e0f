package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	llmx "github.com/tualang-ai/tualang/agent/llm"
	plannode "github.com/tualang-ai/tualang/agent/nodes"
)

// Config bounds the executor's fan-out phase.
type Config struct {
	CallTimeout  time.Duration
	RetryBackoff time.Duration
}

// Service is the orchestration graph executor. It owns the compiled plan
// pipeline and the retrieval-grounded answer path.
type Service struct {
	extractor contractx.Extractor
	gateway   contractx.ToolGateway
	retriever contractx.Retriever
	synth     contractx.Synthesizer
	store     contractx.ItineraryStore

	planRunner   compose.Runnable[plannode.GraphInput, plannode.GraphOutput]
	answerRunner llmx.Invoker[map[string]any, *schema.Message]

	dispatchCfg plannode.DispatchConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// New wires the service and compiles its pipeline graph. The store and the
// answer runner are optional collaborators; everything else is required.
func New(
	extractor contractx.Extractor,
	gateway contractx.ToolGateway,
	retriever contractx.Retriever,
	synth contractx.Synthesizer,
	store contractx.ItineraryStore,
	answerRunner llmx.Invoker[map[string]any, *schema.Message],
	cfg Config,
	logger zerolog.Logger,
) (*Service, error) {
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if gateway == nil {
		return nil, errors.New("tool gateway is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}

	s := &Service{
		extractor: extractor,
		gateway:   gateway,
		retriever: retriever,
		synth:     synth,
		store:     store,
		dispatchCfg: plannode.DispatchConfig{
			CallTimeout:  cfg.CallTimeout,
			RetryBackoff: cfg.RetryBackoff,
		},
		answerRunner: answerRunner,
		logger:       logger,
		now:          time.Now,
	}

	planRunner, err := s.compilePlanGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.planRunner = planRunner

	return s, nil
}

// PlanItinerary runs the full pipeline for one travel request.
func (s *Service) PlanItinerary(ctx context.Context, in plannode.GraphInput) (contractx.Itinerary, error) {
	out, err := s.planRunner.Invoke(ctx, in)
	if err != nil {
		return contractx.Itinerary{}, err
	}
	return out.Itinerary, nil
}

// Answer serves ad-hoc questions grounded in retrieval only; it skips the
// tool fan-out and full synthesis.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", contractx.ErrValidation)
	}
	if s.answerRunner == nil {
		return "", fmt.Errorf("%w: answer model is not configured", contractx.ErrValidation)
	}

	hits := s.retriever.Retrieve(ctx, question)

	payload := map[string]any{
		"question": question,
		"snippets": hits,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal answer payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.answerRunner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return "", fmt.Errorf("%w: answer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: answer is empty", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}

// LoadItinerary reads a persisted itinerary back through the store gateway.
func (s *Service) LoadItinerary(ctx context.Context, id string) (contractx.Itinerary, error) {
	if s.store == nil {
		return contractx.Itinerary{}, contractx.ErrItineraryNotFound
	}
	return s.store.Load(ctx, id)
}
