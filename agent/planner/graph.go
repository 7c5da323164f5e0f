package planner

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	plannode "github.com/tualang-ai/tualang/agent/nodes"
)

// compilePlanGraph assembles the plan pipeline as a linear eino graph:
// validate -> extract -> dispatch/join -> synthesize -> persist -> finalize.
// Each lambda node delegates to a plannode function so the pipeline stays
// testable without a compiled graph.
func (s *Service) compilePlanGraph(ctx context.Context) (compose.Runnable[plannode.GraphInput, plannode.GraphOutput], error) {
	graph := compose.NewGraph[plannode.GraphInput, plannode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request", compose.InvokableLambda(
		func(ctx context.Context, in plannode.GraphInput) (*plannode.GraphState, error) {
			return plannode.ValidateRequest(in, s.now)
		},
	)); err != nil {
		return nil, fmt.Errorf("add validate_request node: %w", err)
	}

	if err := graph.AddLambdaNode("extract_plan", compose.InvokableLambda(
		func(ctx context.Context, state *plannode.GraphState) (*plannode.GraphState, error) {
			return plannode.ExtractPlan(ctx, state, s.extractor, s.logger)
		},
	)); err != nil {
		return nil, fmt.Errorf("add extract_plan node: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_and_join", compose.InvokableLambda(
		func(ctx context.Context, state *plannode.GraphState) (*plannode.GraphState, error) {
			return plannode.DispatchAndJoin(ctx, state, s.gateway, s.retriever, s.dispatchCfg, s.logger)
		},
	)); err != nil {
		return nil, fmt.Errorf("add dispatch_and_join node: %w", err)
	}

	if err := graph.AddLambdaNode("synthesize", compose.InvokableLambda(
		func(ctx context.Context, state *plannode.GraphState) (*plannode.GraphState, error) {
			return plannode.Synthesize(ctx, state, s.synth, s.logger)
		},
	)); err != nil {
		return nil, fmt.Errorf("add synthesize node: %w", err)
	}

	if err := graph.AddLambdaNode("persist", compose.InvokableLambda(
		func(ctx context.Context, state *plannode.GraphState) (*plannode.GraphState, error) {
			return plannode.PersistItinerary(ctx, state, s.store, s.logger)
		},
	)); err != nil {
		return nil, fmt.Errorf("add persist node: %w", err)
	}

	if err := graph.AddLambdaNode("finalize", compose.InvokableLambda(
		func(ctx context.Context, state *plannode.GraphState) (plannode.GraphOutput, error) {
			return plannode.Finalize(state)
		},
	)); err != nil {
		return nil, fmt.Errorf("add finalize node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "extract_plan"},
		{"extract_plan", "dispatch_and_join"},
		{"dispatch_and_join", "synthesize"},
		{"synthesize", "persist"},
		{"persist", "finalize"},
		{"finalize", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("planner.plan_itinerary"))
	if err != nil {
		return nil, fmt.Errorf("compile plan graph: %w", err)
	}
	return runner, nil
}
