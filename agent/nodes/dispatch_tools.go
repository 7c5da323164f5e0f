package plannode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// DispatchAndJoin is the fan-out/fan-in core. Every tool call plus the
// retrieval call runs as its own goroutine writing into its own slot; one
// WaitGroup barrier joins them, so the aggregate only ever observes
// terminal results. Wall-clock cost is bounded by the slowest call plus
// its retry, not the sum of all calls.
func DispatchAndJoin(
	ctx context.Context,
	in *GraphState,
	gateway contractx.ToolGateway,
	retriever contractx.Retriever,
	cfg DispatchConfig,
	logger zerolog.Logger,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	cfg = cfg.withDefaults()

	in.Phase = PhaseDispatched
	logger.Debug().Int("tool_calls", len(in.Plan.Calls)).Msg("dispatching plan")

	results := make([]contractx.ToolResult, len(in.Plan.Calls))
	var hits []contractx.RetrievalHit

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hits = retriever.Retrieve(ctx, in.Request.Query)
	}()

	for i, call := range in.Plan.Calls {
		wg.Add(1)
		go func(i int, call contractx.ToolCall) {
			defer wg.Done()
			results[i] = invokeWithRetry(ctx, gateway, call, cfg)
		}(i, call)
	}

	in.Phase = PhaseJoining
	wg.Wait()

	in.Results = results
	in.Hits = hits
	in.Aggregate = contractx.AggregatedContext{
		Request:          in.Request,
		Results:          results,
		Hits:             hits,
		ExtractionFailed: in.ExtractionFailed,
	}
	return in, nil
}

// invokeWithRetry runs one call to a terminal state: at most one retry,
// only for transient failures, with a fixed backoff. Fatal failures are
// final on first sight.
func invokeWithRetry(ctx context.Context, gateway contractx.ToolGateway, call contractx.ToolCall, cfg DispatchConfig) contractx.ToolResult {
	res := invokeOnce(ctx, gateway, call, cfg.CallTimeout)
	if res.OK() || res.Failure.Kind != contractx.FailureTransient {
		return res
	}

	if cfg.RetryBackoff > 0 {
		timer := time.NewTimer(cfg.RetryBackoff)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return res
		}
	}
	return invokeOnce(ctx, gateway, call, cfg.CallTimeout)
}

// invokeOnce applies the per-call timeout. The timeout cancels only this
// call's context; sibling calls keep running. A gateway that ignores its
// context still cannot block the barrier: the result is recorded as a
// transient timeout and the straggler goroutine is abandoned.
func invokeOnce(ctx context.Context, gateway contractx.ToolGateway, call contractx.ToolCall, timeout time.Duration) contractx.ToolResult {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan contractx.ToolResult, 1)
	go func() {
		done <- gateway.Invoke(callCtx, call)
	}()

	select {
	case res := <-done:
		return res
	case <-callCtx.Done():
		return contractx.Failed(call, contractx.FailureTransient, "timeout")
	}
}
