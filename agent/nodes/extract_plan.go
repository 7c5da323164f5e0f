package plannode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// ExtractPlan asks the extractor for an invocation plan. An extraction
// failure is absorbed here: the plan degrades to empty and the request
// continues on retrieval alone.
func ExtractPlan(ctx context.Context, in *GraphState, ext contractx.Extractor, logger zerolog.Logger) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	plan, err := ext.Extract(ctx, in.Request)
	if err != nil {
		if !errors.Is(err, contractx.ErrExtraction) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("extraction failed, degrading to retrieval-only plan")
		in.ExtractionFailed = true
		in.Plan = contractx.InvocationPlan{}
		return in, nil
	}

	in.Plan = plan
	return in, nil
}
