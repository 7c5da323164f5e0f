package plannode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// Synthesize hands the aggregate to the synthesizer and applies the
// partial-success policy: a narrative failure alone still yields a usable
// itinerary. The pipeline hard-fails only when extraction, retrieval, and
// synthesis all came up empty, because then there is nothing to return.
func Synthesize(ctx context.Context, in *GraphState, synth contractx.Synthesizer, logger zerolog.Logger) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Phase = PhaseSynthesizing
	it, err := synth.Synthesize(ctx, in.Aggregate)
	if err != nil {
		if !errors.Is(err, contractx.ErrSynthesis) {
			in.Phase = PhaseFailed
			return nil, err
		}
		if in.ExtractionFailed && len(in.Hits) == 0 {
			in.Phase = PhaseFailed
			return nil, fmt.Errorf("%w: extraction, retrieval, and synthesis all failed", contractx.ErrNoItinerary)
		}
		logger.Warn().Err(err).Msg("narrative synthesis failed, returning sections without narrative")
		in.NarrativeErr = err
	}

	in.Itinerary = it
	return in, nil
}
