package plannode

import (
	"fmt"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// Finalize closes the pipeline and emits the itinerary.
func Finalize(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Itinerary.ID == "" {
		return GraphOutput{}, fmt.Errorf("%w: synthesizer returned no itinerary", contractx.ErrValidation)
	}

	in.Phase = PhaseDone
	return GraphOutput{Itinerary: in.Itinerary}, nil
}
