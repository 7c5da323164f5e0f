package plannode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// PersistItinerary writes the finished itinerary through the store gateway.
// The write is a side effect of a plan that already succeeded, so a store
// error is logged and absorbed rather than failing the request.
func PersistItinerary(ctx context.Context, in *GraphState, store contractx.ItineraryStore, logger zerolog.Logger) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if store == nil {
		return in, nil
	}

	if _, err := store.Save(ctx, in.Itinerary); err != nil {
		logger.Error().Err(err).Str("itinerary_id", in.Itinerary.ID).Msg("failed to persist itinerary")
	}
	return in, nil
}
