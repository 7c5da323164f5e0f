package plannode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// ValidateRequest turns the raw input into an immutable TravelRequest and
// opens the pipeline in the Planned phase.
func ValidateRequest(in GraphInput, now func() time.Time) (*GraphState, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, ErrInvalidQuery)
	}

	partySize := in.PartySize
	if partySize < 0 {
		partySize = 0
	}

	return &GraphState{
		Request: contractx.TravelRequest{
			Query:       strings.TrimSpace(in.Query),
			Language:    contractx.ResolveLanguage(in.Language),
			Origin:      strings.TrimSpace(in.Origin),
			Destination: strings.TrimSpace(in.Destination),
			StartDate:   strings.TrimSpace(in.StartDate),
			EndDate:     strings.TrimSpace(in.EndDate),
			PartySize:   partySize,
		},
		Phase: PhasePlanned,
		Now:   now(),
	}, nil
}
