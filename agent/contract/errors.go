package contract

import "errors"

var (
	ErrModelInvoke       = errors.New("model invoke failed")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrExtraction        = errors.New("extraction failed")
	ErrSynthesis         = errors.New("synthesis failed")
	ErrValidation        = errors.New("validation failed")
	ErrItineraryNotFound = errors.New("itinerary not found")
	ErrNoItinerary       = errors.New("could not build itinerary")
)
