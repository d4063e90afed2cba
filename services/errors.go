package services

import "errors"

var (
	// ErrSourceUnavailable is returned when the raw record batch could not be read at all.
	// It is distinct from a readable batch that simply matches nothing.
	ErrSourceUnavailable = errors.New("rate source unavailable")

	// ErrInsufficientData is returned when a computation lacks the inputs it needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDeltaOutOfRange is returned when a simulated price adjustment exceeds the configured range.
	ErrDeltaOutOfRange = errors.New("price delta out of range")

	// ErrInvalidOccupancy is returned for occupancy values outside 0..100.
	ErrInvalidOccupancy = errors.New("occupancy must be between 0 and 100")
)
