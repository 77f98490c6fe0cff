package domain

import "errors"

var (
	// ErrOutOfBounds means a requested span does not fit in the remaining grid.
	// The card is left unplaced and the caller is told.
	ErrOutOfBounds = errors.New("placement out of bounds")
	// ErrCellOccupied means an explicit placement overlaps another card's cells.
	ErrCellOccupied = errors.New("cell occupied")
	// ErrPatchStepFailure wraps an error or panic raised by one render step.
	// The pipeline recovers from it and skips the step.
	ErrPatchStepFailure = errors.New("patch step failed")
	// ErrSessionConflict means a gesture started while another one was active.
	ErrSessionConflict = errors.New("gesture session already active")
	// ErrMissingCardContext means an interaction did not originate inside a known card.
	ErrMissingCardContext = errors.New("no card for interaction")
	ErrCardNotFound       = errors.New("card not found")
	ErrInvalidGridSpec    = errors.New("invalid grid spec")
)
