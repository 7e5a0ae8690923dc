package domain

import "errors"

// Business outcomes. Callers branch on these with errors.Is.
var (
	ErrInvalidRange   = errors.New("check-out date must be after check-in date")
	ErrInvalidGuests  = errors.New("guests must be between 1 and 10")
	ErrNotFound       = errors.New("not found")
	ErrNoAvailability = errors.New("no rooms available")
	ErrConflict       = errors.New("reservation conflict, retry later")
)

// ErrVersionConflict is returned by InventoryStore.ConditionalSave when the
// stored version no longer matches the expected one.
var ErrVersionConflict = errors.New("version conflict")
