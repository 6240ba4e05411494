package nest

import "errors"

// Precondition failures. All are caller-correctable: the operation performs
// no mutation when it returns one of these. Upgrade-while-in-progress and
// upgrade-past-max are silent no-ops rather than errors, so UI
// double-submission is harmless.
var (
	ErrOfferNotFound          = errors.New("recruitment offer not found or expired")
	ErrRoleNotUnlocked        = errors.New("role not unlocked at current nest level")
	ErrCapacityExceeded       = errors.New("nest is at assignment capacity")
	ErrInsufficientSeeds      = errors.New("insufficient seed stock")
	ErrCritterAlreadyAssigned = errors.New("critter is already assigned")
)
