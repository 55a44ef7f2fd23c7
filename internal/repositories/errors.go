package repositories

import "errors"

// Sentinel errors shared by every store in this package. Callers branch on
// them with errors.Is instead of inspecting driver error codes.
var (
	// ErrNotFound reports that no record matched. Claiming an OAuth state
	// that was already used surfaces the same error, so a replayed callback
	// looks no different from an expired one.
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a write that hit a uniqueness constraint, such as
	// registering an email that already has an account.
	ErrConflict = errors.New("record conflict")
)
