package journey

import "errors"

// Invalid-transition intents are UI-guard violations, not user-facing
// failures: callers are expected to drop these errors as no-ops.
var (
	// ErrBusy rejects a mutating intent while another is still in flight.
	ErrBusy = errors.New("journey: engine is busy")

	// ErrInvalidTransition rejects jump-ahead, edit-ahead, and similar
	// out-of-order intents.
	ErrInvalidTransition = errors.New("journey: invalid stage transition")

	// ErrSuggestionOpen rejects a suggestion request while one is open.
	ErrSuggestionOpen = errors.New("journey: a suggestion is already open")

	// ErrNoDataKey reports an operation on a stage with no data field.
	ErrNoDataKey = errors.New("journey: stage has no data field")
)
