// Package bot implements the conversational core: session lifecycle, action
// execution, module handlers, and the per-turn router that ties them to the
// intent classifier.
package bot

import "errors"

var (
	// ErrInvalidTransition indicates a (module, submodule) pair that is not in
	// the dispatch tree. It is an internal contract violation and is never
	// surfaced verbatim to the user.
	ErrInvalidTransition = errors.New("invalid module transition")

	// ErrUnknownAction indicates an action type outside the dispatch tree's
	// vocabulary. The action is rejected without mutating state.
	ErrUnknownAction = errors.New("unknown action type")

	// ErrActionFailed indicates a batch aborted partway; the partial result
	// list reports which actions were applied.
	ErrActionFailed = errors.New("action execution failed")
)
