// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

const (
	// TurnTimeout bounds one full turn: classifier failover loop plus the
	// module handler. A turn past this deadline is abandoned without a save.
	TurnTimeout = 2 * time.Minute

	// ProviderTimeout is the per-call timeout for a single inference backend.
	ProviderTimeout = 30 * time.Second

	// MaxHistoryInPrompt is how many recent history entries the classifier
	// includes in its prompt.
	MaxHistoryInPrompt = 5

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
