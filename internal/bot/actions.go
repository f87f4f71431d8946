package bot

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gthalib/tulip/plugin/ai/classifier"
	"github.com/gthalib/tulip/plugin/ai/dispatch"
)

// WhitelistStore is the slice of the durable store the executor and the
// settings handler need. *store.Store satisfies it.
type WhitelistStore interface {
	AddWhitelistEntry(ctx context.Context, phoneNumber string) error
	RemoveWhitelistEntry(ctx context.Context, phoneNumber string) error
	ListWhitelistEntries(ctx context.Context) ([]string, error)
}

// ActionResult records the outcome of one action in a batch.
type ActionResult struct {
	Type    dispatch.ActionType
	Value   string
	Applied bool
}

// Executor applies classification actions against the whitelist store,
// atomically per action, in the order given.
type Executor struct {
	store WhitelistStore
}

// NewExecutor creates an action executor.
func NewExecutor(store WhitelistStore) *Executor {
	return &Executor{store: store}
}

// Apply executes the batch in order. A failure aborts the remaining actions
// and is returned as ErrActionFailed together with the partial result list,
// so the caller can report which actions succeeded. Adding a present number
// and removing an absent one are silent no-ops, not errors.
func (e *Executor) Apply(ctx context.Context, actions []classifier.Action) ([]ActionResult, error) {
	results := make([]ActionResult, 0, len(actions))

	for _, action := range actions {
		actionType := dispatch.ActionType(action.Type)
		result := ActionResult{Type: actionType, Value: action.Value}

		var err error
		switch actionType {
		case dispatch.ActionAddWhitelist:
			err = e.store.AddWhitelistEntry(ctx, action.Value)
		case dispatch.ActionRemoveWhitelist:
			err = e.store.RemoveWhitelistEntry(ctx, action.Value)
		default:
			results = append(results, result)
			return results, errors.Wrapf(ErrUnknownAction, "%q", action.Type)
		}

		if err != nil {
			slog.Error("action application failed, aborting batch",
				"action", action.Type,
				"value", action.Value,
				"applied", len(results),
				"error", err)
			results = append(results, result)
			return results, errors.Wrapf(ErrActionFailed, "applying %s: %v", action.Type, err)
		}

		result.Applied = true
		results = append(results, result)
		slog.Info("action applied", "action", action.Type, "value", action.Value)
	}

	return results, nil
}
