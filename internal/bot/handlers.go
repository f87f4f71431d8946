package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/store"
)

// TurnContext carries everything a module handler may need to compose the
// final reply for one turn.
type TurnContext struct {
	Session *store.Session
	Message string
	Intent  string
	AIReply string
	// Applied is the action executor's result list, possibly partial.
	Applied []ActionResult
}

// Handler produces the final reply text for one (module, submodule) pair.
type Handler interface {
	Handle(ctx context.Context, turn *TurnContext) (string, error)
}

type pairKey struct {
	module    string
	submodule string
}

// newHandlerTable builds the closed (module, submodule) → handler lookup
// table. Adding a module means adding a tree entry plus a row here.
func newHandlerTable(whitelist WhitelistStore) map[pairKey]Handler {
	return map[pairKey]Handler{
		{dispatch.ModuleBase, dispatch.SubmoduleMain}:     passthroughHandler{},
		{dispatch.ModuleBase, dispatch.SubmoduleSettings}: settingsHandler{whitelist: whitelist},
		{dispatch.ModuleMeal, dispatch.SubmoduleMain}:     passthroughHandler{},
	}
}

// passthroughHandler covers pairs whose intents (Greet, Ask, Other) need no
// composition beyond the classifier's reply.
type passthroughHandler struct{}

func (passthroughHandler) Handle(_ context.Context, turn *TurnContext) (string, error) {
	return turn.AIReply, nil
}

// settingsHandler composes replies for the whitelist intents. Mutating
// actions were already applied upstream; this handler only reports them.
type settingsHandler struct {
	whitelist WhitelistStore
}

func (h settingsHandler) Handle(ctx context.Context, turn *TurnContext) (string, error) {
	if turn.Intent == dispatch.IntentReadWhitelist {
		entries, err := h.whitelist.ListWhitelistEntries(ctx)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return turn.AIReply + "\n\n*The whitelist is currently empty.*", nil
		}
		var b strings.Builder
		b.WriteString(turn.AIReply)
		b.WriteString("\n\n*Current Whitelist:*")
		for _, number := range entries {
			fmt.Fprintf(&b, "\n- %s", number)
		}
		return b.String(), nil
	}

	if len(turn.Applied) == 0 {
		return turn.AIReply, nil
	}

	var b strings.Builder
	b.WriteString(turn.AIReply)
	failed := false
	for _, result := range turn.Applied {
		if !result.Applied {
			failed = true
			continue
		}
		switch result.Type {
		case dispatch.ActionAddWhitelist:
			fmt.Fprintf(&b, "\n- added %s", result.Value)
		case dispatch.ActionRemoveWhitelist:
			fmt.Fprintf(&b, "\n- removed %s", result.Value)
		}
	}
	if failed {
		b.WriteString("\n\n*Some requested changes could not be applied.*")
	}
	return b.String(), nil
}
