package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gthalib/tulip/plugin/ai/classifier"
	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/plugin/ai/timeout"
	"github.com/gthalib/tulip/store"
)

const fallbackReplyText = "I'm sorry, I'm having trouble processing that right now."

// Reply is the structured record handed to the transport layer. The
// transport owns literal formatting and delivery; the router only guarantees
// the fields are populated and consistent with the dispatch tree.
type Reply struct {
	Module      string
	Submodule   string
	Intent      string
	ActionTypes []string
	ModelUsed   string
	Body        string
}

// IntentClassifier is the classifier surface the router consumes.
type IntentClassifier interface {
	Classify(ctx context.Context, session *store.Session, message string) (*classifier.Result, error)
}

// Router orchestrates one turn: load session, classify, apply actions,
// dispatch to the module handler, persist, return the reply record.
type Router struct {
	sessions   *Sessions
	classifier IntentClassifier
	executor   *Executor
	tree       *dispatch.Tree
	handlers   map[pairKey]Handler
	locks      *userLocker
}

// NewRouter wires the turn pipeline together.
func NewRouter(sessions *Sessions, intentClassifier IntentClassifier, executor *Executor, tree *dispatch.Tree, whitelist WhitelistStore) *Router {
	return &Router{
		sessions:   sessions,
		classifier: intentClassifier,
		executor:   executor,
		tree:       tree,
		handlers:   newHandlerTable(whitelist),
		locks:      newUserLocker(),
	}
}

// HandleTurn processes one inbound message. Turns for the same user are
// serialized for their full duration; turns for different users run
// concurrently. A returned error means no reply should be sent and the
// message should not be acknowledged as processed.
func (r *Router) HandleTurn(ctx context.Context, userID, text string) (*Reply, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout.TurnTimeout)
	defer cancel()

	logger := slog.With("request_id", uuid.New().String(), "user_id", userID)
	logger.Info("turn started", "message", truncateForLog(text, timeout.MaxTruncateLength))

	session, err := r.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.sessions.AppendTurn(session, store.RoleUser, text)

	result, err := r.classifier.Classify(ctx, session, text)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrUnavailable):
			logger.Warn("classification unavailable, sending fallback reply")
		case errors.Is(err, classifier.ErrInvalid):
			logger.Warn("classification invalid, sending fallback reply")
		default:
			return nil, err
		}
		// The user's message is still recorded; no assistant entry is
		// synthesized for a failed classification.
		if err := r.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		return &Reply{
			Module:    session.ActiveModule,
			Submodule: session.ActiveSubmodule,
			Intent:    dispatch.IntentOther,
			Body:      fallbackReplyText,
		}, nil
	}

	intent := result.Intent
	actions := result.Actions

	if violation := r.contractViolation(result); violation != "" {
		// The classifier asked for something the dispatch tree does not
		// permit. Never execute an unvalidated action: drop the batch and
		// fall back to the current pair's Other behavior, without a
		// transition.
		logger.Warn("classification violates intent/action contract",
			"violation", violation,
			"module", result.Module,
			"submodule", result.Submodule,
			"intent", result.Intent)
		intent = dispatch.IntentOther
		actions = nil
	} else if err := r.sessions.Transition(session, result.Module, result.Submodule); err != nil {
		logger.Warn("classification names invalid transition, falling back",
			"module", result.Module,
			"submodule", result.Submodule)
		intent = dispatch.IntentOther
		actions = nil
	}

	applied, actErr := r.executor.Apply(ctx, actions)
	if actErr != nil {
		// Partial application is reported in the reply rather than silently
		// dropped; the remaining actions are not retried within the turn.
		logger.Error("action batch aborted", "error", actErr, "applied", countApplied(applied))
	}

	handler, ok := r.handlers[pairKey{session.ActiveModule, session.ActiveSubmodule}]
	if !ok {
		// The handler table mirrors the dispatch tree; a miss means the two
		// went out of sync at startup.
		handler = passthroughHandler{}
	}

	body, err := handler.Handle(ctx, &TurnContext{
		Session: session,
		Message: text,
		Intent:  intent,
		AIReply: result.Reply,
		Applied: applied,
	})
	if err != nil {
		return nil, err
	}

	r.sessions.AppendTurn(session, store.RoleAssistant, body)
	if err := r.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	reply := &Reply{
		Module:      session.ActiveModule,
		Submodule:   session.ActiveSubmodule,
		Intent:      intent,
		ActionTypes: appliedTypes(applied),
		ModelUsed:   result.ModelUsed,
		Body:        body,
	}
	logger.Info("turn completed",
		"module", reply.Module,
		"submodule", reply.Submodule,
		"intent", reply.Intent,
		"model", reply.ModelUsed,
		"actions", len(reply.ActionTypes))
	return reply, nil
}

// contractViolation checks the classification's actions against the dispatch
// tree's intent→action mapping. It returns a short description of the first
// violation found, or "" when the result is consistent.
func (r *Router) contractViolation(result *classifier.Result) string {
	if r.tree.RequiresAction(result.Intent) && len(result.Actions) == 0 {
		return "intent requires an action but none was provided"
	}
	for _, action := range result.Actions {
		actionType := dispatch.ActionType(action.Type)
		if !r.tree.KnownAction(actionType) {
			return "unknown action type " + action.Type
		}
		if !r.tree.ActionAllowed(result.Intent, actionType) {
			return "action " + action.Type + " not permitted for intent " + result.Intent
		}
	}
	return ""
}

func appliedTypes(results []ActionResult) []string {
	var types []string
	for _, result := range results {
		if result.Applied {
			types = append(types, string(result.Type))
		}
	}
	return types
}

func countApplied(results []ActionResult) int {
	n := 0
	for _, result := range results {
		if result.Applied {
			n++
		}
	}
	return n
}

// truncateForLog truncates a string for logging purposes.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
