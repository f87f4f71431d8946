// Package classifier turns a free-text user message into a structured
// classification (module, submodule, intent, reply, actions) by calling the
// ranked inference backends with failover. Every backend response is treated
// as untrusted input and validated against the dispatch tree before it is
// returned.
package classifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/plugin/ai/provider"
	"github.com/gthalib/tulip/plugin/ai/registry"
	"github.com/gthalib/tulip/plugin/ai/timeout"
	"github.com/gthalib/tulip/store"
)

var (
	// ErrUnavailable means no eligible backend exists for this turn.
	ErrUnavailable = errors.New("classification unavailable: no eligible backend")

	// ErrInvalid means every attempted backend returned a response that could
	// not be parsed into a valid dispatch-tree path.
	ErrInvalid = errors.New("classification invalid: all backends returned out-of-contract responses")
)

// Action is one data-mutating operation requested by the classification.
type Action struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Result is the validated classification for one turn.
type Result struct {
	Module    string
	Submodule string
	Intent    string
	Reply     string
	Actions   []Action
	ModelUsed string
}

// ModelRegistry is the registry surface the classifier consumes.
type ModelRegistry interface {
	NextEligible(ctx context.Context, exclude map[string]bool) (*store.InferenceModel, error)
	MarkFailed(ctx context.Context, name string, cause error)
	MarkSucceeded(ctx context.Context, name string)
}

// ProviderFactory binds a model descriptor to a callable provider.
type ProviderFactory interface {
	New(model *store.InferenceModel) (provider.Provider, error)
}

// Classifier performs one classification per turn with at most one failed
// attempt per configured backend.
type Classifier struct {
	registry  ModelRegistry
	providers ProviderFactory
	tree      *dispatch.Tree
}

// New creates a classifier over the given registry and provider factory.
func New(registry ModelRegistry, providers ProviderFactory, tree *dispatch.Tree) *Classifier {
	return &Classifier{
		registry:  registry,
		providers: providers,
		tree:      tree,
	}
}

// Classify runs the failover loop: obtain the next eligible backend, invoke
// it, parse and validate the response. The first structurally valid result is
// returned immediately; a failing backend is suspended and excluded for the
// rest of the turn.
func (c *Classifier) Classify(ctx context.Context, session *store.Session, message string) (*Result, error) {
	req := buildRequest(c.tree, session, message)

	tried := map[string]bool{}
	attempts, invalid := 0, 0

	for {
		model, err := c.registry.NextEligible(ctx, tried)
		if err != nil {
			if errors.Is(err, registry.ErrNoEligibleModel) {
				if attempts > 0 && invalid == attempts {
					return nil, ErrInvalid
				}
				return nil, ErrUnavailable
			}
			return nil, err
		}

		result, invalidResponse, err := c.attempt(ctx, model, req)
		if err == nil {
			c.registry.MarkSucceeded(ctx, model.Name)
			slog.Info("classification succeeded",
				"model", model.Name,
				"module", result.Module,
				"submodule", result.Submodule,
				"intent", result.Intent,
				"actions", len(result.Actions))
			return result, nil
		}
		if ctx.Err() != nil {
			// The turn deadline elapsed; do not burn through the remaining
			// backends or suspend them for our own timeout.
			return nil, ctx.Err()
		}

		attempts++
		if invalidResponse {
			invalid++
		}
		c.registry.MarkFailed(ctx, model.Name, err)
		tried[model.Name] = true
	}
}

// attempt invokes a single backend and validates its output. The second
// return value reports whether the failure was an out-of-contract response
// as opposed to a transport error.
func (c *Classifier) attempt(ctx context.Context, model *store.InferenceModel, req *provider.Request) (*Result, bool, error) {
	backend, err := c.providers.New(model)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	raw, err := backend.Generate(ctx, req)
	latency := time.Since(start)
	if err != nil {
		slog.Warn("inference call failed",
			"model", model.Name,
			"latency_ms", latency.Milliseconds(),
			"error", err)
		return nil, false, err
	}

	slog.Debug("inference call completed",
		"model", model.Name,
		"latency_ms", latency.Milliseconds(),
		"response", truncateForLog(raw, timeout.MaxTruncateLength))

	result, err := parseResponse(raw)
	if err != nil {
		return nil, true, err
	}

	if !c.tree.ValidPath(result.Module, result.Submodule, result.Intent) {
		slog.Warn("classification names unknown dispatch path",
			"model", model.Name,
			"module", result.Module,
			"submodule", result.Submodule,
			"intent", result.Intent)
		return nil, true, errors.New("classification path not in dispatch tree")
	}

	result.ModelUsed = model.Name
	return result, false, nil
}

// truncateForLog truncates a string for logging purposes.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
