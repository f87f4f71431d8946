// Package registry tracks the ranked inference backends and their suspension
// state, and hands the classifier the next eligible backend during failover.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gthalib/tulip/store"
)

// ErrNoEligibleModel is returned when every configured backend is suspended
// or none is configured. Callers must treat it as a hard classification
// failure rather than retrying.
var ErrNoEligibleModel = errors.New("no eligible inference model")

// ModelStore is the slice of the durable store the registry needs.
// *store.Store satisfies it.
type ModelStore interface {
	ListInferenceModels(ctx context.Context, find *store.FindInferenceModel) ([]*store.InferenceModel, error)
	UpdateInferenceModelSuspension(ctx context.Context, update *store.UpdateInferenceModelSuspension) error
}

// Registry selects backends in configured rank order. Eligibility is computed
// from the persisted suspended_until timestamp, so suspensions survive
// restarts and expire without an explicit clear.
type Registry struct {
	store      ModelStore
	suspendFor time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// New creates a registry over the given store. suspendFor is how long a
// failing backend is excluded from selection.
func New(store ModelStore, suspendFor time.Duration) *Registry {
	return &Registry{
		store:      store,
		suspendFor: suspendFor,
		now:        time.Now,
	}
}

// NextEligible returns the first backend in rank order that is neither in the
// exclude set nor suspended, or ErrNoEligibleModel.
func (r *Registry) NextEligible(ctx context.Context, exclude map[string]bool) (*store.InferenceModel, error) {
	models, err := r.store.ListInferenceModels(ctx, &store.FindInferenceModel{})
	if err != nil {
		return nil, err
	}

	now := r.now()
	for _, model := range models {
		if exclude[model.Name] {
			continue
		}
		if !model.Eligible(now) {
			continue
		}
		return model, nil
	}
	return nil, ErrNoEligibleModel
}

// MarkFailed suspends the backend until now + suspendFor and persists the
// failure. A persistence error is logged but not returned: the caller's
// tried set still excludes the backend for the rest of the turn, and the
// suspension direction is idempotent under concurrent writers.
func (r *Registry) MarkFailed(ctx context.Context, name string, cause error) {
	suspendedUntil := r.now().Add(r.suspendFor)

	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}

	slog.Warn("suspending inference model",
		"model", name,
		"suspended_until", suspendedUntil,
		"error", lastError)

	if err := r.store.UpdateInferenceModelSuspension(ctx, &store.UpdateInferenceModelSuspension{
		Name:           name,
		SuspendedUntil: suspendedUntil,
		LastError:      lastError,
	}); err != nil {
		slog.Error("failed to persist model suspension", "model", name, "error", err)
	}
}

// MarkSucceeded is a no-op: a selected model was not suspended, so success
// leaves nothing to clear.
func (r *Registry) MarkSucceeded(_ context.Context, _ string) {}
