package store

import (
	"context"
	"time"
)

// InferenceModel describes one configured AI backend. Rank reflects the
// configuration order; lower ranks are tried first. A model is eligible when
// SuspendedUntil is nil or in the past; eligibility is computed from the
// timestamp, never stored as a flag.
type InferenceModel struct {
	Name           string
	Provider       string // "gemini" | "openrouter"
	Rank           int
	SuspendedUntil *time.Time
	ErrorCount     int
	LastError      string
}

// Eligible reports whether the model may be selected at the given time.
func (m *InferenceModel) Eligible(now time.Time) bool {
	return m.SuspendedUntil == nil || m.SuspendedUntil.Before(now)
}

// FindInferenceModel is the query object for inference models.
type FindInferenceModel struct {
	Name *string
}

// UpdateInferenceModelSuspension records a backend failure.
type UpdateInferenceModelSuspension struct {
	Name           string
	SuspendedUntil time.Time
	LastError      string
}

func (s *Store) UpsertInferenceModel(ctx context.Context, upsert *InferenceModel) (*InferenceModel, error) {
	return s.driver.UpsertInferenceModel(ctx, upsert)
}

// ListInferenceModels returns models ordered by rank.
func (s *Store) ListInferenceModels(ctx context.Context, find *FindInferenceModel) ([]*InferenceModel, error) {
	return s.driver.ListInferenceModels(ctx, find)
}

func (s *Store) UpdateInferenceModelSuspension(ctx context.Context, update *UpdateInferenceModelSuspension) error {
	return s.driver.UpdateInferenceModelSuspension(ctx, update)
}
