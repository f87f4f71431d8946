package store

import (
	"context"
	"log/slog"

	"github.com/gthalib/tulip/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Seed inserts the configured whitelist entries and the ranked model list.
// All inserts are idempotent, so Seed is safe to run on every startup.
func (s *Store) Seed(ctx context.Context) error {
	for _, number := range s.profile.Whitelist {
		if err := s.AddWhitelistEntry(ctx, number); err != nil {
			return err
		}
	}
	for rank, ref := range s.profile.Models {
		if _, err := s.UpsertInferenceModel(ctx, &InferenceModel{
			Name:     ref.Name,
			Provider: ref.Provider,
			Rank:     rank,
		}); err != nil {
			return err
		}
		slog.Debug("registered inference model",
			"provider", ref.Provider,
			"model", ref.Name,
			"rank", rank)
	}
	return nil
}
