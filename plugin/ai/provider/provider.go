// Package provider wraps the concrete AI inference backends behind a single
// Generate interface so the classifier can fail over between them without
// caring which vendor SDK is underneath.
package provider

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gthalib/tulip/internal/profile"
	"github.com/gthalib/tulip/store"
)

// Provider names as stored on an InferenceModel.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Message is one prior conversation turn passed to the backend.
type Message struct {
	Role    string // "user" | "assistant"
	Content string
}

// Request is a single structured inference request.
type Request struct {
	System  string
	History []Message
	Prompt  string
}

// Provider is a single inference backend bound to one model.
type Provider interface {
	// Name returns the model identifier this provider is bound to.
	Name() string

	// Generate performs one inference call. Any transport error, non-2xx
	// status, or empty completion is returned as an error; the caller decides
	// whether to fail over.
	Generate(ctx context.Context, req *Request) (string, error)
}

// Factory builds providers for registered inference models.
type Factory struct {
	profile *profile.Profile
}

// NewFactory creates a provider factory from the profile's credentials.
func NewFactory(profile *profile.Profile) *Factory {
	return &Factory{profile: profile}
}

// New returns a provider bound to the given model descriptor.
func (f *Factory) New(model *store.InferenceModel) (Provider, error) {
	switch model.Provider {
	case ProviderGemini:
		return newGeminiProvider(f.profile, model.Name)
	case ProviderOpenRouter:
		return newOpenRouterProvider(f.profile, model.Name)
	default:
		return nil, errors.Errorf("unsupported inference provider: %s", model.Provider)
	}
}
