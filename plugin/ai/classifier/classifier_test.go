package classifier

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/plugin/ai/provider"
	"github.com/gthalib/tulip/plugin/ai/registry"
	"github.com/gthalib/tulip/store"
)

// fakeRegistry serves models in slice order, honoring the exclude set and its
// own suspended set, and records failure marks.
type fakeRegistry struct {
	models    []*store.InferenceModel
	suspended map[string]bool
	failed    []string
	succeeded []string
}

func (f *fakeRegistry) NextEligible(_ context.Context, exclude map[string]bool) (*store.InferenceModel, error) {
	for _, model := range f.models {
		if exclude[model.Name] || f.suspended[model.Name] {
			continue
		}
		return model, nil
	}
	return nil, registry.ErrNoEligibleModel
}

func (f *fakeRegistry) MarkFailed(_ context.Context, name string, _ error) {
	if f.suspended == nil {
		f.suspended = map[string]bool{}
	}
	f.suspended[name] = true
	f.failed = append(f.failed, name)
}

func (f *fakeRegistry) MarkSucceeded(_ context.Context, name string) {
	f.succeeded = append(f.succeeded, name)
}

// scriptedProvider returns a canned response or error and counts invocations.
type scriptedProvider struct {
	name     string
	response string
	err      error
	calls    int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(_ context.Context, _ *provider.Request) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

type fakeFactory struct {
	providers map[string]*scriptedProvider
}

func (f *fakeFactory) New(model *store.InferenceModel) (provider.Provider, error) {
	p, ok := f.providers[model.Name]
	if !ok {
		return nil, errors.Errorf("no provider scripted for %s", model.Name)
	}
	return p, nil
}

func rankedModels(names ...string) []*store.InferenceModel {
	models := make([]*store.InferenceModel, 0, len(names))
	for i, name := range names {
		models = append(models, &store.InferenceModel{Name: name, Provider: "gemini", Rank: i})
	}
	return models
}

func newSession() *store.Session {
	return &store.Session{
		UserID:          "62811111",
		ActiveModule:    dispatch.ModuleBase,
		ActiveSubmodule: dispatch.SubmoduleMain,
	}
}

const validGreetJSON = `{"module": "Base", "submodule": "Main", "intent": "Greet", "reply": "Hello!", "actions": []}`

func TestClassifyFailover(t *testing.T) {
	reg := &fakeRegistry{models: rankedModels("alpha", "bravo", "charlie")}
	alpha := &scriptedProvider{name: "gemini", err: errors.New("connection refused")}
	bravo := &scriptedProvider{name: "gemini", err: errors.New("rate limited")}
	charlie := &scriptedProvider{name: "gemini", response: validGreetJSON}
	factory := &fakeFactory{providers: map[string]*scriptedProvider{
		"alpha": alpha, "bravo": bravo, "charlie": charlie,
	}}

	c := New(reg, factory, dispatch.Default())
	result, err := c.Classify(context.Background(), newSession(), "hi there")
	require.NoError(t, err)

	assert.Equal(t, "charlie", result.ModelUsed)
	assert.Equal(t, dispatch.IntentGreet, result.Intent)
	assert.Equal(t, "Hello!", result.Reply)

	// Both failing backends are marked exactly once; the succeeding one never is.
	assert.Equal(t, []string{"alpha", "bravo"}, reg.failed)
	assert.Equal(t, []string{"charlie"}, reg.succeeded)
	assert.Equal(t, 1, alpha.calls)
	assert.Equal(t, 1, bravo.calls)
	assert.Equal(t, 1, charlie.calls)
}

func TestClassifyAllSuspended(t *testing.T) {
	reg := &fakeRegistry{
		models:    rankedModels("alpha", "bravo"),
		suspended: map[string]bool{"alpha": true, "bravo": true},
	}
	alpha := &scriptedProvider{name: "gemini", response: validGreetJSON}
	factory := &fakeFactory{providers: map[string]*scriptedProvider{"alpha": alpha}}

	c := New(reg, factory, dispatch.Default())
	_, err := c.Classify(context.Background(), newSession(), "hi")

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, alpha.calls)
}

func TestClassifyAllInvalid(t *testing.T) {
	reg := &fakeRegistry{models: rankedModels("alpha", "bravo")}
	factory := &fakeFactory{providers: map[string]*scriptedProvider{
		"alpha": {name: "gemini", response: "I cannot answer in JSON, sorry."},
		"bravo": {name: "gemini", response: `{"module": "Garden", "submodule": "Main", "intent": "Greet", "reply": "hm"}`},
	}}

	c := New(reg, factory, dispatch.Default())
	_, err := c.Classify(context.Background(), newSession(), "hi")

	// Every backend answered but none within the contract.
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, []string{"alpha", "bravo"}, reg.failed)
}

func TestClassifyMixedFailureIsUnavailable(t *testing.T) {
	reg := &fakeRegistry{models: rankedModels("alpha", "bravo")}
	factory := &fakeFactory{providers: map[string]*scriptedProvider{
		"alpha": {name: "gemini", err: errors.New("timeout")},
		"bravo": {name: "gemini", response: "not json"},
	}}

	c := New(reg, factory, dispatch.Default())
	_, err := c.Classify(context.Background(), newSession(), "hi")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassifyCanceledContextStopsFailover(t *testing.T) {
	reg := &fakeRegistry{models: rankedModels("alpha", "bravo")}
	ctx, cancel := context.WithCancel(context.Background())
	alpha := &scriptedProvider{name: "gemini", err: context.Canceled}
	bravo := &scriptedProvider{name: "gemini", response: validGreetJSON}
	factory := &fakeFactory{providers: map[string]*scriptedProvider{"alpha": alpha, "bravo": bravo}}
	cancel()

	c := New(reg, factory, dispatch.Default())
	_, err := c.Classify(ctx, newSession(), "hi")

	// Our own deadline must not suspend backends or continue the loop.
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reg.failed)
	assert.Zero(t, bravo.calls)
}

func TestClassifyRejectsPathOutsideTree(t *testing.T) {
	reg := &fakeRegistry{models: rankedModels("alpha")}
	factory := &fakeFactory{providers: map[string]*scriptedProvider{
		// Meal/Main has no Greet intent.
		"alpha": {name: "gemini", response: `{"module": "Meal", "submodule": "Main", "intent": "Greet", "reply": "hi"}`},
	}}

	c := New(reg, factory, dispatch.Default())
	_, err := c.Classify(context.Background(), newSession(), "hi")

	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, []string{"alpha"}, reg.failed)
}

func TestParseResponse(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr bool
		intent  string
		actions int
	}{
		{
			name:    "plain_json",
			content: validGreetJSON,
			intent:  dispatch.IntentGreet,
		},
		{
			name: "fenced_json",
			content: "```json\n{\"module\": \"Base\", \"submodule\": \"Settings\", \"intent\": \"Create whitelist\", " +
				"\"reply\": \"Done\", \"actions\": [{\"type\": \"add_whitelist\", \"value\": \"628123\"}]}\n```",
			intent:  dispatch.IntentCreateWhitelist,
			actions: 1,
		},
		{
			name:    "bare_fence",
			content: "```\n" + validGreetJSON + "\n```",
			intent:  dispatch.IntentGreet,
		},
		{
			name:    "not_json",
			content: "Hello! How can I help you today?",
			wantErr: true,
		},
		{
			name:    "missing_intent",
			content: `{"module": "Base", "submodule": "Main", "reply": "hi"}`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseResponse(tc.content)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.intent, result.Intent)
			assert.Len(t, result.Actions, tc.actions)
		})
	}
}

func TestBuildRequestIncludesPosition(t *testing.T) {
	session := newSession()
	session.ActiveSubmodule = dispatch.SubmoduleSettings
	for i := 0; i < 8; i++ {
		session.History = append(session.History,
			store.HistoryEntry{Role: store.RoleUser, Content: "msg"})
	}

	req := buildRequest(dispatch.Default(), session, "add 628 to the whitelist")

	assert.Contains(t, req.Prompt, "Module=Base, Submodule=Settings")
	assert.Contains(t, req.Prompt, "New Message: add 628 to the whitelist")
	assert.Contains(t, req.Prompt, "- Module: Meal")
	assert.Len(t, req.History, 5)
}
