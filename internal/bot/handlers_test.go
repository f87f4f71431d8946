package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gthalib/tulip/plugin/ai/dispatch"
)

func TestHandlerTableCoversTree(t *testing.T) {
	tree := dispatch.Default()
	handlers := newHandlerTable(&fakeWhitelistStore{})

	for _, pair := range [][2]string{
		{dispatch.ModuleBase, dispatch.SubmoduleMain},
		{dispatch.ModuleBase, dispatch.SubmoduleSettings},
		{dispatch.ModuleMeal, dispatch.SubmoduleMain},
	} {
		require.True(t, tree.ValidPair(pair[0], pair[1]))
		_, ok := handlers[pairKey{pair[0], pair[1]}]
		assert.True(t, ok, "no handler for %s/%s", pair[0], pair[1])
	}
}

func TestPassthroughHandler(t *testing.T) {
	body, err := passthroughHandler{}.Handle(context.Background(), &TurnContext{
		Intent:  dispatch.IntentGreet,
		AIReply: "Hello there!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", body)
}

func TestSettingsHandlerReadWhitelist(t *testing.T) {
	ctx := context.Background()
	handler := settingsHandler{whitelist: &fakeWhitelistStore{entries: []string{"628111", "628222"}}}

	body, err := handler.Handle(ctx, &TurnContext{
		Intent:  dispatch.IntentReadWhitelist,
		AIReply: "Here is your whitelist.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Here is your whitelist.\n\n*Current Whitelist:*\n- 628111\n- 628222", body)
}

func TestSettingsHandlerReadEmptyWhitelist(t *testing.T) {
	handler := settingsHandler{whitelist: &fakeWhitelistStore{}}

	body, err := handler.Handle(context.Background(), &TurnContext{
		Intent:  dispatch.IntentReadWhitelist,
		AIReply: "Here is your whitelist.",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "*The whitelist is currently empty.*")
}

func TestSettingsHandlerReportsChanges(t *testing.T) {
	handler := settingsHandler{whitelist: &fakeWhitelistStore{}}

	body, err := handler.Handle(context.Background(), &TurnContext{
		Intent:  dispatch.IntentCreateWhitelist,
		AIReply: "Done!",
		Applied: []ActionResult{
			{Type: dispatch.ActionAddWhitelist, Value: "628111", Applied: true},
			{Type: dispatch.ActionRemoveWhitelist, Value: "628222", Applied: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Done!\n- added 628111\n- removed 628222", body)
}

func TestSettingsHandlerReportsPartialFailure(t *testing.T) {
	handler := settingsHandler{whitelist: &fakeWhitelistStore{}}

	body, err := handler.Handle(context.Background(), &TurnContext{
		Intent:  dispatch.IntentCreateWhitelist,
		AIReply: "On it.",
		Applied: []ActionResult{
			{Type: dispatch.ActionAddWhitelist, Value: "628111", Applied: true},
			{Type: dispatch.ActionAddWhitelist, Value: "628222", Applied: false},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, body, "- added 628111")
	assert.NotContains(t, body, "628222")
	assert.Contains(t, body, "*Some requested changes could not be applied.*")
}

func TestSettingsHandlerFallbackIntentPassesThrough(t *testing.T) {
	handler := settingsHandler{whitelist: &fakeWhitelistStore{}}

	body, err := handler.Handle(context.Background(), &TurnContext{
		Intent:  dispatch.IntentOther,
		AIReply: "Could you rephrase that?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Could you rephrase that?", body)
}
