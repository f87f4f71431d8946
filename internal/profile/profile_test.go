package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelList(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want []ModelRef
	}{
		{
			name: "mixed_providers",
			raw:  "gemini:gemini-2.5-flash,openrouter:deepseek/deepseek-chat",
			want: []ModelRef{
				{Provider: "gemini", Name: "gemini-2.5-flash"},
				{Provider: "openrouter", Name: "deepseek/deepseek-chat"},
			},
		},
		{
			name: "provider_defaults_to_gemini",
			raw:  "gemini-2.5-flash",
			want: []ModelRef{{Provider: "gemini", Name: "gemini-2.5-flash"}},
		},
		{
			name: "whitespace_and_empty_entries",
			raw:  " gemini:gemini-2.5-pro , ,openrouter: gpt-4o-mini ",
			want: []ModelRef{
				{Provider: "gemini", Name: "gemini-2.5-pro"},
				{Provider: "openrouter", Name: "gpt-4o-mini"},
			},
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseModelList(tc.raw))
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())

	assert.Equal(t, DefaultHistoryCapacity, p.HistoryCapacity)
	assert.Equal(t, DefaultSuspendDuration, p.SuspendDuration)
	assert.Contains(t, p.DSN, "tulip_dev.db")
	assert.NotEmpty(t, p.MessagingURL)
	assert.NotEmpty(t, p.OpenRouterURL)
}

func TestValidateNormalizesUnknownMode(t *testing.T) {
	p := &Profile{Mode: "staging", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	p := &Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   t.TempDir(),
		Models: []ModelRef{{Provider: "ollama", Name: "llama3"}},
	}
	assert.Error(t, p.Validate())
}

func TestValidateKeepsExplicitDSN(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir(), DSN: "/tmp/custom.db"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "/tmp/custom.db", p.DSN)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TULIP_VERIFY_TOKEN", "verify-me")
	t.Setenv("TULIP_MODELS", "gemini:gemini-2.5-flash,openrouter:deepseek/deepseek-chat")
	t.Setenv("TULIP_WHITELIST", "628111, 628222")
	t.Setenv("TULIP_HISTORY_CAPACITY", "10")
	t.Setenv("TULIP_SUSPEND_DURATION", "1h")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "verify-me", p.VerifyToken)
	assert.Len(t, p.Models, 2)
	assert.Equal(t, []string{"628111", "628222"}, p.Whitelist)
	assert.Equal(t, 10, p.HistoryCapacity)
	assert.Equal(t, time.Hour, p.SuspendDuration)
}

func TestIsDev(t *testing.T) {
	assert.True(t, (&Profile{Mode: "dev"}).IsDev())
	assert.True(t, (&Profile{Mode: "demo"}).IsDev())
	assert.False(t, (&Profile{Mode: "prod"}).IsDev())
}
