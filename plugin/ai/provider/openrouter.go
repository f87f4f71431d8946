package provider

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/gthalib/tulip/internal/profile"
	"github.com/gthalib/tulip/plugin/ai/timeout"
)

// openRouterProvider calls OpenRouter-hosted models through the OpenAI
// compatible chat completion API.
type openRouterProvider struct {
	client *openai.Client
	model  string
}

func newOpenRouterProvider(profile *profile.Profile, model string) (Provider, error) {
	if profile.OpenRouterAPIKey == "" {
		return nil, errors.New("openrouter API key is not configured")
	}

	clientConfig := openai.DefaultConfig(profile.OpenRouterAPIKey)
	clientConfig.BaseURL = profile.OpenRouterURL

	return &openRouterProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

func (p *openRouterProvider) Name() string {
	return p.model
}

func (p *openRouterProvider) Generate(ctx context.Context, req *Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ProviderTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.History {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		Messages:    messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "openrouter completion failed for %s", p.model)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Errorf("empty response from openrouter model %s", p.model)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
