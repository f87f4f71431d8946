package provider

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/gthalib/tulip/internal/profile"
	"github.com/gthalib/tulip/plugin/ai/timeout"
)

// geminiProvider calls the Gemini API through the official genai SDK.
type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(profile *profile.Profile, model string) (Provider, error) {
	if profile.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key is not configured")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: profile.GeminiAPIKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) Name() string {
	return p.model
}

func (p *geminiProvider) Generate(ctx context.Context, req *Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ProviderTimeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", errors.Wrapf(err, "gemini generate failed for %s", p.model)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.Errorf("empty response from gemini model %s", p.model)
	}
	return text, nil
}
