package openai

import (
	"context"
	"fmt"
	"strings"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/pkg/assistant"

	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// Provider answers through any OpenAI-compatible chat completion API.
type Provider struct {
	client *goopenai.Client
	model  string
}

var _ assistant.Endpoint = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		client: goopenai.NewClientWithConfig(config),
		model:  model,
	}
}

func (p *Provider) Reply(ctx context.Context, req assistant.Request) (string, error) {
	turns := assistant.Conversation(req)
	messages := make([]goopenai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		messages[i] = goopenai.ChatCompletionMessage{Role: t.Role, Content: t.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", entity.ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", entity.ErrDecode)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty completion content", entity.ErrDecode)
	}
	return content, nil
}
