package factory

import (
	"fmt"
	"time"

	"akasha-chat-be/pkg/assistant"
	"akasha-chat-be/pkg/assistant/ollama"
	"akasha-chat-be/pkg/assistant/openai"
	"akasha-chat-be/pkg/assistant/webhook"
)

type Options struct {
	Provider   string // webhook | openai | ollama
	URL        string
	APIKey     string
	Model      string
	Timeout    time.Duration
	RatePerSec float64
}

func NewEndpoint(opts Options) (assistant.Endpoint, error) {
	switch opts.Provider {
	case "", "webhook":
		if opts.URL == "" {
			return nil, fmt.Errorf("webhook provider requires a URL")
		}
		return webhook.NewClient(opts.URL, opts.Timeout, opts.RatePerSec), nil
	case "openai":
		return openai.NewProvider(opts.APIKey, opts.URL, opts.Model), nil
	case "ollama":
		baseURL := opts.URL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, opts.Model), nil
	default:
		return nil, fmt.Errorf("unsupported assistant provider: %s", opts.Provider)
	}
}

// KeepsOwnMemory reports whether the backend stores the conversation itself,
// keyed by chat id, so the service does not need to persist messages.
func KeepsOwnMemory(provider string) bool {
	return provider == "" || provider == "webhook"
}
