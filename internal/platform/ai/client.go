// Package ai wraps the generative provider used for summaries, SOAP notes
// and chat replies. Callers must treat every error or empty response as
// "use the deterministic path instead": the provider is an enhancement, not
// a dependency, and the service stays functional without it.
package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Message is a minimal chat message. Role must be one of "system", "user"
// or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client is what the domain services depend on. Implementations may fail or
// return empty strings at any time; callers own the fallback.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ErrNotConfigured is returned by Disabled and by clients missing an API key.
var ErrNotConfigured = errors.New("ai: provider not configured")

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a provider-backed client, or nil when apiKey is
// empty so callers can wire Disabled() instead.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	return c.Chat(ctx, []Message{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

// Disabled is a Client that always reports the provider as unconfigured,
// forcing every caller onto its deterministic path.
type Disabled struct{}

func (Disabled) Chat(ctx context.Context, messages []Message) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Complete(ctx context.Context, system, prompt string) (string, error) {
	return "", ErrNotConfigured
}
