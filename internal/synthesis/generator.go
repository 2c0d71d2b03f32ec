// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Message is one role-tagged message in a generation request.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Generator is the external narrative-generation capability: a single-shot
// call taking a role-tagged message list and returning plain text. It is
// fallible and potentially slow (tens of seconds); callers must treat an
// error or empty text as a signal to fall back.
type Generator interface {
	// Generate produces text for the conversation, or an error.
	Generate(ctx context.Context, messages []Message) (string, error)

	// ModelName identifies the serving model, used as the synthesis tag.
	ModelName() string
}

// OpenAIGenerator implements Generator against an OpenAI-compatible
// chat-completions API.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIGenerator builds a generator from synthesis configuration.
func NewOpenAIGenerator(cfg types.SynthesisConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synthesis API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// ModelName returns the configured model identifier.
func (g *OpenAIGenerator) ModelName() string { return g.model }

// Generate makes one chat-completion call and extracts the text.
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: 0.3,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generation API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation API returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
