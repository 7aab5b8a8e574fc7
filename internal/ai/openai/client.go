// Package openai is an ai.Backend for OpenAI-compatible chat completion APIs
// (OpenAI itself, OpenRouter, local gateways).
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/recruit-panel/internal/ai"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	ProviderName = "openai"
	defaultModel = "gpt-4o-mini"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

type Client struct {
	chat      chatClient
	modelName string
}

// New builds a client. An empty baseURL keeps the library default.
func New(apiKey, baseURL, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return newClient(goopenai.NewClientWithConfig(cfg), model), nil
}

func newClient(chat chatClient, model string) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{chat: chat, modelName: model}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

func (c *Client) Complete(ctx context.Context, req ai.Request) (ai.Completion, error) {
	if c == nil || c.chat == nil {
		return ai.Completion{}, errors.New("openai client is not initialized")
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    roleFor(msg.Role),
			Content: msg.Content,
		})
	}

	model := c.modelName
	if m := strings.TrimSpace(req.Model); m != "" {
		model = m
	}

	resp, err := c.chat.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return ai.Completion{}, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ai.Completion{}, errors.New("openai api returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return ai.Completion{}, errors.New("openai api returned empty response")
	}

	return ai.Completion{Content: content, TotalTokens: resp.Usage.TotalTokens}, nil
}

func roleFor(r ai.Role) string {
	switch r {
	case ai.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case ai.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}
