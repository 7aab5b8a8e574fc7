package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/recruit-panel/internal/ai"

	goopenai "github.com/sashabaranov/go-openai"
)

type fakeChat struct {
	req  goopenai.ChatCompletionRequest
	resp goopenai.ChatCompletionResponse
	err  error
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func reply(content string, tokens int) goopenai.ChatCompletionResponse {
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{Content: content}}},
		Usage:   goopenai.Usage{TotalTokens: tokens},
	}
}

func TestClientComplete(t *testing.T) {
	fake := &fakeChat{resp: reply(" {\"score\": 6} ", 311)}
	client := newClient(fake, "")

	completion, err := client.Complete(context.Background(), ai.Request{
		Messages:    []ai.Message{ai.System("sys"), ai.User("usr"), {Role: ai.RoleAssistant, Content: "eerder"}},
		MaxTokens:   220,
		Temperature: 0.8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completion.Content != `{"score": 6}` || completion.TotalTokens != 311 {
		t.Fatalf("unexpected completion: %+v", completion)
	}
	if fake.req.Model != defaultModel || fake.req.MaxTokens != 220 || fake.req.Temperature != float32(0.8) {
		t.Fatalf("unexpected request: %+v", fake.req)
	}

	roles := []string{goopenai.ChatMessageRoleSystem, goopenai.ChatMessageRoleUser, goopenai.ChatMessageRoleAssistant}
	for i, role := range roles {
		if fake.req.Messages[i].Role != role {
			t.Fatalf("message %d: expected role %q, got %q", i, role, fake.req.Messages[i].Role)
		}
	}
}

func TestClientCompleteErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeChat
	}{
		{name: "api error", fake: &fakeChat{err: errors.New("401")}},
		{name: "no choices", fake: &fakeChat{}},
		{name: "blank content", fake: &fakeChat{resp: reply("   ", 3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(tt.fake, "gpt-4o")
			if _, err := client.Complete(context.Background(), ai.Request{Messages: []ai.Message{ai.User("x")}}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, err := New("", "", ""); err == nil {
		t.Fatalf("expected missing key error")
	}

	client, err := New("sk-test", "https://openrouter.ai/api/v1/", "openai/gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != "openai/gpt-4o-mini" || client.Name() != ProviderName {
		t.Fatalf("unexpected client identity: %s %s", client.Name(), client.Model())
	}
}
