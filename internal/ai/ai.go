// Package ai is the single boundary to hosted chat completion services. The
// Gateway never retries and never returns an error value: every failure is
// folded into Result.
package ai

import (
	"context"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion call. An empty Model means the backend default.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Model       string
}

// Completion is what a backend returns on success.
type Completion struct {
	Content     string
	TotalTokens int
}

// Result is the uniform envelope handed back to callers.
type Result struct {
	Success     bool   `json:"success"`
	Content     string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
	TotalTokens int    `json:"total_tokens,omitempty"`
}

// Backend talks to one provider.
type Backend interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Completer is what the engines depend on.
type Completer interface {
	Call(ctx context.Context, req Request) Result
}

// CallAsync starts c.Call in its own goroutine. The channel yields exactly
// one Result and is then closed.
func CallAsync(ctx context.Context, c Completer, req Request) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- c.Call(ctx, req)
	}()
	return out
}

// System and User build messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }
