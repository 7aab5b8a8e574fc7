package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/spigell/recruit-panel/internal/metrics"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubBackend struct {
	mu       sync.Mutex
	response Completion
	err      error
	panicMsg string
	requests []Request
}

func (s *stubBackend) Name() string  { return "stub" }
func (s *stubBackend) Model() string { return "stub-model" }

func (s *stubBackend) Complete(_ context.Context, req Request) (Completion, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.response, s.err
}

func (s *stubBackend) last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func TestGatewayCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend *stubBackend
		success bool
		errPart string
	}{
		{
			name:    "success",
			backend: &stubBackend{response: Completion{Content: `{"score": 8}`, TotalTokens: 42}},
			success: true,
		},
		{
			name:    "backend error",
			backend: &stubBackend{err: errors.New("rate limited")},
			errPart: "rate limited",
		},
		{
			name:    "empty completion",
			backend: &stubBackend{response: Completion{Content: "  "}},
			errPart: "empty completion",
		},
		{
			name:    "panic is captured",
			backend: &stubBackend{panicMsg: "boom"},
			errPart: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewGateway(tt.backend, zap.NewNop(), WithMetrics(metrics.New()))
			res := g.Call(context.Background(), Request{Messages: []Message{System("sys"), User("hoi")}})
			if res.Success != tt.success {
				t.Fatalf("expected success=%v, got %+v", tt.success, res)
			}
			if tt.success && res.TotalTokens != 42 {
				t.Fatalf("expected token usage to be passed through, got %d", res.TotalTokens)
			}
			if !tt.success && !strings.Contains(res.Error, tt.errPart) {
				t.Fatalf("expected error to contain %q, got %q", tt.errPart, res.Error)
			}
		})
	}
}

func TestGatewayRejectsEmptyRequest(t *testing.T) {
	t.Parallel()

	g := NewGateway(&stubBackend{}, nil)
	if res := g.Call(context.Background(), Request{}); res.Success || res.Error == "" {
		t.Fatalf("expected failure envelope, got %+v", res)
	}

	var nilGateway *Gateway
	if res := nilGateway.Call(context.Background(), Request{Messages: []Message{User("x")}}); res.Success {
		t.Fatalf("expected failure from nil gateway")
	}
}

func TestGatewayTruncatesLastMessage(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	backend := &stubBackend{response: Completion{Content: "ok"}}
	g := NewGateway(backend, zap.New(core), WithMaxInputTokens(1000))

	system := strings.Repeat("s", 2000)
	user := strings.Repeat("u", 10000)
	res := g.Call(context.Background(), Request{Messages: []Message{System(system), User(user)}})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}

	sent := backend.last().Messages
	if sent[0].Content != system {
		t.Fatalf("expected system prompt to be preserved")
	}
	// 1000 - 2000/4 = 500 tokens available -> 2000 chars kept.
	if !strings.HasPrefix(sent[1].Content, strings.Repeat("u", 2000)) || !strings.HasSuffix(sent[1].Content, truncationMarker) {
		t.Fatalf("unexpected truncation result (len %d)", utf8.RuneCountInString(sent[1].Content))
	}
	if utf8.RuneCountInString(sent[1].Content) != 2000+utf8.RuneCountInString(truncationMarker) {
		t.Fatalf("unexpected truncated length %d", utf8.RuneCountInString(sent[1].Content))
	}
	if observed.FilterMessage("prompt truncated to fit input budget").Len() != 1 {
		t.Fatalf("expected truncation warning")
	}
}

func TestGatewayTruncationFloor(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{response: Completion{Content: "ok"}}
	g := NewGateway(backend, zap.NewNop(), WithMaxInputTokens(100))

	msgs := []Message{System(strings.Repeat("s", 800)), User(strings.Repeat("u", 5000))}
	g.Call(context.Background(), Request{Messages: msgs})

	sent := backend.last().Messages[1].Content
	if !strings.HasPrefix(sent, strings.Repeat("u", MinTruncatedChars)) || strings.HasPrefix(sent, strings.Repeat("u", MinTruncatedChars+1)) {
		t.Fatalf("expected truncation to keep exactly %d chars", MinTruncatedChars)
	}
	if utf8.RuneCountInString(msgs[1].Content) != 5000 {
		t.Fatalf("caller messages must not be modified")
	}
}

func TestGatewayCallAsync(t *testing.T) {
	t.Parallel()

	g := NewGateway(&stubBackend{response: Completion{Content: "klaar"}}, zap.NewNop())
	ch := g.CallAsync(context.Background(), Request{Messages: []Message{User("hoi")}})

	res, ok := <-ch
	if !ok || !res.Success || res.Content != "klaar" {
		t.Fatalf("unexpected async result: %+v (ok=%v)", res, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after one result")
	}
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	if got := EstimateTokens([]Message{User("abcd"), User("ëëëë")}); got != 2 {
		t.Fatalf("expected 2 tokens, got %d", got)
	}
}
