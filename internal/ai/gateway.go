package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/metrics"
	"github.com/spigell/recruit-panel/internal/utils"

	"go.uber.org/zap"
)

const (
	DefaultMaxInputTokens = 4000
	// MinTruncatedChars is the floor for a truncated last message.
	MinTruncatedChars = 1000

	defaultMaxLogLength = 200
	charsPerToken       = 4

	truncationMarker = "\n\n[Prompt ingekort om binnen het tokenbudget te blijven]"
)

// Gateway wraps a Backend with input budgeting, logging and metrics.
type Gateway struct {
	backend        Backend
	maxInputTokens int
	maxLogLen      int
	logger         *zap.Logger
	metrics        *metrics.Recorder
}

type Option func(*Gateway)

// WithMaxInputTokens sets the input-token ceiling.
func WithMaxInputTokens(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxInputTokens = n
		}
	}
}

// WithMaxLogLength bounds prompt and response previews in debug logs.
func WithMaxLogLength(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxLogLen = n
		}
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(g *Gateway) {
		g.metrics = r
	}
}

func NewGateway(backend Backend, log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		backend:        backend,
		maxInputTokens: DefaultMaxInputTokens,
		maxLogLen:      defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(g)
	}

	provider, model := "", ""
	if backend != nil {
		provider, model = backend.Name(), backend.Model()
	}
	g.logger = logger.WithCommonFields(log, provider, model)

	return g
}

// Call performs one blocking completion.
func (g *Gateway) Call(ctx context.Context, req Request) (res Result) {
	if g == nil || g.backend == nil {
		return Result{Error: "ai gateway is not configured"}
	}
	if len(req.Messages) == 0 {
		return Result{Error: "no messages to send"}
	}

	req.Messages, _ = g.fitBudget(req.Messages)

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("backend panic: %v", r)}
		}
		g.metrics.ObserveCall(g.backend.Name(), res.Success, time.Since(started), res.TotalTokens)
	}()

	last := req.Messages[len(req.Messages)-1].Content
	g.logger.Debug("chat completion request",
		zap.Int("messages", len(req.Messages)),
		zap.Int("estimated_tokens", EstimateTokens(req.Messages)),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Float64("temperature", req.Temperature),
		zap.String("prompt_preview", utils.TruncateForLog(last, g.maxLogLen)),
	)

	completion, err := g.backend.Complete(ctx, req)
	if err == nil && strings.TrimSpace(completion.Content) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		g.logger.Warn("chat completion failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return Result{Error: err.Error()}
	}

	g.logger.Debug("chat completion response",
		zap.Int("total_tokens", completion.TotalTokens),
		zap.Duration("elapsed", time.Since(started)),
		zap.String("response_preview", utils.TruncateForLog(completion.Content, g.maxLogLen)),
	)

	return Result{Success: true, Content: completion.Content, TotalTokens: completion.TotalTokens}
}

// CallAsync is the awaitable form of Call.
func (g *Gateway) CallAsync(ctx context.Context, req Request) <-chan Result {
	return CallAsync(ctx, g, req)
}

// EstimateTokens approximates the token count as characters / 4.
func EstimateTokens(msgs []Message) int {
	chars := 0
	for _, m := range msgs {
		chars += utf8.RuneCountInString(m.Content)
	}
	return chars / charsPerToken
}

// fitBudget truncates the last message when the estimate exceeds the ceiling.
// System messages are never cut. The input slice is not modified.
func (g *Gateway) fitBudget(msgs []Message) ([]Message, bool) {
	if EstimateTokens(msgs) <= g.maxInputTokens {
		return msgs, false
	}

	lastIdx := len(msgs) - 1
	if msgs[lastIdx].Role == RoleSystem {
		return msgs, false
	}

	available := g.maxInputTokens - EstimateTokens(msgs[:lastIdx])
	limit := max(available*charsPerToken, MinTruncatedChars)

	out := make([]Message, len(msgs))
	copy(out, msgs)
	cut := utils.TruncateWithMarker(out[lastIdx].Content, limit, truncationMarker)
	if cut == out[lastIdx].Content {
		return msgs, false
	}
	out[lastIdx].Content = cut

	g.metrics.ObserveTruncation()
	g.logger.Warn("prompt truncated to fit input budget",
		zap.Int("max_input_tokens", g.maxInputTokens),
		zap.Int("kept_chars", limit),
	)
	return out, true
}
