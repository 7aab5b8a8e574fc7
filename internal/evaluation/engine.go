// Package evaluation scores one candidate against one job with a panel of
// personas and merges the verdicts.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/recruit-panel/internal/ai"
	"github.com/spigell/recruit-panel/internal/judge"
	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/metrics"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/scoring"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const engineName = "evaluation"

// Settings are the model parameters for evaluation calls.
type Settings struct {
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max-tokens"`
	Parallelism int           `mapstructure:"parallelism"`
	CallTimeout time.Duration `mapstructure:"call-timeout"`
}

func DefaultSettings() Settings {
	return Settings{
		Temperature: 0.2,
		MaxTokens:   900,
		Parallelism: 8,
		CallTimeout: 60 * time.Second,
	}
}

// PersonaRequest pairs a persona with the system prompt to use for it.
type PersonaRequest struct {
	Persona recruitment.Persona
	// Prompt overrides the stored system prompt when set.
	Prompt string
}

type Request struct {
	Personas    []PersonaRequest
	Candidate   *recruitment.Candidate
	Job         *recruitment.Job
	CompanyNote string
	Strictness  prompt.Strictness
}

type Engine struct {
	gateway   ai.Completer
	assembler *prompt.Assembler
	settings  Settings
	logger    *zap.Logger
	metrics   *metrics.Recorder
	history   *judge.History
}

type Option func(*Engine)

func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithHistory records every completed evaluation in h.
func WithHistory(h *judge.History) Option {
	return func(e *Engine) { e.history = h }
}

func New(gateway ai.Completer, assembler *prompt.Assembler, settings Settings, log *zap.Logger, opts ...Option) *Engine {
	if settings.Parallelism <= 0 {
		settings.Parallelism = DefaultSettings().Parallelism
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = DefaultSettings().MaxTokens
	}
	e := &Engine{
		gateway:   gateway,
		assembler: assembler,
		settings:  settings,
		logger:    logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every persona in parallel and combines the verdicts. Persona
// failures are recorded per persona; only request validation errors and
// cancellation are returned.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	started := time.Now()
	log := logger.WithFields(e.logger, logger.SubjectFields(req.Candidate.ID, req.Job.ID)...)
	subject := prompt.Subject{Candidate: req.Candidate, Job: req.Job, CompanyNote: req.CompanyNote}
	thresholds := e.assembler.Thresholds()

	outcomes := make(Evaluations, len(req.Personas))
	var g errgroup.Group
	g.SetLimit(e.settings.Parallelism)
	for i, pr := range req.Personas {
		g.Go(func() error {
			outcomes[i] = e.evaluatePersona(ctx, pr, subject, req.Strictness, thresholds, log)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Evaluations:    outcomes,
		PersonaCount:   len(req.Personas),
		PersonaPrompts: personaPrompts(req.Personas),
	}
	e.combine(ctx, result, thresholds, log)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.record(req, result)
	e.metrics.ObserveRun(engineName, time.Since(started))
	log.Info("evaluation finished",
		zap.Int("personas", result.PersonaCount),
		zap.Int("succeeded", len(result.Succeeded())),
		zap.String("combined_score", scoring.Format(result.CombinedScore)),
		zap.String("combined_recommendation", string(result.CombinedRecommendation)),
	)

	return result, nil
}

// await stops waiting when ctx ends, even if the backend ignores it.
func await(ctx context.Context, pending <-chan ai.Result) ai.Result {
	select {
	case res := <-pending:
		return res
	case <-ctx.Done():
		return ai.Result{Error: ctx.Err().Error()}
	}
}

func validate(req Request) error {
	if len(req.Personas) == 0 {
		return recruitment.ErrNoPersonas
	}
	seen := make(map[string]struct{}, len(req.Personas))
	for _, pr := range req.Personas {
		name := strings.TrimSpace(pr.Persona.Name)
		if name == "" {
			return fmt.Errorf("persona without a name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("persona %q selected twice", name)
		}
		seen[name] = struct{}{}
	}
	if req.Job == nil {
		return recruitment.ErrMissingJob
	}
	if req.Candidate == nil {
		return fmt.Errorf("%w: no candidate", recruitment.ErrInvalidResume)
	}
	return recruitment.ValidateResume(req.Candidate.ResumeText)
}

func (e *Engine) evaluatePersona(ctx context.Context, pr PersonaRequest, subject prompt.Subject, strictness prompt.Strictness, thresholds scoring.Thresholds, log *zap.Logger) Outcome {
	persona := pr.Persona
	log = logger.WithPersona(log, persona.Name)
	outcome := Outcome{Persona: persona.Name, Display: persona.Label()}

	system, user := e.assembler.Evaluation(prompt.EvaluationInput{
		Persona:      persona,
		SystemPrompt: pr.Prompt,
		Subject:      subject,
		Strictness:   strictness,
	})

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	res := await(callCtx, ai.CallAsync(callCtx, e.gateway, ai.Request{
		Messages:    []ai.Message{ai.System(system), ai.User(user)},
		MaxTokens:   e.settings.MaxTokens,
		Temperature: e.settings.Temperature,
		Model:       e.settings.Model,
	}))
	if !res.Success {
		log.Warn("persona evaluation failed", zap.String("error", res.Error))
		e.metrics.ObservePersona(engineName, metrics.OutcomeFailure)
		outcome.Error = res.Error
		return outcome
	}

	verdict, shapeOK := normalizer{thresholds: thresholds, logger: log}.parse(res.Content)
	verdict.PersonaName = persona.Name
	verdict.PersonaDisplayName = outcome.Display
	outcome.Verdict = &verdict

	if shapeOK {
		e.metrics.ObservePersona(engineName, metrics.OutcomeSuccess)
	} else {
		e.metrics.ObservePersona(engineName, metrics.OutcomeShape)
	}
	log.Debug("persona verdict",
		zap.Float64("score", verdict.Score),
		zap.String("recommendation", string(verdict.Recommendation)),
	)
	return outcome
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.settings.CallTimeout > 0 {
		return context.WithTimeout(ctx, e.settings.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// combine fills the combined_* fields from the successful verdicts.
func (e *Engine) combine(ctx context.Context, r *Result, thresholds scoring.Thresholds, log *zap.Logger) {
	verdicts := r.Succeeded()

	switch len(verdicts) {
	case 0:
		r.CombinedScore = scoring.Default
		r.CombinedRecommendation = thresholds.Recommend(scoring.Default)
		r.CombinedAnalysis = NoEvaluations
		return
	case 1:
		r.CombinedScore = verdicts[0].Score
		r.CombinedRecommendation = verdicts[0].Recommendation
		r.CombinedAnalysis = verdicts[0].Analysis
		return
	}

	scores := make([]float64, 0, len(verdicts))
	overview := make([]prompt.Overview, 0, len(verdicts))
	for _, v := range verdicts {
		scores = append(scores, v.Score)
		overview = append(overview, prompt.Overview{
			Persona:        v.PersonaDisplayName,
			Score:          v.Score,
			Recommendation: v.Recommendation,
			Strengths:      v.Strengths,
		})
	}

	mean := scoring.Mean(scores)
	rec := thresholds.Recommend(mean)
	r.CombinedScore = mean
	r.CombinedRecommendation = rec

	system, user := e.assembler.Combined(overview, mean, rec)
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	res := e.gateway.Call(callCtx, ai.Request{
		Messages:    []ai.Message{ai.System(system), ai.User(user)},
		MaxTokens:   e.settings.MaxTokens,
		Temperature: e.settings.Temperature,
		Model:       e.settings.Model,
	})
	if !res.Success {
		log.Warn("combined analysis failed, using fallback", zap.String("error", res.Error))
		r.CombinedAnalysis = prompt.CombinedFallback(len(verdicts), mean, rec)
		return
	}
	r.CombinedAnalysis = enforceRecommendation(res.Content, rec)
}

// enforceRecommendation rewrites any other recommendation in the prose to rec
// and appends rec when the prose does not state it.
func enforceRecommendation(text string, rec scoring.Recommendation) string {
	text = strings.TrimSpace(text)
	for _, other := range scoring.Recommendations {
		if other != rec {
			text = strings.ReplaceAll(text, string(other), string(rec))
		}
	}
	if !strings.Contains(text, string(rec)) {
		if text != "" && !strings.HasSuffix(text, ".") {
			text += "."
		}
		text = strings.TrimSpace(text + " Aanbeveling: " + string(rec) + ".")
	}
	return text
}

func (e *Engine) record(req Request, r *Result) {
	if e.history == nil {
		return
	}
	scores := make(map[string]float64)
	for _, v := range r.Succeeded() {
		scores[v.PersonaName] = v.Score
	}
	e.history.Record(judge.Entry{
		CandidateID:    req.Candidate.ID,
		JobID:          req.Job.ID,
		Score:          r.CombinedScore,
		Recommendation: r.CombinedRecommendation,
		PersonaScores:  scores,
	})
}

func personaPrompts(prs []PersonaRequest) PersonaPrompts {
	out := make(PersonaPrompts, 0, len(prs))
	for _, pr := range prs {
		p := pr.Prompt
		if strings.TrimSpace(p) == "" {
			p = pr.Persona.SystemPrompt
		}
		out = append(out, recruitment.PersonaPrompt{Name: pr.Persona.Name, Prompt: p})
	}
	return out
}
