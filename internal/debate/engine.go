// Package debate stages a moderated panel conversation about one candidate.
package debate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/recruit-panel/internal/ai"
	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/metrics"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/timing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const engineName = "debate"

// ModeratorRole is the transcript role of the moderator.
const ModeratorRole = "Moderator"

// Stable replacements for failed turns.
const (
	PersonaApology   = "Excuses, ik kan op dit moment geen bijdrage leveren aan het gesprek."
	ModeratorApology = "Excuses, de moderator kan op dit moment niet reageren. We gaan verder met het gesprek."
)

// Rounds is the number of persona rounds in a debate.
const Rounds = 3

type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Transcript []Entry

// JSON serializes the transcript as UTF-8 without HTML escaping.
func (t Transcript) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if t == nil {
		t = Transcript{}
	}
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Settings are the model parameters for debate turns.
type Settings struct {
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max-tokens"`
	CallTimeout time.Duration `mapstructure:"call-timeout"`
}

func DefaultSettings() Settings {
	return Settings{
		Temperature: 0.8,
		MaxTokens:   220,
		CallTimeout: 60 * time.Second,
	}
}

// Participant pairs a persona with the system prompt to use for it.
type Participant struct {
	Persona recruitment.Persona
	// Prompt overrides the stored system prompt when set.
	Prompt string
}

type Request struct {
	Participants []Participant
	Candidate    *recruitment.Candidate
	Job          *recruitment.Job
	CompanyNote  string
}

type Result struct {
	Transcript   Transcript    `json:"transcript"`
	Timing       timing.Record `json:"timing"`
	FinalVerdict string        `json:"final_verdict"`
	Personas     []string      `json:"personas"`
}

type Engine struct {
	gateway   ai.Completer
	assembler *prompt.Assembler
	settings  Settings
	logger    *zap.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
}

type Option func(*Engine)

func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithClock overrides the clock used for the timing record.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(gateway ai.Completer, assembler *prompt.Assembler, settings Settings, log *zap.Logger, opts ...Option) *Engine {
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = DefaultSettings().MaxTokens
	}
	e := &Engine{
		gateway:   gateway,
		assembler: assembler,
		settings:  settings,
		logger:    logger.OrNop(log),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the mutable state of one debate.
type run struct {
	req        Request
	subject    prompt.Subject
	transcript Transcript
	state      *ConversationState
	timing     *timing.Recorder
	labels     []string
	log        *zap.Logger
	verdict    string
}

// Run plays the full script: moderator opening, then each round followed by a
// moderator turn, the last of which is the closing summary. Failed turns are
// replaced by apologies, so only validation errors and cancellation are returned.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	started := time.Now()
	r := &run{
		req:     req,
		subject: prompt.Subject{Candidate: req.Candidate, Job: req.Job, CompanyNote: req.CompanyNote},
		state:   NewConversationState(),
		timing:  timing.NewRecorder(e.now),
		log:     logger.WithFields(e.logger, logger.SubjectFields(req.Candidate.ID, req.Job.ID)...),
	}
	for _, p := range req.Participants {
		r.labels = append(r.labels, p.Persona.Label())
	}

	if err := e.moderatorTurn(ctx, r, moderatorStages[0]); err != nil {
		return nil, err
	}
	for round := 1; round <= Rounds; round++ {
		if err := e.personaRound(ctx, r, round); err != nil {
			return nil, err
		}
		if err := e.moderatorTurn(ctx, r, moderatorStages[round]); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Transcript:   r.transcript,
		Timing:       r.timing.Finish(),
		FinalVerdict: r.verdict,
		Personas:     r.labels,
	}
	e.metrics.ObserveRun(engineName, time.Since(started))
	r.log.Info("debate finished",
		zap.Int("personas", len(req.Participants)),
		zap.Int("entries", len(result.Transcript)),
		zap.String("verdict", result.FinalVerdict),
	)
	return result, nil
}

func validate(req Request) error {
	if len(req.Participants) == 0 {
		return recruitment.ErrNoPersonas
	}
	seen := make(map[string]struct{}, len(req.Participants))
	for _, p := range req.Participants {
		name := strings.TrimSpace(p.Persona.Name)
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

// personaRound runs every persona against the same snapshot and appends the
// utterances in participant order.
func (e *Engine) personaRound(ctx context.Context, r *run, round int) error {
	mark := r.timing.Mark()
	snapshot := append(Transcript(nil), r.transcript...)
	state := r.state.Clone()
	hasNote := strings.TrimSpace(r.req.CompanyNote) != ""

	utterances := make([]string, len(r.req.Participants))
	var g errgroup.Group
	for i, p := range r.req.Participants {
		g.Go(func() error {
			utterances[i] = e.personaTurn(ctx, r, p, snapshot, state, hasNote, round)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, text := range utterances {
		r.transcript = append(r.transcript, Entry{Role: r.labels[i], Content: text})
	}
	for _, text := range utterances {
		r.state.Observe(text)
	}
	r.timing.Parallel(fmt.Sprintf("round_%d", round), r.labels, mark)
	return nil
}

func (e *Engine) personaTurn(ctx context.Context, r *run, p Participant, snapshot Transcript, state *ConversationState, hasNote bool, round int) string {
	label := p.Persona.Label()
	log := logger.WithPersona(r.log, p.Persona.Name).With(zap.Int("round", round))

	system := e.assembler.DebatePersona(p.Persona, p.Prompt, r.subject)
	user := personaTurn(snapshot, p, state, hasNote)

	res := e.call(ctx, system, user)
	if !res.Success {
		log.Warn("debate turn failed", zap.String("error", res.Error))
		e.metrics.ObservePersona(engineName, metrics.OutcomeFailure)
		return PersonaApology
	}

	text, removed := sanitizePersona(res.Content, []string{label, p.Persona.Name}, state)
	if removed {
		log.Debug("repeated company note topics removed", zap.Any("topics", state.Topics()))
	}
	e.metrics.ObservePersona(engineName, metrics.OutcomeSuccess)
	return text
}

func (e *Engine) moderatorTurn(ctx context.Context, r *run, st stage) error {
	mark := r.timing.Mark()

	system := e.assembler.Moderator(r.subject, st.final)
	user := moderatorTurn(r.transcript, st)

	res := e.call(ctx, system, user)
	if err := ctx.Err(); err != nil {
		return err
	}

	text := ModeratorApology
	if res.Success {
		text = sanitizeModerator(res.Content)
		if text == "" {
			text = ModeratorApology
		}
	} else {
		r.log.Warn("moderator turn failed", zap.String("step", st.name), zap.String("error", res.Error))
	}

	if st.final {
		text, r.verdict = ensureVerdict(text)
	}

	r.transcript = append(r.transcript, Entry{Role: ModeratorRole, Content: text})
	r.state.Observe(text)
	r.timing.Serial(st.name, ModeratorRole, mark)
	return nil
}

func (e *Engine) call(ctx context.Context, system, user string) ai.Result {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	return e.gateway.Call(callCtx, ai.Request{
		Messages:    []ai.Message{ai.System(system), ai.User(user)},
		MaxTokens:   e.settings.MaxTokens,
		Temperature: e.settings.Temperature,
		Model:       e.settings.Model,
	})
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.settings.CallTimeout > 0 {
		return context.WithTimeout(ctx, e.settings.CallTimeout)
	}
	return context.WithCancel(ctx)
}
