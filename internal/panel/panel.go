// Package panel runs evaluations and debates for catalog records and stores
// the results.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/recruit-panel/internal/debate"
	"github.com/spigell/recruit-panel/internal/evaluation"
	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/recruitment"
	"github.com/spigell/recruit-panel/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request errors. They match the engine errors with errors.Is.
var (
	ErrMissingJob    = recruitment.ErrMissingJob
	ErrInvalidResume = recruitment.ErrInvalidResume
	ErrNoPersonas    = recruitment.ErrNoPersonas
)

// Catalog looks up the records a request refers to.
type Catalog interface {
	Candidate(ctx context.Context, id string) (*recruitment.Candidate, error)
	Job(ctx context.Context, id string) (*recruitment.Job, error)
	Resolve(tenant string, names []string) ([]recruitment.Persona, error)
}

type ResumeLoader interface {
	Load(ctx context.Context, source string) (string, error)
}

type Results interface {
	UpsertEvaluation(ctx context.Context, in store.Upsert) (uuid.UUID, error)
	UpsertDebate(ctx context.Context, in store.Upsert) (uuid.UUID, error)
}

// Timeouts bound a whole evaluation or debate. Zero means no deadline.
type Timeouts struct {
	Evaluation time.Duration `mapstructure:"evaluation"`
	Debate     time.Duration `mapstructure:"debate"`
}

func DefaultTimeouts() Timeouts {
	return Timeouts{Evaluation: 2 * time.Minute, Debate: 5 * time.Minute}
}

type Service struct {
	catalog   Catalog
	evaluator *evaluation.Engine
	debater   *debate.Engine
	results   Results
	resumes   ResumeLoader
	timeouts  Timeouts
	logger    *zap.Logger
}

type Option func(*Service)

// WithResults persists every finished run.
func WithResults(r Results) Option {
	return func(s *Service) { s.results = r }
}

// WithResumeLoader fills in resume text from the candidate's resume file.
func WithResumeLoader(l ResumeLoader) Option {
	return func(s *Service) { s.resumes = l }
}

func WithTimeouts(t Timeouts) Option {
	return func(s *Service) { s.timeouts = t }
}

func New(catalog Catalog, evaluator *evaluation.Engine, debater *debate.Engine, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		evaluator: evaluator,
		debater:   debater,
		timeouts:  DefaultTimeouts(),
		logger:    logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subject names the candidate and job; JobID may be empty to use the
// candidate's own job.
type Subject struct {
	CandidateID string
	JobID       string
	Tenant      string
	// Personas are internal persona names in the order they should run.
	Personas []string
	// Prompts overrides the stored system prompt per persona name.
	Prompts     map[string]string
	CompanyNote string
}

type EvaluateRequest struct {
	Subject
	Strictness prompt.Strictness
}

type DebateRequest struct {
	Subject
}

type resolved struct {
	candidate *recruitment.Candidate
	job       *recruitment.Job
	personas  []recruitment.Persona
}

func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*evaluation.Result, error) {
	r, err := s.resolve(ctx, req.Subject)
	if err != nil {
		return nil, err
	}

	prs := make([]evaluation.PersonaRequest, 0, len(r.personas))
	for _, p := range r.personas {
		prs = append(prs, evaluation.PersonaRequest{Persona: p, Prompt: req.Prompts[p.Name]})
	}

	runCtx, cancel := withTimeout(ctx, s.timeouts.Evaluation)
	defer cancel()

	result, err := s.evaluator.Evaluate(runCtx, evaluation.Request{
		Personas:    prs,
		Candidate:   r.candidate,
		Job:         r.job,
		CompanyNote: req.CompanyNote,
		Strictness:  req.Strictness,
	})
	if err != nil {
		return nil, err
	}

	if s.results != nil {
		_, err := s.results.UpsertEvaluation(ctx, store.Upsert{
			CandidateID: r.candidate.ID,
			JobID:       r.job.ID,
			Personas:    names(r.personas),
			Payload:     result,
			CompanyNote: req.CompanyNote,
		})
		s.persisted(err, "evaluation", r)
	}
	return result, nil
}

func (s *Service) Debate(ctx context.Context, req DebateRequest) (*debate.Result, error) {
	r, err := s.resolve(ctx, req.Subject)
	if err != nil {
		return nil, err
	}

	parts := make([]debate.Participant, 0, len(r.personas))
	for _, p := range r.personas {
		parts = append(parts, debate.Participant{Persona: p, Prompt: req.Prompts[p.Name]})
	}

	runCtx, cancel := withTimeout(ctx, s.timeouts.Debate)
	defer cancel()

	result, err := s.debater.Run(runCtx, debate.Request{
		Participants: parts,
		Candidate:    r.candidate,
		Job:          r.job,
		CompanyNote:  req.CompanyNote,
	})
	if err != nil {
		return nil, err
	}

	if s.results != nil {
		_, err := s.results.UpsertDebate(ctx, store.Upsert{
			CandidateID: r.candidate.ID,
			JobID:       r.job.ID,
			Personas:    names(r.personas),
			Payload:     result,
			CompanyNote: req.CompanyNote,
		})
		s.persisted(err, "debate", r)
	}
	return result, nil
}

func (s *Service) resolve(ctx context.Context, sub Subject) (*resolved, error) {
	if len(sub.Personas) == 0 {
		return nil, ErrNoPersonas
	}

	cand, err := s.catalog.Candidate(ctx, sub.CandidateID)
	if err != nil {
		return nil, err
	}

	jobID := strings.TrimSpace(sub.JobID)
	if jobID == "" {
		var ok bool
		if jobID, ok = cand.PrimaryJob(); !ok {
			return nil, fmt.Errorf("%w: candidate %s has no job", ErrMissingJob, cand.ID)
		}
	}
	job, err := s.catalog.Job(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingJob, err)
	}

	if strings.TrimSpace(cand.ResumeText) == "" && cand.ResumeFile != "" && s.resumes != nil {
		text, err := s.resumes.Load(ctx, cand.ResumeFile)
		if err != nil {
			if errors.Is(err, ErrInvalidResume) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidResume, err)
		}
		cand.ResumeText = text
	}

	personas, err := s.catalog.Resolve(sub.Tenant, sub.Personas)
	if err != nil {
		return nil, err
	}

	return &resolved{candidate: cand, job: job, personas: personas}, nil
}

// persisted logs a failed write; the caller still gets its result.
func (s *Service) persisted(err error, kind string, r *resolved) {
	if err == nil {
		return
	}
	logger.WithFields(s.logger, logger.SubjectFields(r.candidate.ID, r.job.ID)...).
		Warn("persist result failed", zap.String("type", kind), zap.Error(err))
}

func names(personas []recruitment.Persona) []string {
	out := make([]string, len(personas))
	for i, p := range personas {
		out[i] = p.Name
	}
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
