package panel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/recruit-panel/internal/ai"
	"github.com/spigell/recruit-panel/internal/catalog"
	"github.com/spigell/recruit-panel/internal/debate"
	"github.com/spigell/recruit-panel/internal/evaluation"
	"github.com/spigell/recruit-panel/internal/ingestion"
	"github.com/spigell/recruit-panel/internal/notify"
	"github.com/spigell/recruit-panel/internal/prompt"
	"github.com/spigell/recruit-panel/internal/scoring"
	"github.com/spigell/recruit-panel/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const resume = "Ervaren backend ontwikkelaar met zes jaar Go, Kubernetes en Postgres in productie."

// scriptedGateway answers evaluation, combined and debate calls. Debate
// persona calls fail when failDebate returns true for the label and round.
type scriptedGateway struct {
	mu         sync.Mutex
	calls      int
	rounds     map[string]int
	failDebate func(label string, round int) bool
}

func (g *scriptedGateway) Call(ctx context.Context, req ai.Request) ai.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++

	if err := ctx.Err(); err != nil {
		return ai.Result{Error: err.Error()}
	}
	system := req.Messages[0].Content

	switch {
	case strings.Contains(system, "vat de oordelen van een beoordelingspanel samen"):
		return ai.Result{Success: true, Content: "Het panel is positief."}
	case strings.Contains(system, "Je beoordeelt als"):
		return ai.Result{Success: true, Content: `{"score": 8, "strengths": "Go", "weaknesses": "Weinig leiding", "analysis": "Past goed."}`}
	case strings.HasPrefix(system, "Je bent de moderator"):
		if strings.Contains(system, "Eindoordeel") {
			return ai.Result{Success: true, Content: "Het panel is positief. Eindoordeel: Geschikt"}
		}
		return ai.Result{Success: true, Content: "Wat is het grootste risico?"}
	}

	for _, label := range []string{"CTO", "CFO", "HR"} {
		if strings.Contains(system, "Je neemt als "+label+" deel") {
			g.rounds[label]++
			if g.failDebate != nil && g.failDebate(label, g.rounds[label]) {
				return ai.Result{Error: "upstream timeout"}
			}
			return ai.Result{Success: true, Content: fmt.Sprintf("%s ronde %d.", label, g.rounds[label])}
		}
	}
	return ai.Result{Error: "unexpected call"}
}

func (g *scriptedGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testCatalog(t *testing.T, resumeFile string) *catalog.Catalog {
	t.Helper()
	cand := map[string]any{"id": "cand-1", "name": "Sanne", "resume_text": resume, "job_id": "job-1"}
	if resumeFile != "" {
		cand = map[string]any{"id": "cand-1", "name": "Sanne", "resume_file": resumeFile, "job_id": "job-1"}
	}
	c, err := catalog.Decode(map[string]any{
		"candidates": []any{
			cand,
			map[string]any{"id": "cand-2", "name": "Joost", "resume_text": resume},
		},
		"jobs": []any{map[string]any{"id": "job-1", "title": "Senior Go Developer", "company": "Acme"}},
		"personas": []any{
			map[string]any{"name": "cto", "display_name": "CTO"},
			map[string]any{"name": "cfo", "display_name": "CFO"},
			map[string]any{"name": "hr", "display_name": "HR"},
		},
		"watchers": []any{
			map[string]any{"user": "recruiter-1", "job_id": "job-1"},
			map[string]any{"user": "agency-1", "candidate_id": "cand-1"},
		},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

type fixture struct {
	service  *Service
	gateway  *scriptedGateway
	memory   *store.MemoryStore
	notified *notify.Recorder
}

func newFixture(t *testing.T, log *zap.Logger, resumeFile string, opts ...Option) *fixture {
	t.Helper()
	gw := &scriptedGateway{rounds: make(map[string]int)}
	cat := testCatalog(t, resumeFile)
	assembler := prompt.NewAssembler(scoring.DefaultThresholds(), prompt.DefaultLimits())
	mem := store.NewMemoryStore(nil)
	rec := &notify.Recorder{}

	opts = append([]Option{
		WithResults(store.NewAdapter(mem, cat, rec, log)),
		WithResumeLoader(ingestion.NewLoader(log)),
	}, opts...)

	svc := New(cat,
		evaluation.New(gw, assembler, evaluation.DefaultSettings(), log),
		debate.New(gw, assembler, debate.DefaultSettings(), log),
		log, opts...)
	return &fixture{service: svc, gateway: gw, memory: mem, notified: rec}
}

func TestEvaluateUsesCandidateJobAndPersists(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, zap.NewNop(), "")
	req := EvaluateRequest{Subject: Subject{CandidateID: "cand-1", Personas: []string{"cto", "cfo"}}}

	for range 2 {
		result, err := fx.service.Evaluate(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.CombinedScore != 8 || result.PersonaCount != 2 {
			t.Fatalf("unexpected result: %+v", result)
		}
	}

	if fx.memory.Len() != 1 {
		t.Fatalf("expected one stored evaluation, got %d", fx.memory.Len())
	}
	events := fx.notified.Events()
	if len(events) != 2 || events[0].Watcher != "recruiter-1" || events[0].Type != notify.EvaluationComplete {
		t.Fatalf("expected one job watcher notification per run, got %+v", events)
	}
}

func TestDebatePersonaFailureStillNotifies(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, zap.NewNop(), "")
	fx.gateway.failDebate = func(label string, round int) bool { return label == "CFO" && round == 2 }

	result, err := fx.service.Debate(context.Background(), DebateRequest{
		Subject: Subject{CandidateID: "cand-1", JobID: "job-1", Personas: []string{"cto", "cfo", "hr"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Transcript) != 13 {
		t.Fatalf("expected 13 entries, got %d", len(result.Transcript))
	}
	if e := result.Transcript[6]; e.Role != "CFO" || e.Content != debate.PersonaApology {
		t.Fatalf("expected CFO apology in round 2, got %+v", e)
	}
	if e := result.Transcript[2]; e.Content != "CFO ronde 1." {
		t.Fatalf("unexpected CFO round 1 entry %+v", e)
	}

	events := fx.notified.Events()
	if len(events) != 2 {
		t.Fatalf("expected job and candidate watcher notifications, got %+v", events)
	}
	for _, ev := range events {
		if ev.Type != notify.DebateComplete {
			t.Fatalf("unexpected event type %q", ev.Type)
		}
	}
}

func TestMissingJobMakesNoCalls(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, zap.NewNop(), "")
	_, err := fx.service.Evaluate(context.Background(), EvaluateRequest{
		Subject: Subject{CandidateID: "cand-2", Personas: []string{"cto"}},
	})
	if !errors.Is(err, ErrMissingJob) {
		t.Fatalf("expected ErrMissingJob, got %v", err)
	}
	if fx.gateway.callCount() != 0 || fx.memory.Len() != 0 {
		t.Fatalf("expected no calls and no writes, got calls=%d rows=%d", fx.gateway.callCount(), fx.memory.Len())
	}

	_, err = fx.service.Debate(context.Background(), DebateRequest{
		Subject: Subject{CandidateID: "cand-2", JobID: "job-404", Personas: []string{"cto"}},
	})
	if !errors.Is(err, ErrMissingJob) || !errors.Is(err, catalog.ErrJobNotFound) {
		t.Fatalf("expected wrapped ErrMissingJob, got %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, zap.NewNop(), "")

	if _, err := fx.service.Evaluate(context.Background(), EvaluateRequest{Subject: Subject{CandidateID: "cand-1"}}); !errors.Is(err, ErrNoPersonas) {
		t.Fatalf("expected ErrNoPersonas, got %v", err)
	}
	if _, err := fx.service.Evaluate(context.Background(), EvaluateRequest{
		Subject: Subject{CandidateID: "cand-1", Personas: []string{"astroloog"}},
	}); !errors.Is(err, catalog.ErrPersonaNotFound) {
		t.Fatalf("expected ErrPersonaNotFound, got %v", err)
	}
}

func TestResumeLoadedFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(good, []byte(resume), 0o600); err != nil {
		t.Fatal(err)
	}

	fx := newFixture(t, zap.NewNop(), good)
	if _, err := fx.service.Evaluate(context.Background(), EvaluateRequest{
		Subject: Subject{CandidateID: "cand-1", Personas: []string{"cto"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	short := filepath.Join(dir, "kort.txt")
	if err := os.WriteFile(short, []byte("Te kort."), 0o600); err != nil {
		t.Fatal(err)
	}
	fx = newFixture(t, zap.NewNop(), short)
	if _, err := fx.service.Evaluate(context.Background(), EvaluateRequest{
		Subject: Subject{CandidateID: "cand-1", Personas: []string{"cto"}},
	}); !errors.Is(err, ErrInvalidResume) {
		t.Fatalf("expected ErrInvalidResume, got %v", err)
	}

	fx = newFixture(t, zap.NewNop(), filepath.Join(dir, "missing.pdf"))
	if _, err := fx.service.Evaluate(context.Background(), EvaluateRequest{
		Subject: Subject{CandidateID: "cand-1", Personas: []string{"cto"}},
	}); !errors.Is(err, ErrInvalidResume) {
		t.Fatalf("expected unreadable file to be an invalid resume, got %v", err)
	}
}

type failingResults struct{}

func (failingResults) UpsertEvaluation(context.Context, store.Upsert) (uuid.UUID, error) {
	return uuid.Nil, errors.New("connection refused")
}

func (failingResults) UpsertDebate(context.Context, store.Upsert) (uuid.UUID, error) {
	return uuid.Nil, errors.New("connection refused")
}

func TestPersistFailureStillReturnsResult(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	fx := newFixture(t, zap.New(core), "", WithResults(failingResults{}))

	result, err := fx.service.Evaluate(context.Background(), EvaluateRequest{
		Subject: Subject{CandidateID: "cand-1", Personas: []string{"cto"}},
	})
	if err != nil || result == nil {
		t.Fatalf("expected a result despite the failed write, got %v", err)
	}
	if observed.FilterMessage("persist result failed").Len() != 1 {
		t.Fatalf("expected persist warning, got %v", observed.All())
	}
}
