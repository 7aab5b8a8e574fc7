package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Watchers resolves who follows a job or a candidate.
type Watchers interface {
	JobWatchers(ctx context.Context, jobID string) ([]string, error)
	CandidateWatchers(ctx context.Context, candidateID string) ([]string, error)
}

// Adapter upserts results and fans out notifications afterwards. A failed
// notification is logged and never undoes the write.
type Adapter struct {
	store    Store
	watchers Watchers
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewAdapter(s Store, watchers Watchers, notifier notify.Notifier, log *zap.Logger) *Adapter {
	return &Adapter{store: s, watchers: watchers, notifier: notifier, logger: logger.OrNop(log)}
}

// Upsert is the shared input of UpsertEvaluation and UpsertDebate.
type Upsert struct {
	CandidateID string
	JobID       string
	Personas    []string
	Payload     any
	CompanyNote string
}

func (a *Adapter) UpsertEvaluation(ctx context.Context, in Upsert) (uuid.UUID, error) {
	return a.upsert(ctx, KindEvaluation, in)
}

// UpsertDebate stores a debate; its payload carries the transcript and timing.
func (a *Adapter) UpsertDebate(ctx context.Context, in Upsert) (uuid.UUID, error) {
	return a.upsert(ctx, KindDebate, in)
}

func (a *Adapter) upsert(ctx context.Context, kind Kind, in Upsert) (uuid.UUID, error) {
	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	rec, err := a.store.Upsert(ctx, Record{
		Key: Key{
			CandidateID: in.CandidateID,
			JobID:       in.JobID,
			Kind:        kind,
			Personas:    Fingerprint(in.Personas),
		},
		Payload:     payload,
		CompanyNote: in.CompanyNote,
	})
	if err != nil {
		return uuid.Nil, err
	}

	a.logger.Debug("result stored",
		zap.String("type", string(kind)),
		zap.String("result_id", rec.ID.String()),
		zap.Bool("replaced", !rec.UpdatedAt.Equal(rec.CreatedAt)),
	)
	a.fanOut(ctx, kind, rec)
	return rec.ID, nil
}

func (a *Adapter) fanOut(ctx context.Context, kind Kind, rec Record) {
	if a.notifier == nil || a.watchers == nil {
		return
	}
	log := logger.WithFields(a.logger, logger.SubjectFields(rec.Key.CandidateID, rec.Key.JobID)...)

	evType := notify.EvaluationComplete
	if kind == KindDebate {
		evType = notify.DebateComplete
	}

	recipients, err := a.watchers.JobWatchers(ctx, rec.Key.JobID)
	if err != nil {
		log.Warn("notify watcher failed", zap.String("reason", "job watchers"), zap.Error(err))
	}
	if kind == KindDebate {
		more, err := a.watchers.CandidateWatchers(ctx, rec.Key.CandidateID)
		if err != nil {
			log.Warn("notify watcher failed", zap.String("reason", "candidate watchers"), zap.Error(err))
		}
		recipients = append(recipients, more...)
	}

	seen := make(map[string]struct{}, len(recipients))
	for _, w := range recipients {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}

		ev := notify.Event{
			Type:        evType,
			Watcher:     w,
			ResultID:    rec.ID,
			CandidateID: rec.Key.CandidateID,
			JobID:       rec.Key.JobID,
			Message:     notify.Message(evType),
			CreatedAt:   rec.UpdatedAt,
		}
		if err := a.notifier.Notify(ctx, ev); err != nil {
			log.Warn("notify watcher failed", zap.String("watcher", w), zap.Error(err))
		}
	}
}

// Get returns the stored result for the key parts.
func (a *Adapter) Get(ctx context.Context, kind Kind, candidateID, jobID string, personas []string) (Record, error) {
	return a.store.Get(ctx, Key{CandidateID: candidateID, JobID: jobID, Kind: kind, Personas: Fingerprint(personas)})
}
