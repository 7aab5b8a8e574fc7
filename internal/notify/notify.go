// Package notify delivers "result ready" events to watchers.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of notification.
type Type string

const (
	EvaluationComplete Type = "evaluation_complete"
	DebateComplete     Type = "debate_complete"
)

// Event is one notification for one watcher.
type Event struct {
	Type        Type      `json:"type"`
	Watcher     string    `json:"watcher"`
	ResultID    uuid.UUID `json:"result_id"`
	CandidateID string    `json:"candidate_id"`
	JobID       string    `json:"job_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Message returns the Dutch notification text for t.
func Message(t Type) string {
	switch t {
	case EvaluationComplete:
		return "De evaluatie van de kandidaat is afgerond."
	case DebateComplete:
		return "Het panelgesprek over de kandidaat is afgerond."
	default:
		return "Er is een nieuw resultaat beschikbaar."
	}
}

// Multi sends every event to all sinks and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps events in memory. Used when no broker is configured and in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	// Err, when set, is returned for every event after recording it.
	Err error
}

func (r *Recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
