// Package store persists evaluation and debate results and tells watchers
// about them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the result type.
type Kind string

const (
	KindEvaluation Kind = "evaluation"
	KindDebate     Kind = "debate"
)

var ErrNotFound = errors.New("result not found")

// Key identifies a stored result. Personas is the persona-set fingerprint.
type Key struct {
	CandidateID string
	JobID       string
	Kind        Kind
	Personas    string
}

type Record struct {
	ID          uuid.UUID
	Key         Key
	Payload     json.RawMessage
	CompanyNote string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store replaces the payload of an existing key instead of adding a row.
type Store interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, key Key) (Record, error)
}

// Fingerprint is the JSON array of the sorted, trimmed persona names.
func Fingerprint(personas []string) string {
	names := make([]string, 0, len(personas))
	for _, p := range personas {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	sort.Strings(names)
	raw, _ := json.Marshal(names)
	return string(raw)
}

// MemoryStore keeps results in a map.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[Key]Record
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, records: make(map[Key]Record)}
}

func (m *MemoryStore) Upsert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.records[rec.Key]; ok {
		existing.Payload = append(json.RawMessage(nil), rec.Payload...)
		existing.CompanyNote = rec.CompanyNote
		existing.UpdatedAt = now
		m.records[rec.Key] = existing
		return existing, nil
	}

	rec.ID = uuid.New()
	rec.Payload = append(json.RawMessage(nil), rec.Payload...)
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.records[rec.Key] = rec
	return rec, nil
}

func (m *MemoryStore) Get(_ context.Context, key Key) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
