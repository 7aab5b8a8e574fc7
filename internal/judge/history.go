// Package judge keeps a bounded window of recent evaluation summaries.
package judge

import (
	"sync"
	"time"

	"github.com/spigell/recruit-panel/internal/scoring"
)

const DefaultCapacity = 100

// Entry summarises one completed evaluation.
type Entry struct {
	CandidateID    string                 `json:"candidate_id"`
	JobID          string                 `json:"job_id"`
	Score          float64                `json:"score"`
	Recommendation scoring.Recommendation `json:"recommendation"`
	PersonaScores  map[string]float64     `json:"persona_scores"`
	RecordedAt     time.Time              `json:"recorded_at"`
}

// History is a FIFO ring of entries, safe for concurrent use.
type History struct {
	mu       sync.Mutex
	entries  []Entry
	next     int
	full     bool
	now      func() time.Time
	capacity int
}

// NewHistory returns a history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		entries:  make([]Entry, capacity),
		now:      time.Now,
		capacity: capacity,
	}
}

// Record appends e, evicting the oldest entry when full.
func (h *History) Record(e Entry) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.RecordedAt.IsZero() {
		e.RecordedAt = h.now()
	}
	h.entries[h.next] = e
	h.next = (h.next + 1) % h.capacity
	if h.next == 0 {
		h.full = true
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (h *History) Recent(n int) []Entry {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	size := h.lenLocked()
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + h.capacity) % h.capacity
		out = append(out, h.entries[idx])
	}
	return out
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lenLocked()
}

func (h *History) lenLocked() int {
	if h.full {
		return h.capacity
	}
	return h.next
}
