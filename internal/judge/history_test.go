package judge

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestHistoryEvictsOldest(t *testing.T) {
	t.Parallel()

	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Record(Entry{CandidateID: fmt.Sprintf("c%d", i)})
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}

	recent := h.Recent(0)
	want := []string{"c5", "c4", "c3"}
	for i, w := range want {
		if recent[i].CandidateID != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, recent[i].CandidateID)
		}
	}

	if got := h.Recent(1); len(got) != 1 || got[0].CandidateID != "c5" {
		t.Fatalf("unexpected newest entry: %+v", got)
	}
}

func TestHistoryDefaultsAndTimestamps(t *testing.T) {
	t.Parallel()

	h := NewHistory(0)
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	for i := 0; i < DefaultCapacity+20; i++ {
		h.Record(Entry{Score: float64(i)})
	}
	if h.Len() != DefaultCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultCapacity, h.Len())
	}
	if got := h.Recent(1)[0]; got.Score != float64(DefaultCapacity+19) || !got.RecordedAt.Equal(fixed) {
		t.Fatalf("unexpected newest entry: %+v", got)
	}

	var nilHistory *History
	nilHistory.Record(Entry{})
	if nilHistory.Len() != 0 || nilHistory.Recent(5) != nil {
		t.Fatalf("expected nil history to be empty")
	}
}

func TestHistoryConcurrentRecord(t *testing.T) {
	t.Parallel()

	h := NewHistory(50)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Record(Entry{})
		}()
	}
	wg.Wait()

	if h.Len() != 50 {
		t.Fatalf("expected full history, got %d", h.Len())
	}
}
