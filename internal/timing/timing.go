// Package timing records how long each step of a run took.
package timing

import (
	"math"
	"sync"
	"time"
)

type Step struct {
	Step      string    `json:"step"`
	Agent     string    `json:"agent,omitempty"`
	Agents    []string  `json:"agents,omitempty"`
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
	Parallel  bool      `json:"parallel,omitempty"`
}

type Record struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Total     float64   `json:"total"`
	Steps     []Step    `json:"steps"`
}

// StepSum adds up the step durations.
func (r Record) StepSum() float64 {
	var sum float64
	for _, s := range r.Steps {
		sum += s.Duration
	}
	return sum
}

// Recorder collects steps. Durations are wall-clock seconds, so a parallel
// step counts once no matter how many agents ran in it.
type Recorder struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time
	steps []Step
}

func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now, start: now()}
}

// Mark returns the current time, to be passed back when the step ends.
func (r *Recorder) Mark() time.Time { return r.now() }

// Serial records a single-agent step that started at since.
func (r *Recorder) Serial(name, agent string, since time.Time) {
	r.add(Step{Step: name, Agent: agent}, since)
}

// Parallel records a step in which agents ran concurrently.
func (r *Recorder) Parallel(name string, agents []string, since time.Time) {
	r.add(Step{Step: name, Agents: append([]string(nil), agents...), Parallel: true}, since)
}

func (r *Recorder) add(s Step, since time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Timestamp = since
	s.Duration = seconds(r.now().Sub(since))
	r.steps = append(r.steps, s)
}

// Finish closes the record.
func (r *Recorder) Finish() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := r.now()
	return Record{
		StartTime: r.start,
		EndTime:   end,
		Total:     seconds(end.Sub(r.start)),
		Steps:     append([]Step(nil), r.steps...),
	}
}

// seconds rounds down to milliseconds so rounded steps never exceed the total.
func seconds(d time.Duration) float64 {
	return math.Floor(d.Seconds()*1000) / 1000
}
