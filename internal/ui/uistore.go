package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StageOutput is what one stage wrote during a run.
type StageOutput struct {
	Name   string `json:"name"`
	Field  string `json:"field"`
	Output string `json:"output"`
}

// Run is a finished pipeline run as shown by the UI and the API.
type Run struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Result    string        `json:"result"`
	Stages    []StageOutput `json:"stages"`
	Logs      []string      `json:"logs"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// RunStore keeps the most recent runs in memory. Older runs are evicted once
// the limit is reached; nothing survives a restart.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]Run
	order []string // oldest first
	max   int
}

func NewRunStore(max int) *RunStore {
	if max <= 0 {
		max = 50
	}
	return &RunStore{
		runs: make(map[string]Run),
		max:  max,
	}
}

// Add stores r, assigning an ID when it has none, and returns the stored copy.
func (s *RunStore) Add(r Run) Run {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r = cloneRun(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.runs[r.ID] = r
	for len(s.order) > s.max {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return r
}

// Get returns a copy of the run with id.
func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return cloneRun(r), true
}

// Recent returns up to n runs, newest first. n <= 0 means all.
func (s *RunStore) Recent(n int) []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.order) {
		n = len(s.order)
	}
	out := make([]Run, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneRun(s.runs[s.order[i]]))
	}
	return out
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// cloneRun copies the slices so callers never share them with the store.
// Empty slices stay non-nil, which keeps them as [] in JSON.
func cloneRun(r Run) Run {
	r.Stages = append(make([]StageOutput, 0, len(r.Stages)), r.Stages...)
	r.Logs = append(make([]string, 0, len(r.Logs)), r.Logs...)
	return r
}
