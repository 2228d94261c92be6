package jobstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps job state in a mutex-guarded map. State is lost on
// restart; the retention sweep handles expiry.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(_ context.Context, id, inputPath string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return nil, fmt.Errorf("job %s already exists", id)
	}

	job := newJob(id, inputPath)
	s.jobs[id] = job

	out := *job
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	out := *job
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, u Update) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false, nil
	}
	if u.violatesTerminal(job) {
		return false, ErrTerminalState
	}

	u.apply(job)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false, nil
	}
	delete(s.jobs, id)
	return true, nil
}

// Expired returns terminal jobs whose completion predates the cutoff.
func (s *MemoryStore) Expired(_ context.Context, cutoff time.Time) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Job
	for _, job := range s.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ Sweepable = (*MemoryStore)(nil)
)
