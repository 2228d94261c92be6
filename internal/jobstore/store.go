package jobstore

import (
	"context"
	"errors"
	"time"
)

// ErrTerminalState is returned when an update would transition a job out of
// done or error.
var ErrTerminalState = errors.New("job is in a terminal state")

// Store is the lifecycle state backend. All implementations expose identical
// semantics; they differ only in persistence and expiry.
type Store interface {
	// Create initializes a queued job at 0% for the given input file.
	Create(ctx context.Context, id, inputPath string) (*Job, error)

	// Get returns the job, or (nil, nil) when the id is unknown.
	Get(ctx context.Context, id string) (*Job, error)

	// Update merges the partial update into the job. It returns false when
	// the id is unknown and never creates a record. Transitioning a terminal
	// job fails with ErrTerminalState.
	Update(ctx context.Context, id string, u Update) (bool, error)

	// Delete removes the job record, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Sweepable is implemented by backends whose entries do not expire on their
// own. The retention sweep lists terminal jobs completed before the cutoff
// and deletes them along with their files. Backends with native key expiry
// (redis) do not implement it.
type Sweepable interface {
	Expired(ctx context.Context, cutoff time.Time) ([]Job, error)
}

func newJob(id, inputPath string) *Job {
	return &Job{
		ID:        id,
		Status:    StatusQueued,
		Progress:  0,
		Message:   "Job queued",
		InputPath: inputPath,
		CreatedAt: time.Now().UTC(),
	}
}
