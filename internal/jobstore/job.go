// Package jobstore owns the lifecycle state of render jobs. A job is created
// once per upload, mutated by the execution engine, read by status queries,
// and destroyed by explicit deletion or the retention sweep.
package jobstore

import "time"

// Status is the lifecycle state of a job. Transitions are monotonic:
// queued -> processing -> done|error. Terminal states admit no transitions.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Job is the persisted lifecycle record of one render.
type Job struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`

	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`

	// ArchiveKey/ArchiveProvider reference the archived copy of the output,
	// when an archive provider is configured.
	ArchiveKey      string `json:"archive_key,omitempty"`
	ArchiveProvider string `json:"archive_provider,omitempty"`

	// Duration is the probed length of the input video in seconds.
	Duration float64 `json:"duration,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Update is a partial mutation applied to a job. Nil fields are left as-is.
type Update struct {
	Status          *Status
	Progress        *int
	Message         *string
	OutputPath      *string
	ArchiveKey      *string
	ArchiveProvider *string
	Duration        *float64
	CompletedAt     *time.Time
}

// apply merges the update into the job. The terminal guard lives in the
// stores, not here.
func (u Update) apply(j *Job) {
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Progress != nil {
		j.Progress = *u.Progress
	}
	if u.Message != nil {
		j.Message = *u.Message
	}
	if u.OutputPath != nil {
		j.OutputPath = *u.OutputPath
	}
	if u.ArchiveKey != nil {
		j.ArchiveKey = *u.ArchiveKey
	}
	if u.ArchiveProvider != nil {
		j.ArchiveProvider = *u.ArchiveProvider
	}
	if u.Duration != nil {
		j.Duration = *u.Duration
	}
	if u.CompletedAt != nil {
		j.CompletedAt = u.CompletedAt
	}
}

// violatesTerminal reports whether applying the update to j would transition
// a terminal job to any other status.
func (u Update) violatesTerminal(j *Job) bool {
	return j.Status.Terminal() && u.Status != nil && *u.Status != j.Status
}

// Ptr returns a pointer to v, for building partial updates inline.
func Ptr[T any](v T) *T {
	return &v
}
