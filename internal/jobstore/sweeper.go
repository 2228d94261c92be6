package jobstore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/logger"
)

// Sweeper periodically purges terminal jobs past the retention horizon,
// removing their input and output files along with the record. Expired only
// returns terminal jobs and deletion goes through the store's own locking,
// so the sweep never contends with a live execution task's updates.
type Sweeper struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	log       *logger.Logger

	// dirs are walked for stale files when the store expires records
	// natively (no Sweepable): the records vanish on their own, the files
	// on disk do not.
	dirs []string
}

func NewSweeper(store Store, retention, interval time.Duration, log *logger.Logger, dirs ...string) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		store:     store,
		retention: retention,
		interval:  interval,
		log:       log.WithComponent("sweeper"),
		dirs:      dirs,
	}
}

// Run blocks, sweeping on a fixed interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	if _, ok := s.store.(Sweepable); !ok {
		if len(s.dirs) == 0 {
			s.log.Info("store has native expiry and no sweep dirs configured, retention sweep disabled")
			return
		}
		s.log.Info("store has native expiry, sweeping files by age", "dirs", s.dirs)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("retention sweep stopping")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one purge pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	sw, ok := s.store.(Sweepable)
	if !ok {
		s.sweepFilesByAge()
		return
	}

	cutoff := time.Now().UTC().Add(-s.retention)
	expired, err := sw.Expired(ctx, cutoff)
	if err != nil {
		s.log.Error("listing expired jobs failed", "error", err.Error())
		return
	}

	for _, job := range expired {
		removeJobFiles(&job)

		if _, err := s.store.Delete(ctx, job.ID); err != nil {
			s.log.Error("deleting expired job failed", "job_id", job.ID, "error", err.Error())
			continue
		}
		s.log.Info("purged expired job",
			"job_id", job.ID,
			"status", string(job.Status),
			"completed_at", job.CompletedAt,
		)
	}
}

// sweepFilesByAge removes files older than the retention horizon from the
// configured directories. Used with backends whose records expire natively,
// where no per-job file list remains by the time the files are stale.
func (s *Sweeper) sweepFilesByAge() {
	cutoff := time.Now().Add(-s.retention)

	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				s.log.Error("reading sweep dir failed", "dir", dir, "error", err.Error())
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.log.Error("removing stale file failed", "path", path, "error", err.Error())
				continue
			}
			s.log.Info("purged stale file", "path", path, "modified", info.ModTime().UTC())
		}
	}
}

// removeJobFiles deletes the job's on-disk artifacts, ignoring files that are
// already gone.
func removeJobFiles(job *Job) {
	for _, path := range []string{job.InputPath, job.OutputPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			continue
		}
	}
}
