package engine

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/adapters/storage/localfs"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/jobstore"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/media"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/overlay"
)

func TestProcessArchivesOutput(t *testing.T) {
	store := jobstore.NewMemoryStore()
	createJob(t, store, "job-1")

	archiveRoot := t.TempDir()
	archive := localfs.New(archiveRoot)

	prober := &fakeProber{result: media.ProbeResult{Duration: 5, Width: 640, Height: 480}}
	runner := &fakeRunner{run: func(ctx context.Context, args []string, onLine func(string)) error {
		return os.WriteFile(args[len(args)-1], []byte("rendered-bytes"), 0o644)
	}}

	eng := New(Deps{
		Store:         store,
		Prober:        prober,
		Runner:        runner,
		Archive:       archive,
		Log:           testLogger(),
		ResultsDir:    t.TempDir(),
		MaxConcurrent: 1,
	})
	eng.Process(context.Background(), "job-1", "input.mp4", []overlay.Overlay{textOverlay("Hi")}, nil)

	job, _ := store.Get(context.Background(), "job-1")
	if job.Status != jobstore.StatusDone {
		t.Fatalf("expected done, got %s (%s)", job.Status, job.Message)
	}
	if job.ArchiveKey != "job-1.mp4" {
		t.Errorf("expected archive key job-1.mp4, got %q", job.ArchiveKey)
	}
	if job.ArchiveProvider != "localfs" {
		t.Errorf("expected provider localfs, got %q", job.ArchiveProvider)
	}

	rc, _, _, err := archive.GetObject(context.Background(), job.ArchiveKey)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rendered-bytes" {
		t.Errorf("archived bytes differ from output: %q", data)
	}
}

func TestProcessArchiveFailureDoesNotFailJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	createJob(t, store, "job-1")

	// Root inside a plain file: every PutObject will fail to mkdir.
	bad := t.TempDir() + "/occupied"
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	archive := localfs.New(bad + "/root")

	prober := &fakeProber{result: media.ProbeResult{Duration: 5, Width: 640, Height: 480}}
	runner := &fakeRunner{run: func(ctx context.Context, args []string, onLine func(string)) error {
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	}}

	eng := New(Deps{
		Store:         store,
		Prober:        prober,
		Runner:        runner,
		Archive:       archive,
		Log:           testLogger(),
		ResultsDir:    t.TempDir(),
		MaxConcurrent: 1,
	})
	eng.Process(context.Background(), "job-1", "input.mp4", nil, nil)

	job, _ := store.Get(context.Background(), "job-1")
	if job.Status != jobstore.StatusDone {
		t.Fatalf("expected done despite archive failure, got %s (%s)", job.Status, job.Message)
	}
	if job.ArchiveKey != "" {
		t.Errorf("expected no archive key on failed upload, got %q", job.ArchiveKey)
	}
}
