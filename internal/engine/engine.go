// Package engine executes render jobs: it bounds concurrency with an
// admission gate, drives each job through probe, compile and subprocess run,
// and persists every lifecycle transition through the job store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/compiler"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/jobstore"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/media"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/overlay"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/ports"
	apperrors "github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/errors"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/logger"
)

// Prober reads duration and pixel dimensions from an input video.
type Prober interface {
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
}

// Runner spawns an argument vector and streams its diagnostic output line by
// line.
type Runner interface {
	Run(ctx context.Context, args []string, onLine func(string)) error
}

// Deps carries the engine's collaborators. Store, Prober, Runner and Log are
// required; Archive may be nil when archiving is off.
type Deps struct {
	Store      jobstore.Store
	Prober     Prober
	Runner     Runner
	Archive    ports.ArchiveProvider
	Log        *logger.Logger
	FFmpegPath string
	ResultsDir string

	// MaxConcurrent bounds simultaneously running ffmpeg subprocesses.
	// Zero or negative defaults to 3.
	MaxConcurrent int
}

// Engine owns the admission gate and the per-job cancel functions. One
// Engine serves the whole process.
type Engine struct {
	store   jobstore.Store
	prober  Prober
	runner  Runner
	archive ports.ArchiveProvider
	log     *logger.Logger

	ffmpegPath string
	resultsDir string

	gate chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	wg sync.WaitGroup
}

func New(d Deps) *Engine {
	maxConcurrent := d.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	ffmpegPath := d.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	return &Engine{
		store:      d.Store,
		prober:     d.Prober,
		runner:     d.Runner,
		archive:    d.Archive,
		log:        d.Log.WithComponent("engine"),
		ffmpegPath: ffmpegPath,
		resultsDir: d.ResultsDir,
		gate:       make(chan struct{}, maxConcurrent),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Submit starts the job's execution in the background. ctx bounds the whole
// job, including its wait for an admission slot; pass a long-lived context,
// not the upload request's.
func (e *Engine) Submit(ctx context.Context, jobID, inputPath string, overlays []overlay.Overlay, files overlay.FileMap) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Process(ctx, jobID, inputPath, overlays, files)
	}()
}

// Cancel terminates the subprocess of an in-flight job. It reports whether
// the job was actually running; the job is marked Error by its own task.
func (e *Engine) Cancel(jobID string) bool {
	e.mu.Lock()
	cancel, ok := e.cancels[jobID]
	e.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// Drain blocks until all in-flight jobs have finished.
func (e *Engine) Drain() {
	e.wg.Wait()
}

// Process runs one job to a terminal state. Failures are recorded on the job
// and never propagate: one job's error must not disturb others holding or
// awaiting slots.
func (e *Engine) Process(ctx context.Context, jobID, inputPath string, overlays []overlay.Overlay, files overlay.FileMap) {
	log := e.log.WithJobID(jobID)

	select {
	case e.gate <- struct{}{}:
	case <-ctx.Done():
		e.fail(ctx, log, jobID, "Processing canceled before start")
		return
	}
	defer func() { <-e.gate }()

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.cancels[jobID] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, jobID)
		e.mu.Unlock()
	}()

	if !e.update(ctx, jobID, jobstore.Update{
		Status:   jobstore.Ptr(jobstore.StatusProcessing),
		Progress: jobstore.Ptr(0),
		Message:  jobstore.Ptr("Processing started"),
	}) {
		log.Warn("job vanished before processing started")
		return
	}
	log.Info("processing started", "input", inputPath, "overlays", len(overlays))

	probe, err := e.prober.Probe(jobCtx, inputPath)
	if err != nil {
		if jobCtx.Err() != nil {
			e.failCanceled(log, jobID)
			return
		}
		log.WithError(err).Error("probe failed", "code", string(apperrors.CodeProbeFailure))
		e.fail(ctx, log, jobID, "Failed to read video metadata: "+err.Error())
		return
	}
	e.update(ctx, jobID, jobstore.Update{Duration: jobstore.Ptr(probe.Duration)})

	result := compiler.Compile(overlays, probe.Width, probe.Height, files)
	for _, skip := range result.Skipped {
		log.Warn("overlay dropped", "index", skip.Index, "kind", string(skip.Kind), "content", skip.Content)
	}

	message := "Rendering"
	if n := len(result.Skipped); n > 0 {
		message = fmt.Sprintf("Rendering (%d overlay(s) skipped: unresolved media)", n)
	}
	e.update(ctx, jobID, jobstore.Update{Message: jobstore.Ptr(message)})

	outputPath := filepath.Join(e.resultsDir, jobID+".mp4")
	args := compiler.BuildCommand(e.ffmpegPath, inputPath, outputPath, result)

	onLine := func(line string) {
		if percent, ok := media.ProgressFromLine(line, probe.Duration); ok {
			e.update(ctx, jobID, jobstore.Update{Progress: jobstore.Ptr(percent)})
		}
	}

	if err := e.runner.Run(jobCtx, args, onLine); err != nil {
		if errors.Is(err, context.Canceled) || jobCtx.Err() != nil {
			e.failCanceled(log, jobID)
			return
		}
		log.WithError(err).Error("render failed", "code", string(apperrors.CodeToolFailure))
		e.fail(ctx, log, jobID, truncateMessage("Video processing failed: "+err.Error()))
		return
	}

	if _, err := os.Stat(outputPath); err != nil {
		log.Error("output file missing after successful exit", "output", outputPath, "code", string(apperrors.CodeOutputMissing))
		e.fail(ctx, log, jobID, "Processing finished but no output file was produced")
		return
	}

	update := jobstore.Update{
		Status:      jobstore.Ptr(jobstore.StatusDone),
		Progress:    jobstore.Ptr(100),
		Message:     jobstore.Ptr("Processing completed"),
		OutputPath:  jobstore.Ptr(outputPath),
		CompletedAt: jobstore.Ptr(time.Now().UTC()),
	}
	if key, provider, ok := e.archiveOutput(ctx, log, jobID, outputPath); ok {
		update.ArchiveKey = jobstore.Ptr(key)
		update.ArchiveProvider = jobstore.Ptr(provider)
	}
	e.update(ctx, jobID, update)
	log.Info("processing completed", "output", outputPath)
}

// archiveOutput uploads the rendered file to the configured archive. Archive
// failures never fail a Done job.
func (e *Engine) archiveOutput(ctx context.Context, log *logger.Logger, jobID, outputPath string) (key, provider string, ok bool) {
	if e.archive == nil {
		return "", "", false
	}

	f, err := os.Open(outputPath)
	if err != nil {
		log.WithError(err).Warn("archive skipped, cannot open output")
		return "", "", false
	}
	defer f.Close()

	var size int64
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}

	out, err := e.archive.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   jobID + ".mp4",
		ContentType: "video/mp4",
		Reader:      f,
		Size:        size,
	})
	if err != nil {
		log.WithError(err).Warn("archive upload failed")
		return "", "", false
	}

	log.Info("output archived", "provider", e.archive.Provider(), "key", out.ObjectKey)
	return out.ObjectKey, e.archive.Provider(), true
}

// fail marks the job Error with the given diagnostic. Uses a background
// context so a canceled job context cannot block recording the failure.
func (e *Engine) fail(ctx context.Context, log *logger.Logger, jobID, message string) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	_, err := e.store.Update(ctx, jobID, jobstore.Update{
		Status:      jobstore.Ptr(jobstore.StatusError),
		Message:     jobstore.Ptr(message),
		CompletedAt: jobstore.Ptr(time.Now().UTC()),
	})
	if err != nil && !errors.Is(err, jobstore.ErrTerminalState) {
		log.WithError(err).Error("recording job failure failed")
	}
}

func (e *Engine) failCanceled(log *logger.Logger, jobID string) {
	log.Info("processing canceled")
	e.fail(context.Background(), log, jobID, "Processing canceled")
}

// update applies a non-terminal mutation, tolerating a concurrently deleted
// or canceled job.
func (e *Engine) update(ctx context.Context, jobID string, u jobstore.Update) bool {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	ok, err := e.store.Update(ctx, jobID, u)
	if err != nil {
		if errors.Is(err, jobstore.ErrTerminalState) {
			return false
		}
		e.log.WithJobID(jobID).WithError(err).Error("job update failed")
		return false
	}
	return ok
}

// truncateMessage bounds stored diagnostics to roughly the runner's tail.
func truncateMessage(s string) string {
	const maxLen = 600
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
