package handlers

import (
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/httpkit"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/jobstore"
)

// Status reports the job's lifecycle state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.log.FromContext(r.Context()).WithError(err).Error("job lookup failed", "job_id", jobID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "job lookup failed", nil)
		return
	}
	if job == nil {
		httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"job_id":       job.ID,
		"status":       string(job.Status),
		"progress":     job.Progress,
		"message":      job.Message,
		"created_at":   job.CreatedAt,
		"completed_at": job.CompletedAt,
	})
}

// Result streams the rendered output. Only Done jobs have one; when the
// local file was already swept, the archived copy serves as fallback.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")

	job, err := h.store.Get(ctx, jobID)
	if err != nil {
		h.log.FromContext(ctx).WithError(err).Error("job lookup failed", "job_id", jobID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "job lookup failed", nil)
		return
	}
	if job == nil {
		httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
		return
	}
	if job.Status != jobstore.StatusDone {
		httpkit.WriteErr(w, 409, "JOB_NOT_COMPLETE", "job has not completed", map[string]any{
			"job_id": jobID,
			"status": string(job.Status),
		})
		return
	}

	if job.OutputPath != "" {
		if _, err := os.Stat(job.OutputPath); err == nil {
			w.Header().Set("Content-Disposition", `attachment; filename="`+jobID+`.mp4"`)
			w.Header().Set("Content-Type", "video/mp4")
			http.ServeFile(w, r, job.OutputPath)
			return
		}
	}

	if job.ArchiveKey != "" && h.archive != nil {
		rc, contentType, size, err := h.archive.GetObject(ctx, job.ArchiveKey)
		if err == nil {
			defer rc.Close()
			if contentType == "" {
				contentType = "video/mp4"
			}
			w.Header().Set("Content-Disposition", `attachment; filename="`+jobID+`.mp4"`)
			w.Header().Set("Content-Type", contentType)
			if size > 0 {
				w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
			}
			_, _ = io.Copy(w, rc)
			return
		}
		h.log.FromContext(ctx).WithError(err).Warn("archive fallback failed", "job_id", jobID, "key", job.ArchiveKey)
	}

	httpkit.WriteErr(w, 404, "RESULT_MISSING", "output file no longer available", map[string]any{"job_id": jobID})
}

// Delete cancels the job if still running, then removes its record, files
// and archived copy.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")
	log := h.log.FromContext(ctx)

	job, err := h.store.Get(ctx, jobID)
	if err != nil {
		log.WithError(err).Error("job lookup failed", "job_id", jobID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "job lookup failed", nil)
		return
	}
	if job == nil {
		httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
		return
	}

	if job.Status == jobstore.StatusProcessing {
		if h.eng.Cancel(jobID) {
			log.Info("canceled in-flight job", "job_id", jobID)
		}
	}

	for _, path := range []string{job.InputPath, job.OutputPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("removing job file failed", "job_id", jobID, "path", path)
		}
	}

	if job.ArchiveKey != "" && h.archive != nil {
		if err := h.archive.DeleteObject(ctx, job.ArchiveKey); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("removing archived output failed", "job_id", jobID, "key", job.ArchiveKey)
		}
	}

	if _, err := h.store.Delete(ctx, jobID); err != nil {
		log.WithError(err).Error("deleting job record failed", "job_id", jobID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to delete job", nil)
		return
	}

	log.Info("job deleted", "job_id", jobID)
	w.WriteHeader(204)
}
