package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/httpkit"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/overlay"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/validate"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temp files.
const multipartMemory = 64 << 20

// Upload accepts the main video, the overlay metadata JSON and the optional
// overlay media files, creates the job and hands it to the engine.
//
// Overlay files arrive as form parts named overlay_file_N where N is the
// overlay's position in the metadata list. Overlays whose media part is
// missing are dropped later by the compiler, not rejected here.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	video, videoHeader, err := r.FormFile("video")
	if err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "video file is required", map[string]any{"field": "video"})
		return
	}
	defer video.Close()

	if err := validate.VideoFilename(videoHeader.Filename); err != nil {
		httpkit.WriteError(w, err)
		return
	}
	if err := validate.FileSize(videoHeader.Size, h.maxUploadBytes); err != nil {
		httpkit.WriteError(w, err)
		return
	}

	metadataRaw := r.FormValue("metadata")
	if metadataRaw == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "metadata is required", map[string]any{"field": "metadata"})
		return
	}
	var meta overlay.Metadata
	if err := json.Unmarshal([]byte(metadataRaw), &meta); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid metadata json", nil)
		return
	}
	if err := meta.Validate(); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	jobID := uuid.NewString()

	inputPath, err := h.saveUpload(video, videoHeader, jobID, "input")
	if err != nil {
		log.WithError(err).Error("saving uploaded video failed")
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to store upload", nil)
		return
	}

	files, err := h.saveOverlayFiles(r, jobID, meta.Overlays)
	if err != nil {
		_ = os.Remove(inputPath)
		httpkit.WriteError(w, err)
		return
	}

	if _, err := h.store.Create(ctx, jobID, inputPath); err != nil {
		log.WithError(err).Error("creating job record failed")
		_ = os.Remove(inputPath)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "failed to create job", nil)
		return
	}

	h.eng.Submit(h.baseCtx, jobID, inputPath, meta.Overlays, files)

	log.Info("job accepted", "job_id", jobID, "overlays", len(meta.Overlays), "overlay_files", len(files))
	httpkit.WriteJSON(w, 201, map[string]any{
		"job_id":  jobID,
		"message": "Processing started",
	})
}

// saveOverlayFiles persists each overlay_file_N part and maps the matching
// overlay's content to the stored path. A missing part for a non-text
// overlay is not an error.
func (h *Handler) saveOverlayFiles(r *http.Request, jobID string, overlays []overlay.Overlay) (overlay.FileMap, error) {
	files := make(overlay.FileMap)

	for i, ov := range overlays {
		if ov.Kind == overlay.KindText {
			continue
		}

		part, header, err := r.FormFile(fmt.Sprintf("overlay_file_%d", i))
		if err != nil {
			continue
		}

		if err := func() error {
			defer part.Close()

			if err := validate.OverlayFilename(header.Filename); err != nil {
				return err
			}
			if err := validate.FileSize(header.Size, h.maxUploadBytes); err != nil {
				return err
			}

			path, err := h.saveUpload(part, header, jobID, fmt.Sprintf("overlay_%d", i))
			if err != nil {
				return err
			}
			files[ov.Content] = path
			return nil
		}(); err != nil {
			for _, p := range files {
				_ = os.Remove(p)
			}
			return nil, err
		}
	}

	return files, nil
}

func (h *Handler) saveUpload(src multipart.File, header *multipart.FileHeader, jobID, role string) (string, error) {
	name := validate.SanitizeFilename(header.Filename)
	dst := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s_%s", jobID, role, name))

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}
