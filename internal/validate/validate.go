// Package validate checks user-supplied filenames and sizes before any disk
// write happens.
package validate

import (
	"path/filepath"
	"strings"

	apperrors "github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/errors"
)

const maxFilenameLength = 120

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// VideoFilename checks the extension against the video allow-list.
func VideoFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !videoExtensions[ext] {
		return apperrors.Validationf("unsupported video format %q", ext).
			WithField("filename", name)
	}
	return nil
}

// OverlayFilename accepts both image and video overlay media.
func OverlayFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !videoExtensions[ext] && !imageExtensions[ext] {
		return apperrors.Validationf("unsupported overlay media format %q", ext).
			WithField("filename", name)
	}
	return nil
}

// FileSize enforces the configured upload cap in bytes.
func FileSize(size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return apperrors.Validationf("file exceeds the %d MB limit", maxBytes>>20).
			WithField("size_bytes", size)
	}
	return nil
}

// SanitizeFilename reduces a client-supplied filename to a safe basename:
// path separators and NULs are stripped, leading dots removed, and the
// result capped in length while keeping the extension.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	name = strings.TrimLeft(name, ".")

	if name == "" || name == "/" {
		return "upload"
	}

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) > maxFilenameLength/2 {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}
