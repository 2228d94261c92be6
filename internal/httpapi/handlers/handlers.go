// Package handlers implements the HTTP endpoints of the editor backend.
package handlers

import (
	"context"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/engine"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/jobstore"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/logger"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/ports"
)

type Deps struct {
	Store   jobstore.Store
	Engine  *engine.Engine
	Archive ports.ArchiveProvider
	Log     *logger.Logger

	// BaseCtx bounds background job execution; it outlives any single
	// request and is canceled on shutdown.
	BaseCtx context.Context

	UploadDir      string
	MaxUploadBytes int64
}

type Handler struct {
	store   jobstore.Store
	eng     *engine.Engine
	archive ports.ArchiveProvider
	log     *logger.Logger

	baseCtx context.Context

	uploadDir      string
	maxUploadBytes int64
}

func New(d Deps) *Handler {
	baseCtx := d.BaseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Handler{
		store:          d.Store,
		eng:            d.Engine,
		archive:        d.Archive,
		log:            d.Log,
		baseCtx:        baseCtx,
		uploadDir:      d.UploadDir,
		maxUploadBytes: d.MaxUploadBytes,
	}
}
