// Package ports declares the provider contracts the engine and handlers
// depend on, keeping adapter packages swappable.
package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// On localfs this is the same object_key. On gdrive it is the real
	// fileId, needed to read or delete the object later.
	ObjectKey string
	Size      int64
}

// ArchiveProvider stores rendered outputs beyond the local results directory,
// so the retention sweep can reclaim disk without losing artifacts.
type ArchiveProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
