// Package storage selects and constructs the configured archive provider.
package storage

import "github.com/thissudhir/buttercut-ai-video-editor-backend/internal/ports"

// Provider is the archive contract used by the engine and handlers. It is an
// alias to ports.ArchiveProvider to keep call-sites simple.
type Provider = ports.ArchiveProvider
