// Package storage keeps rendered videos beyond the next run, which would
// otherwise overwrite them in the workspace.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
)

type Artifact struct {
	Name     string
	Location string
	Size     int64
	Updated  time.Time
}

type ArtifactStore interface {
	// Store copies the file at localPath under name and returns its location.
	Store(ctx context.Context, localPath, name string) (string, error)
	List(ctx context.Context) ([]Artifact, error)
}

// ArchiveName prefixes the base name of path with the render time.
func ArchiveName(now time.Time, path string) string {
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), filepath.Base(path))
}
