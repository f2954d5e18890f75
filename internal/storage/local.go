package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Store(_ context.Context, localPath, name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = src.Close() }()

	dest := filepath.Join(s.dir, filepath.Base(name))
	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive file: %w", err)
	}

	return dest, nil
}

// List returns archived files, newest name first.
func (s *LocalStore) List(_ context.Context) ([]Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name:     entry.Name(),
			Location: filepath.Join(s.dir, entry.Name()),
			Size:     info.Size(),
			Updated:  info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name > artifacts[j].Name
	})
	return artifacts, nil
}
