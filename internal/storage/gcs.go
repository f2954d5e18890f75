package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectName(name string) string {
	return path.Join(s.prefix, path.Base(name))
}

func (s *GCSStore) Store(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	objectName := s.objectName(name)
	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType(name)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

func (s *GCSStore) List(ctx context.Context) ([]Artifact, error) {
	query := &storage.Query{Prefix: s.prefix}

	var artifacts []Artifact
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		artifacts = append(artifacts, Artifact{
			Name:     path.Base(attrs.Name),
			Location: fmt.Sprintf("gs://%s/%s", s.bucket, attrs.Name),
			Size:     attrs.Size,
			Updated:  attrs.Updated,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name > artifacts[j].Name
	})
	return artifacts, nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
