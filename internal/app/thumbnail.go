package app

import (
	"context"
	"fmt"

	"storycast/internal/imagegen"
	"storycast/pkg/prompts"
)

const (
	thumbnailWidth  = 1280
	thumbnailHeight = 720
)

// thumbnailRenderer renders YouTube thumbnails through the image backend.
type thumbnailRenderer struct {
	images  ImageFetcher
	prompts *prompts.Prompts
	retries int
}

func (r *thumbnailRenderer) Render(ctx context.Context, subject, path string) error {
	prompt, err := r.prompts.RenderThumbnail(prompts.ImageParams{
		Context: subject,
		Format:  imagegen.Format(thumbnailWidth, thumbnailHeight),
	})
	if err != nil {
		return fmt.Errorf("render thumbnail prompt: %w", err)
	}

	img, err := r.images.Fetch(ctx, prompt, r.retries)
	if err != nil {
		return fmt.Errorf("thumbnail image: %w", err)
	}
	return imagegen.Save(path, img)
}
