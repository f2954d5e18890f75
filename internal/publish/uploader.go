package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const DefaultCategoryID = "22"

var ErrUploadFailed = errors.New("upload failed")

type UploadResult struct {
	VideoID string
	URL     string
}

type Uploader interface {
	Upload(ctx context.Context, videoPath string, meta Metadata) (*UploadResult, error)
	SetThumbnail(ctx context.Context, videoID, imagePath string) error
}

// UploaderFactory builds an Uploader on top of an authenticated client.
type UploaderFactory func(ctx context.Context, client *http.Client) (Uploader, error)

type YouTubeUploader struct {
	service *youtube.Service
}

func NewYouTubeUploader(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*YouTubeUploader, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubeUploader{service: service}, nil
}

// YouTubeFactory returns an UploaderFactory for the YouTube Data API.
func YouTubeFactory(opts ...option.ClientOption) UploaderFactory {
	return func(ctx context.Context, client *http.Client) (Uploader, error) {
		return NewYouTubeUploader(ctx, client, opts...)
	}
}

// Upload sends the file with the client library's media upload, which
// switches to resumable chunked transfer for large files.
func (u *YouTubeUploader) Upload(ctx context.Context, videoPath string, meta Metadata) (*UploadResult, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	categoryID := meta.CategoryID
	if categoryID == "" {
		categoryID = DefaultCategoryID
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: string(meta.PrivacyStatus),
		},
	}

	uploaded, err := u.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(f).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if uploaded.Id == "" {
		return nil, fmt.Errorf("%w: response has no video id", ErrUploadFailed)
	}

	return &UploadResult{
		VideoID: uploaded.Id,
		URL:     WatchURL(uploaded.Id),
	}, nil
}

func (u *YouTubeUploader) SetThumbnail(ctx context.Context, videoID, imagePath string) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open thumbnail: %w", err)
	}
	defer f.Close()

	if _, err := u.service.Thumbnails.Set(videoID).Media(f).Context(ctx).Do(); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	return nil
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
