package publish

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"storycast/internal/ledger"
	"storycast/internal/script"
	"storycast/internal/workspace"
)

type fakeAuth struct {
	err error
}

func (a *fakeAuth) Authenticate(ctx context.Context) (*http.Client, error) {
	if a.err != nil {
		return nil, a.err
	}
	return http.DefaultClient, nil
}

type fakeUploader struct {
	uploads    []Metadata
	thumbnails []string
	uploadErr  error
	thumbErr   error
}

func (u *fakeUploader) Upload(ctx context.Context, videoPath string, meta Metadata) (*UploadResult, error) {
	u.uploads = append(u.uploads, meta)
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	return &UploadResult{VideoID: "vid123", URL: WatchURL("vid123")}, nil
}

func (u *fakeUploader) SetThumbnail(ctx context.Context, videoID, imagePath string) error {
	u.thumbnails = append(u.thumbnails, imagePath)
	return u.thumbErr
}

type fakeDeriver struct {
	meta   *script.Metadata
	err    error
	topics []string
}

func (d *fakeDeriver) Derive(ctx context.Context, topic string) (*script.Metadata, error) {
	d.topics = append(d.topics, topic)
	return d.meta, d.err
}

type fakeThumbnails struct {
	prompts []string
	err     error
}

func (f *fakeThumbnails) Render(ctx context.Context, prompt, path string) error {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, []byte("jpeg"), 0644)
}

type fakeRecorder struct {
	records []*ledger.PublishedVideo
}

func (r *fakeRecorder) Record(ctx context.Context, v *ledger.PublishedVideo) error {
	r.records = append(r.records, v)
	return nil
}

type orchestratorFixture struct {
	ws         *workspace.Workspace
	uploader   *fakeUploader
	deriver    *fakeDeriver
	thumbnails *fakeThumbnails
	recorder   *fakeRecorder
	orch       *Orchestrator
}

func newOrchestratorFixture(t *testing.T, withVideo bool) *orchestratorFixture {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if withVideo {
		if err := os.WriteFile(ws.VideoPath(), []byte("mp4"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	f := &orchestratorFixture{
		ws:       ws,
		uploader: &fakeUploader{},
		deriver: &fakeDeriver{meta: &script.Metadata{
			Title:           "Derived Title About The Haunted Mill",
			Description:     "derived description",
			ThumbnailPrompt: "derived thumbnail",
		}},
		thumbnails: &fakeThumbnails{},
		recorder:   &fakeRecorder{},
	}
	f.orch = NewOrchestrator(Options{
		Auth: &fakeAuth{},
		NewUploader: func(ctx context.Context, client *http.Client) (Uploader, error) {
			return f.uploader, nil
		},
		Deriver:    f.deriver,
		Thumbnails: f.thumbnails,
		Ledger:     f.recorder,
		Defaults: Defaults{
			Topic:       "haunted places",
			Tags:        []string{"horror"},
			CategoryID:  "24",
			TitleSuffix: " | Horror Story Shorts",
			Disclaimer:  "This story is AI-generated.",
		},
	})
	return f
}

func TestPublishMetadataSources(t *testing.T) {
	tests := []struct {
		name            string
		stored          *workspace.Metadata
		req             Request
		wantTitle       string
		wantDescription string
		wantDerived     []string
		wantThumbnail   []string
	}{
		{
			name: "explicitFieldsWin",
			stored: &workspace.Metadata{
				Title:           "Stored Title Of Five Words",
				Description:     "stored",
				ThumbnailPrompt: "stored thumbnail",
			},
			req:             Request{Title: "Explicit Title With Enough Words Here", Description: "explicit"},
			wantTitle:       "Explicit Title With Enough Words Here",
			wantDescription: "explicit\n\nThis story is AI-generated.",
			wantThumbnail:   []string{"stored thumbnail"},
		},
		{
			name: "storedRecord",
			stored: &workspace.Metadata{
				Title:           "Stored Title Of Five Words",
				Description:     "stored",
				ThumbnailPrompt: "stored thumbnail",
			},
			wantTitle:       "Stored Title Of Five Words",
			wantDescription: "stored\n\nThis story is AI-generated.",
			wantThumbnail:   []string{"stored thumbnail"},
		},
		{
			name:            "derivedFromTopic",
			req:             Request{Topic: "the old mill"},
			wantTitle:       "Derived Title About The Haunted Mill",
			wantDescription: "derived description\n\nThis story is AI-generated.",
			wantDerived:     []string{"the old mill"},
			wantThumbnail:   []string{"derived thumbnail"},
		},
		{
			name:            "derivedFromDefaultTopic",
			stored:          &workspace.Metadata{Title: "Short Title", Description: ""},
			wantTitle:       "Short Title | Horror Story Shorts",
			wantDescription: "derived description\n\nThis story is AI-generated.",
			wantDerived:     []string{"haunted places"},
			wantThumbnail:   []string{"derived thumbnail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrchestratorFixture(t, true)
			if tt.stored != nil {
				if err := f.ws.WriteMetadata(*tt.stored); err != nil {
					t.Fatal(err)
				}
			}

			result, err := f.orch.Publish(context.Background(), f.ws, tt.req)
			if err != nil {
				t.Fatalf("Publish() error = %v", err)
			}

			if len(f.uploader.uploads) != 1 {
				t.Fatalf("uploads = %d, want 1", len(f.uploader.uploads))
			}
			meta := f.uploader.uploads[0]
			if meta.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", meta.Title, tt.wantTitle)
			}
			if meta.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", meta.Description, tt.wantDescription)
			}
			if meta.PrivacyStatus != Public || meta.CategoryID != "24" {
				t.Errorf("privacy/category = %q/%q", meta.PrivacyStatus, meta.CategoryID)
			}
			if !equalStrings(f.deriver.topics, tt.wantDerived) {
				t.Errorf("derived topics = %v, want %v", f.deriver.topics, tt.wantDerived)
			}
			if !equalStrings(f.thumbnails.prompts, tt.wantThumbnail) {
				t.Errorf("thumbnail prompts = %v, want %v", f.thumbnails.prompts, tt.wantThumbnail)
			}
			if !result.ThumbnailSet {
				t.Error("ThumbnailSet = false")
			}
			if result.URL != "https://www.youtube.com/watch?v=vid123" {
				t.Errorf("URL = %q", result.URL)
			}
			if f.orch.State() != Published {
				t.Errorf("State() = %v, want published", f.orch.State())
			}
		})
	}
}

func TestPublishRequestOverrides(t *testing.T) {
	f := newOrchestratorFixture(t, true)
	_, err := f.orch.Publish(context.Background(), f.ws, Request{
		Title:         "A Title That Has Plenty Of Words",
		Description:   "Already marked ai-generated content.",
		Tags:          []string{"a", "b"},
		PrivacyStatus: "Private",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	meta := f.uploader.uploads[0]
	if meta.PrivacyStatus != Private {
		t.Errorf("PrivacyStatus = %q, want private", meta.PrivacyStatus)
	}
	if !equalStrings(meta.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v", meta.Tags)
	}
	if meta.Description != "Already marked ai-generated content." {
		t.Errorf("Description = %q, disclaimer should not be repeated", meta.Description)
	}
	if len(f.thumbnails.prompts) != 0 {
		t.Errorf("thumbnail rendered without prompt: %v", f.thumbnails.prompts)
	}
}

func TestPublishFailures(t *testing.T) {
	tests := []struct {
		name       string
		withVideo  bool
		setup      func(f *orchestratorFixture)
		req        Request
		wantErr    error
		wantUpload int
	}{
		{
			name:    "missingVideo",
			wantErr: ErrMissingVideo,
		},
		{
			name:      "invalidPrivacy",
			withVideo: true,
			req:       Request{Title: "t", Description: "d", PrivacyStatus: "friends"},
			wantErr:   ErrInvalidPrivacy,
		},
		{
			name:      "authenticationFails",
			withVideo: true,
			req:       Request{Title: "t", Description: "d"},
			setup: func(f *orchestratorFixture) {
				f.orch.opts.Auth = &fakeAuth{err: errors.New("consent timed out")}
			},
			wantErr: ErrNotAuthenticated,
		},
		{
			name:      "uploadFails",
			withVideo: true,
			req:       Request{Title: "t", Description: "d"},
			setup: func(f *orchestratorFixture) {
				f.uploader.uploadErr = ErrUploadFailed
			},
			wantErr:    ErrUploadFailed,
			wantUpload: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrchestratorFixture(t, tt.withVideo)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.orch.Publish(context.Background(), f.ws, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Publish() error = %v, want %v", err, tt.wantErr)
			}
			if len(f.uploader.uploads) != tt.wantUpload {
				t.Errorf("uploads = %d, want %d", len(f.uploader.uploads), tt.wantUpload)
			}
			if len(f.recorder.records) != 0 {
				t.Errorf("failed publish recorded: %v", f.recorder.records)
			}
			if f.orch.State() != Failed {
				t.Errorf("State() = %v, want failed", f.orch.State())
			}
		})
	}
}

func TestPublishThumbnailFailureIsNotFatal(t *testing.T) {
	f := newOrchestratorFixture(t, true)
	f.uploader.thumbErr = errors.New("thumbnail rejected")
	if err := f.ws.WriteMetadata(workspace.Metadata{
		Title:           "Stored Title Of Five Words",
		Description:     "stored",
		ThumbnailPrompt: "a lantern",
	}); err != nil {
		t.Fatal(err)
	}

	result, err := f.orch.Publish(context.Background(), f.ws, Request{Topic: "lanterns"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if result.ThumbnailSet {
		t.Error("ThumbnailSet = true after rejected thumbnail")
	}
	if len(f.recorder.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.recorder.records))
	}
	rec := f.recorder.records[0]
	if rec.VideoID != "vid123" || rec.Topic != "lanterns" || rec.PrivacyStatus != "public" {
		t.Errorf("record = %+v", rec)
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		NotAuthenticated: "not_authenticated",
		Authenticated:    "authenticated",
		Uploading:        "uploading",
		Published:        "published",
		Failed:           "failed",
	}
	for s, name := range want {
		if s.String() != name {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), name)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
