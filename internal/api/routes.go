package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"storycast/internal/app"
	"storycast/internal/imagegen"
	"storycast/internal/publish"
	"storycast/internal/script"
	"storycast/internal/speech"
	"storycast/internal/structured"
	"storycast/internal/video"
	"storycast/internal/workspace"
)

const defaultHistoryLimit = 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	lock := &phaseLock{}

	r.Get("/health", healthHandler())
	r.Get("/outputs/{filename}", outputHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", generateHandler(cfg, lock))
		r.Post("/render-video", renderHandler(cfg, lock))
		r.Post("/upload-youtube", uploadHandler(cfg, lock))
		r.Get("/history", historyHandler(cfg))
		r.Get("/artifacts", artifactsHandler(cfg))
	})

	return r
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

func generateHandler(cfg ServerConfig, lock *phaseLock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}
		if req.Mode != "" {
			if _, err := script.ParseMode(req.Mode); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
		}

		var (
			result *app.GenerateResult
			err    error
		)
		lock.run(func() {
			result, err = cfg.Pipeline.Generate(r.Context(), cfg.Workspace, app.GenerateRequest{
				Topic: req.Topic,
				Mode:  req.Mode,
				Voice: req.Voice,
			})
		})
		if err != nil {
			writePipelineError(w, cfg.Logger, err)
			return
		}

		WriteJSON(w, http.StatusOK, GenerateResponse{
			Status:      "success",
			Mode:        string(result.Mode),
			Title:       result.Title,
			VoiceGender: result.VoiceGender,
			StoryWords:  result.StoryWords,
			TotalTurns:  result.TotalTurns,
			TotalWords:  result.TotalWords,
		})
	}
}

func renderHandler(cfg ServerConfig, lock *phaseLock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			result *app.RenderResult
			err    error
		)
		lock.run(func() {
			result, err = cfg.Pipeline.Render(r.Context(), cfg.Workspace)
		})
		if err != nil {
			writePipelineError(w, cfg.Logger, err)
			return
		}

		WriteJSON(w, http.StatusOK, RenderResponse{
			VideoURL:        result.VideoURL,
			Duration:        result.Duration,
			ArchiveLocation: result.ArchiveLocation,
		})
	}
}

func uploadHandler(cfg ServerConfig, lock *phaseLock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UploadRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}

		var (
			result *publish.Result
			err    error
		)
		lock.run(func() {
			result, err = cfg.Pipeline.Publish(r.Context(), cfg.Workspace, publish.Request{
				Topic:         req.Topic,
				Title:         req.Title,
				Description:   req.Description,
				Tags:          req.Tags,
				PrivacyStatus: req.PrivacyStatus,
			})
		})
		if err != nil {
			writePipelineError(w, cfg.Logger, err)
			return
		}

		WriteJSON(w, http.StatusOK, UploadResponse{
			Status:        "success",
			YouTubeURL:    result.URL,
			VideoID:       result.VideoID,
			Title:         result.Title,
			PrivacyStatus: result.PrivacyStatus,
			ThumbnailSet:  result.ThumbnailSet,
		})
	}
}

func outputHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		path, err := cfg.Workspace.Resolve(name)
		if err != nil || !workspace.Exists(path) {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
		http.ServeFile(w, r, path)
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		videos, err := cfg.Pipeline.History(r.Context(), limit)
		if err != nil {
			writePipelineError(w, cfg.Logger, err)
			return
		}

		resp := HistoryResponse{Videos: make([]PublishedVideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = PublishedVideoResponse{
				ID:            v.ID,
				VideoID:       v.VideoID,
				URL:           v.URL,
				Title:         v.Title,
				PrivacyStatus: v.PrivacyStatus,
				Topic:         v.Topic,
				PublishedAt:   v.PublishedAt.Format(time.RFC3339),
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func artifactsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artifacts, err := cfg.Pipeline.Artifacts(r.Context())
		if err != nil {
			writePipelineError(w, cfg.Logger, err)
			return
		}

		resp := ArtifactsResponse{Artifacts: make([]ArtifactResponse, len(artifacts))}
		for i, a := range artifacts {
			resp.Artifacts[i] = ArtifactResponse{
				Name:     a.Name,
				Location: a.Location,
				Size:     a.Size,
			}
			if !a.Updated.IsZero() {
				resp.Artifacts[i].UpdatedAt = a.Updated.Format(time.RFC3339)
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// decodeOptionalBody accepts an empty body as the zero request.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
	return false
}

func writePipelineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("pipeline request failed", "error", err)
	}
	WriteError(w, status, err.Error(), code)
}

func classify(err error) (int, string) {
	switch {
	// exhausted attempts wrap their last failure, which may be a validation error
	case errors.Is(err, script.ErrExhausted):
		return http.StatusBadGateway, "GENERATION_FAILED"
	case errors.Is(err, structured.ErrValidation),
		errors.Is(err, script.ErrUnknownMode),
		errors.Is(err, speech.ErrUnknownGender),
		errors.Is(err, imagegen.ErrEmptyPrompt),
		errors.Is(err, video.ErrMissingInput),
		errors.Is(err, publish.ErrMissingVideo),
		errors.Is(err, publish.ErrInvalidPrivacy),
		errors.Is(err, workspace.ErrNoMetadata):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, publish.ErrNotAuthenticated):
		return http.StatusUnauthorized, "NOT_AUTHENTICATED"
	case errors.Is(err, app.ErrNoPublisher),
		errors.Is(err, app.ErrNoHistory),
		errors.Is(err, app.ErrNoArchive):
		return http.StatusServiceUnavailable, "NOT_CONFIGURED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
