package cmd

import (
	"context"
	"log/slog"

	"storycast/internal/app"
	"storycast/internal/workspace"
	"storycast/pkg/config"
)

type session struct {
	cfg       *config.Config
	pipeline  *app.Pipeline
	workspace *workspace.Workspace
	build     *app.BuildResult
}

// openSession loads the configuration and wires the pipeline against the
// selected workspace. Callers must Close the session.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	dir := workspaceDir
	if dir == "" {
		dir = cfg.Video.WorkspaceDir
	}
	ws, err := workspace.New(dir)
	if err != nil {
		return nil, err
	}

	build, err := app.BuildService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:       cfg,
		pipeline:  app.NewPipeline(build.Service),
		workspace: ws,
		build:     build,
	}, nil
}

func (s *session) Close() {
	if err := s.build.Close(); err != nil {
		slog.Warn("Failed to release resources", "error", err)
	}
}
