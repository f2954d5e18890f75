// Package ffmpeg runs the ffmpeg and ffprobe binaries.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	DefaultPath      = "ffmpeg"
	DefaultProbePath = "ffprobe"

	maxStderr = 2048
)

// EncoderError reports a non-zero exit from the encoder. ExitCode is -1 when
// the process could not be started.
type EncoderError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EncoderError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
}

func (e *EncoderError) Unwrap() error {
	return e.Err
}

type Runner struct {
	path      string
	probePath string
}

func NewRunner(path, probePath string) *Runner {
	if path == "" {
		path = DefaultPath
	}
	if probePath == "" {
		probePath = DefaultProbePath
	}
	return &Runner{path: path, probePath: probePath}
}

// Run executes ffmpeg with args and waits for it to exit.
func (r *Runner) Run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &EncoderError{ExitCode: code, Stderr: tail(stderr.String()), Err: err}
	}
	return nil
}

// Duration returns the container duration of path in seconds.
func (r *Runner) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	output, err := exec.CommandContext(ctx, r.probePath, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return dur, nil
}

// tail keeps the end of stderr, where ffmpeg prints the actual failure.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderr {
		return s
	}
	return s[len(s)-maxStderr:]
}
