// Package video muxes a still image and an audio track into an MP4.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"storycast/internal/ffmpeg"
)

const (
	defaultWidth  = 1080
	defaultHeight = 1920
)

var ErrMissingInput = errors.New("missing input")

// Artifact is a finished video. It is never modified after Compose returns.
type Artifact struct {
	Path     string
	Duration float64
}

type Composer struct {
	ffmpeg *ffmpeg.Runner
	width  int
	height int
}

func NewComposer(runner *ffmpeg.Runner, resolution string) *Composer {
	if runner == nil {
		runner = ffmpeg.NewRunner("", "")
	}
	width, height := ParseResolution(resolution)
	return &Composer{
		ffmpeg: runner,
		width:  width,
		height: height,
	}
}

// Compose loops imagePath for the length of audioPath and writes outputPath.
// Encoder failures are returned as *ffmpeg.EncoderError and not retried.
func (c *Composer) Compose(ctx context.Context, imagePath, audioPath, outputPath string) (*Artifact, error) {
	for _, input := range []string{imagePath, audioPath} {
		if _, err := os.Stat(input); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, input)
		}
	}

	slog.Info("Composing video...", "image", imagePath, "audio", audioPath, "output", outputPath)
	if err := c.ffmpeg.Run(ctx, c.args(imagePath, audioPath, outputPath)...); err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}

	artifact := &Artifact{Path: outputPath}
	duration, err := c.ffmpeg.Duration(ctx, outputPath)
	if err != nil {
		slog.Warn("Could not probe video duration", "path", outputPath, "error", err)
		return artifact, nil
	}
	artifact.Duration = duration
	return artifact, nil
}

func (c *Composer) args(imagePath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-vf", fmt.Sprintf("scale=%d:%d,setsar=1", c.width, c.height),
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-pix_fmt", "yuv420p",
		outputPath,
	}
}

// ParseResolution reads "WxH", falling back to 1080x1920.
func ParseResolution(res string) (int, int) {
	parts := strings.Split(res, "x")
	if len(parts) != 2 {
		return defaultWidth, defaultHeight
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}
