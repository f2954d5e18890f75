package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storycast/internal/ffmpeg"
)

var (
	ErrNoSegments      = errors.New("no audio segments to merge")
	ErrTooManySegments = errors.New("too many audio segments")
)

const (
	manifestName = "concat_list.txt"

	// MaxSegments is the number of indexes the three-digit padding keeps in
	// lexicographic order.
	MaxSegments = 1000
)

// CheckSegmentCount rejects counts whose names would not sort in order.
func CheckSegmentCount(n int) error {
	if n > MaxSegments {
		return fmt.Errorf("%w: %d exceeds %d", ErrTooManySegments, n, MaxSegments)
	}
	return nil
}

// SegmentName is the file name of dialogue turn i. The zero-padded index keeps
// lexicographic order equal to turn order for i below MaxSegments.
func SegmentName(i int, speaker, ext string) string {
	return fmt.Sprintf("chunk_%03d_%s%s", i, speaker, ext)
}

// SegmentPattern matches every SegmentName with the given extension.
func SegmentPattern(ext string) string {
	return "chunk_*" + ext
}

type Merger struct {
	ffmpeg *ffmpeg.Runner
}

func NewMerger(runner *ffmpeg.Runner) *Merger {
	if runner == nil {
		runner = ffmpeg.NewRunner("", "")
	}
	return &Merger{ffmpeg: runner}
}

// Merge concatenates the files in dir matching pattern, sorted by name, into
// output without re-encoding. The concat manifest is removed on every path.
func (m *Merger) Merge(ctx context.Context, dir, pattern, output string) error {
	segments, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("glob segments: %w", err)
	}
	if len(segments) == 0 {
		return ErrNoSegments
	}
	sort.Strings(segments)

	manifest, err := writeManifest(filepath.Join(dir, manifestName), segments)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(manifest) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		output,
	}
	if err := m.ffmpeg.Run(ctx, args...); err != nil {
		return fmt.Errorf("merge audio: %w", err)
	}
	return nil
}

func writeManifest(path string, segments []string) (string, error) {
	var b strings.Builder
	for _, segment := range segments {
		abs, err := filepath.Abs(segment)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	return path, nil
}
