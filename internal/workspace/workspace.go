// Package workspace names the files one pipeline run reads and writes.
//
// File names inside a workspace are fixed, so two runs sharing a directory
// overwrite each other. Give concurrent runs separate directories.
package workspace

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storycast/internal/speech"
)

const (
	ImageFile     = "bg.png"
	AudioFile     = "story.wav"
	VideoFile     = "final_video.mp4"
	MetadataFile  = "metadata.txt"
	ThumbnailFile = "thumbnail.jpg"

	audioExt = ".wav"
)

var ErrNoMetadata = errors.New("no metadata record")

type Workspace struct {
	Dir string
}

func New(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

func (w *Workspace) ImagePath() string     { return filepath.Join(w.Dir, ImageFile) }
func (w *Workspace) AudioPath() string     { return filepath.Join(w.Dir, AudioFile) }
func (w *Workspace) VideoPath() string     { return filepath.Join(w.Dir, VideoFile) }
func (w *Workspace) MetadataPath() string  { return filepath.Join(w.Dir, MetadataFile) }
func (w *Workspace) ThumbnailPath() string { return filepath.Join(w.Dir, ThumbnailFile) }

func (w *Workspace) SegmentPath(i int, speaker string) string {
	return filepath.Join(w.Dir, speech.SegmentName(i, speaker, audioExt))
}

func (w *Workspace) SegmentPattern() string {
	return speech.SegmentPattern(audioExt)
}

// ClearSegments removes dialogue segments left by a previous run so they are
// not merged into the next one.
func (w *Workspace) ClearSegments() error {
	matches, err := filepath.Glob(filepath.Join(w.Dir, w.SegmentPattern()))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove segment: %w", err)
		}
	}
	return nil
}

// Resolve returns the path of name inside the workspace, rejecting names that
// would escape it.
func (w *Workspace) Resolve(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "\x00") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(w.Dir, clean), nil
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Metadata is the record persisted between the generate and publish phases.
type Metadata struct {
	Title           string
	Description     string
	ThumbnailPrompt string
}

var lineEscaper = strings.NewReplacer(`\`, `\\`, "\r", "", "\n", `\n`)

// WriteMetadata stores m as a title line and a description line, with an
// optional third line holding the thumbnail prompt. Newlines are escaped.
func (w *Workspace) WriteMetadata(m Metadata) error {
	var b strings.Builder
	b.WriteString(lineEscaper.Replace(m.Title))
	b.WriteByte('\n')
	b.WriteString(lineEscaper.Replace(m.Description))
	b.WriteByte('\n')
	if m.ThumbnailPrompt != "" {
		b.WriteString(lineEscaper.Replace(m.ThumbnailPrompt))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(w.MetadataPath(), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (w *Workspace) ReadMetadata() (*Metadata, error) {
	f, err := os.Open(w.MetadataPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoMetadata
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < 3 {
		lines = append(lines, unescapeLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, ErrNoMetadata
	}
	m := &Metadata{Title: lines[0]}
	if len(lines) > 1 {
		m.Description = lines[1]
	}
	if len(lines) > 2 {
		m.ThumbnailPrompt = lines[2]
	}
	return m, nil
}

func unescapeLine(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
