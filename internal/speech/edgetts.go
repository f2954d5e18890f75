package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type EdgeTTSOptions struct {
	// Command is the edge-tts invocation, e.g. "edge-tts" or "uv run edge-tts".
	Command string
	Rate    string
	Pitch   string
}

// EdgeTTS shells out to the edge-tts CLI.
type EdgeTTS struct {
	command []string
	rate    string
	pitch   string
}

func NewEdgeTTS(opts EdgeTTSOptions) *EdgeTTS {
	command := strings.Fields(opts.Command)
	if len(command) == 0 {
		command = []string{"edge-tts"}
	}
	return &EdgeTTS{
		command: command,
		rate:    opts.Rate,
		pitch:   opts.Pitch,
	}
}

// Synthesize writes to a temporary file next to outputPath and renames it into
// place, so outputPath either does not exist or is complete.
func (e *EdgeTTS) Synthesize(ctx context.Context, text string, voice Voice, outputPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("edge-tts: empty text")
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".tts-*"+filepath.Ext(outputPath))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	args := append(append([]string{}, e.command[1:]...), e.args(text, voice, tmpPath)...)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(string(out)))
	}

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("edge-tts: no audio written for voice %s", voice)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("move audio: %w", err)
	}
	return nil
}

// args uses the --flag=value form because rate and pitch values start with a
// sign that the CLI would otherwise read as a flag.
func (e *EdgeTTS) args(text string, voice Voice, output string) []string {
	args := []string{
		"--text", text,
		"--voice", string(voice),
	}
	if e.rate != "" {
		args = append(args, "--rate="+e.rate)
	}
	if e.pitch != "" {
		args = append(args, "--pitch="+e.pitch)
	}
	return append(args, "--write-media", output)
}
