package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"storycast/internal/ffmpeg"
	"storycast/internal/speech"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		name       string
		resolution string
		wantWidth  int
		wantHeight int
	}{
		{name: "validVertical", resolution: "1080x1920", wantWidth: 1080, wantHeight: 1920},
		{name: "validHorizontal", resolution: "1920x1080", wantWidth: 1920, wantHeight: 1080},
		{name: "invalidFormat", resolution: "1080-1920", wantWidth: 1080, wantHeight: 1920},
		{name: "emptyString", resolution: "", wantWidth: 1080, wantHeight: 1920},
		{name: "invalidNumbers", resolution: "abcxdef", wantWidth: 1080, wantHeight: 1920},
		{name: "zeroSize", resolution: "0x0", wantWidth: 1080, wantHeight: 1920},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotWidth, gotHeight := ParseResolution(tt.resolution)
			if gotWidth != tt.wantWidth {
				t.Errorf("ParseResolution() width = %v, want %v", gotWidth, tt.wantWidth)
			}
			if gotHeight != tt.wantHeight {
				t.Errorf("ParseResolution() height = %v, want %v", gotHeight, tt.wantHeight)
			}
		})
	}
}

func TestComposeArgs(t *testing.T) {
	c := NewComposer(nil, "1080x1920")
	got := strings.Join(c.args("bg.png", "story.wav", "final_video.mp4"), " ")
	want := "-y -loop 1 -i bg.png -i story.wav -vf scale=1080:1920,setsar=1 -c:v libx264 -tune stillimage -c:a aac -b:a 192k -shortest -pix_fmt yuv420p final_video.mp4"
	if got != want {
		t.Errorf("args =\n%s\nwant\n%s", got, want)
	}
}

func TestComposeMissingInput(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "bg.png")
	audio := filepath.Join(dir, "story.wav")

	tests := []struct {
		name   string
		create []string
	}{
		{name: "noImage", create: []string{audio}},
		{name: "noAudio", create: []string{imgPath}},
		{name: "neither"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Remove(imgPath)
			_ = os.Remove(audio)
			for _, p := range tt.create {
				touch(t, p)
			}

			_, err := NewComposer(nil, "").Compose(context.Background(), imgPath, audio, filepath.Join(dir, "out.mp4"))
			if !errors.Is(err, ErrMissingInput) {
				t.Errorf("Compose() error = %v, want ErrMissingInput", err)
			}
		})
	}
}

func TestComposeEncoderFailure(t *testing.T) {
	bin := writeScript(t, "ffmpeg", "echo 'Unknown encoder libx264' >&2\nexit 1\n")
	dir := t.TempDir()
	imgPath, audio := filepath.Join(dir, "bg.png"), filepath.Join(dir, "story.wav")
	touch(t, imgPath)
	touch(t, audio)

	_, err := NewComposer(ffmpeg.NewRunner(bin, ""), "").Compose(context.Background(), imgPath, audio, filepath.Join(dir, "out.mp4"))

	var encErr *ffmpeg.EncoderError
	if !errors.As(err, &encErr) {
		t.Fatalf("Compose() error = %v, want EncoderError", err)
	}
	if encErr.ExitCode != 1 || !strings.Contains(encErr.Stderr, "libx264") {
		t.Errorf("EncoderError = %+v", encErr)
	}
}

func TestComposeProbesDuration(t *testing.T) {
	bin := writeScript(t, "ffmpeg", "for last; do :; done\nprintf v > \"$last\"\n")
	probe := writeScript(t, "ffprobe", "echo 42.5\n")
	dir := t.TempDir()
	imgPath, audio := filepath.Join(dir, "bg.png"), filepath.Join(dir, "story.wav")
	touch(t, imgPath)
	touch(t, audio)

	artifact, err := NewComposer(ffmpeg.NewRunner(bin, probe), "").Compose(context.Background(), imgPath, audio, filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if artifact.Duration != 42.5 {
		t.Errorf("Duration = %v, want 42.5", artifact.Duration)
	}
	if artifact.Path != filepath.Join(dir, "out.mp4") {
		t.Errorf("Path = %q", artifact.Path)
	}
}

func TestComposeWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "bg.png")
	img := image.NewRGBA(image.Rect(0, 0, 72, 128))
	for x := 0; x < 72; x++ {
		img.Set(x, x, color.White)
	}
	f, err := os.Create(imagePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	audioPath := filepath.Join(dir, "story.wav")
	if err := speech.NewSilent(0).Synthesize(context.Background(), "one two three four five", "v", audioPath); err != nil {
		t.Fatal(err)
	}

	artifact, err := NewComposer(nil, "144x256").Compose(context.Background(), imagePath, audioPath, filepath.Join(dir, "final_video.mp4"))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if artifact.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", artifact.Duration)
	}
}
