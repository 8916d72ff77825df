package ffmpeg

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/services"
)

func TestExtractBuildsWavArgs(t *testing.T) {
	ex := New(Config{})
	var gotName string
	var gotArgs []string
	ex.WithRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	dir := t.TempDir()
	dest := filepath.Join(dir, "talk.wav")
	if err := ex.Extract(context.Background(), "/videos/talk.mov", dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("binary = %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-vn", "-acodec pcm_s16le", "-ar 16000", "-ac 1", "-y"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if gotArgs[len(gotArgs)-1] != dest {
		t.Fatalf("dest should be last arg, got %q", gotArgs[len(gotArgs)-1])
	}
}

func TestExtractMP3Codec(t *testing.T) {
	ex := New(Config{Format: "mp3", SampleRate: 22050})
	var gotArgs []string
	ex.WithRunner(func(_ context.Context, _ string, args ...string) error {
		gotArgs = args
		return nil
	})
	if err := ex.Extract(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.mp3")); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "libmp3lame") || !strings.Contains(joined, "-ar 22050") {
		t.Fatalf("unexpected args: %q", joined)
	}
}

func TestExtractWrapsToolFailure(t *testing.T) {
	ex := New(Config{})
	ex.WithRunner(func(_ context.Context, _ string, _ ...string) error {
		return errors.New("exit status 1")
	})
	err := ex.Extract(context.Background(), "in.mov", filepath.Join(t.TempDir(), "out.wav"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestExtractRequiresSource(t *testing.T) {
	ex := New(Config{})
	err := ex.Extract(context.Background(), "", "out.wav")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}
