package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"lectern/internal/services"
	"lectern/internal/stage"
)

// Config holds the audio extraction settings.
type Config struct {
	// Binary is the ffmpeg executable name or path.
	Binary string
	// Format is the output container, wav or mp3.
	Format string
	// SampleRate is the output sample rate in Hz.
	SampleRate int
}

// Extractor converts recordings to mono audio files with ffmpeg.
type Extractor struct {
	cfg    Config
	runner func(ctx context.Context, name string, args ...string) error
}

// New creates an Extractor. Zero-value config fields fall back to ffmpeg,
// wav, and 16 kHz.
func New(cfg Config) *Extractor {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.Format == "" {
		cfg.Format = "wav"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &Extractor{cfg: cfg}
}

// WithRunner sets a custom command runner (for testing).
func (e *Extractor) WithRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.runner = runner
}

// Probe checks that the ffmpeg binary is available.
func (e *Extractor) Probe() stage.Health {
	if _, err := exec.LookPath(e.cfg.Binary); err != nil {
		return stage.Unhealthy(stage.ExtractedAudio, fmt.Sprintf("%s not found in PATH", e.cfg.Binary))
	}
	return stage.Healthy(stage.ExtractedAudio)
}

// Extract writes the audio track of src to dest as mono audio at the
// configured sample rate. Any existing dest file is overwritten.
func (e *Extractor) Extract(ctx context.Context, src, dest string) error {
	if src == "" {
		return services.Wrap(services.ErrValidation, string(stage.ExtractedAudio), "extract", "source path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, string(stage.ExtractedAudio), "extract", "ensure output directory", err)
	}
	args := e.buildArgs(src, dest)
	if err := e.run(ctx, e.cfg.Binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, string(stage.ExtractedAudio), "extract", filepath.Base(src), err)
	}
	return nil
}

func (e *Extractor) buildArgs(src, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
	}
	switch e.cfg.Format {
	case "mp3":
		args = append(args, "-acodec", "libmp3lame", "-q:a", "2")
	default:
		args = append(args, "-acodec", "pcm_s16le")
	}
	args = append(args,
		"-ar", strconv.Itoa(e.cfg.SampleRate),
		"-ac", "1",
		dest,
	)
	return args
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.runner != nil {
		return e.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
