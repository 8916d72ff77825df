package whisper

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"lectern/internal/config"
	"lectern/internal/stage"
)

// Options carries per-call transcription settings.
type Options struct {
	// Language is an ISO 639-1 language hint for the engine.
	Language string
}

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Result is the output of a transcription run.
type Result struct {
	// Text is the plain transcript.
	Text string
	// Segments carries timing information for subtitle output. May be empty
	// when the engine produced no usable timing.
	Segments []Segment
}

// Engine transcribes a single audio file. Implementations shell out to one
// of the supported whisper command line tools.
type Engine interface {
	// Name returns the engine identifier as used in configuration.
	Name() string
	// Probe reports whether the engine's binary and model are usable.
	Probe() stage.Health
	// Transcribe converts the audio file at audioPath to text.
	Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error)
}

// Select constructs the engine named by the transcription configuration.
func Select(cfg config.Transcription) (Engine, error) {
	switch cfg.Engine {
	case "whisper-cpp":
		return newWhisperCPP(cfg), nil
	case "whisper":
		return newWhisperCLI(cfg), nil
	case "whisperx":
		return newWhisperX(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transcription engine %q", cfg.Engine)
	}
}

// runner abstracts command execution so tests can stub the engines.
type runner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func probeBinary(binary string) stage.Health {
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(stage.Transcribed, fmt.Sprintf("%s not found in PATH", binary))
	}
	return stage.Healthy(stage.Transcribed)
}

// textFromSegments joins segment text into a plain transcript.
func textFromSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
