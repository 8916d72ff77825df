package whisper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lectern/internal/config"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// whisperCPP drives the whisper.cpp command line tool (whisper-cli).
type whisperCPP struct {
	binary    string
	modelPath string
	run       runner
}

func newWhisperCPP(cfg config.Transcription) *whisperCPP {
	binary := cfg.Binary
	if binary == "" {
		binary = "whisper-cli"
	}
	return &whisperCPP{binary: binary, modelPath: cfg.ModelPath, run: runCommand}
}

func (w *whisperCPP) Name() string { return "whisper-cpp" }

func (w *whisperCPP) Probe() stage.Health {
	if health := probeBinary(w.binary); !health.Ready {
		return health
	}
	if w.modelPath == "" {
		return stage.Unhealthy(stage.Transcribed, "transcription.model_path not configured")
	}
	if _, err := os.Stat(w.modelPath); err != nil {
		return stage.Unhealthy(stage.Transcribed, fmt.Sprintf("model file %s not found", w.modelPath))
	}
	return stage.Healthy(stage.Transcribed)
}

func (w *whisperCPP) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	workDir, err := os.MkdirTemp("", "lectern-whisper-*")
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, string(stage.Transcribed), w.Name(), "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	base := filepath.Join(workDir, "out")
	args := []string{
		"-m", w.modelPath,
		"-f", audioPath,
		"--output-txt",
		"--output-srt",
		"--output-file", base,
		"--no-prints",
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}

	if err := w.run(ctx, w.binary, args...); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, string(stage.Transcribed), w.Name(), filepath.Base(audioPath), err)
	}
	return collectResult(w.Name(), base+".txt", base+".srt")
}

// collectResult assembles a Result from the transcript and subtitle files an
// engine wrote. The transcript text falls back to joined segment text when
// only the subtitle file exists.
func collectResult(engine, txtPath, srtPath string) (Result, error) {
	var result Result

	if data, err := os.ReadFile(txtPath); err == nil {
		result.Text = strings.TrimSpace(string(data))
	}
	if segments, err := ParseSRTFile(srtPath); err == nil {
		result.Segments = segments
	}
	if result.Text == "" {
		result.Text = textFromSegments(result.Segments)
	}
	if result.Text == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, string(stage.Transcribed), engine, "engine produced no transcript output", nil)
	}
	return result, nil
}
