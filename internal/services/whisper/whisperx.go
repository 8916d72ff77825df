package whisper

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"lectern/internal/config"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// whisperX drives WhisperX through uvx so no permanent install is required.
type whisperX struct {
	binary string
	model  string
	run    runner
}

func newWhisperX(cfg config.Transcription) *whisperX {
	binary := cfg.Binary
	if binary == "" {
		binary = "uvx"
	}
	model := cfg.ModelName
	if model == "" {
		model = "base"
	}
	return &whisperX{binary: binary, model: model, run: runCommand}
}

func (w *whisperX) Name() string { return "whisperx" }

func (w *whisperX) Probe() stage.Health { return probeBinary(w.binary) }

func (w *whisperX) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	workDir, err := os.MkdirTemp("", "lectern-whisper-*")
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, string(stage.Transcribed), w.Name(), "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	args := []string{
		"whisperx",
		audioPath,
		"--model", w.model,
		"--output_dir", workDir,
		"--output_format", "srt",
		"--device", "cpu",
		"--compute_type", "int8",
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}

	if err := w.run(ctx, w.binary, args...); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, string(stage.Transcribed), w.Name(), filepath.Base(audioPath), err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return collectResult(w.Name(), "", filepath.Join(workDir, stem+".srt"))
}
