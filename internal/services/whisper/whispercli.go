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

// whisperCLI drives the reference openai-whisper command line tool.
type whisperCLI struct {
	binary string
	model  string
	run    runner
}

func newWhisperCLI(cfg config.Transcription) *whisperCLI {
	binary := cfg.Binary
	if binary == "" {
		binary = "whisper"
	}
	model := cfg.ModelName
	if model == "" {
		model = "base"
	}
	return &whisperCLI{binary: binary, model: model, run: runCommand}
}

func (w *whisperCLI) Name() string { return "whisper" }

func (w *whisperCLI) Probe() stage.Health { return probeBinary(w.binary) }

func (w *whisperCLI) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	workDir, err := os.MkdirTemp("", "lectern-whisper-*")
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, string(stage.Transcribed), w.Name(), "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	args := []string{
		audioPath,
		"--model", w.model,
		"--output_dir", workDir,
		"--output_format", "all",
		"--verbose", "False",
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}

	if err := w.run(ctx, w.binary, args...); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, string(stage.Transcribed), w.Name(), filepath.Base(audioPath), err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return collectResult(w.Name(),
		filepath.Join(workDir, stem+".txt"),
		filepath.Join(workDir, stem+".srt"))
}
