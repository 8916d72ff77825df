package whisper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/config"
)

func TestSelect(t *testing.T) {
	cases := []struct {
		engine string
		want   string
	}{
		{"whisper-cpp", "whisper-cpp"},
		{"whisper", "whisper"},
		{"whisperx", "whisperx"},
	}
	for _, tc := range cases {
		engine, err := Select(config.Transcription{Engine: tc.engine})
		if err != nil {
			t.Fatalf("Select(%q): %v", tc.engine, err)
		}
		if engine.Name() != tc.want {
			t.Fatalf("Select(%q).Name() = %q", tc.engine, engine.Name())
		}
	}
	if _, err := Select(config.Transcription{Engine: "nope"}); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestWhisperCPPTranscribe(t *testing.T) {
	engine := newWhisperCPP(config.Transcription{ModelPath: "/models/ggml-base.bin"})

	var gotArgs []string
	engine.run = func(_ context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		// The tool writes transcript and subtitle files next to the
		// requested output base.
		var base string
		for i, arg := range args {
			if arg == "--output-file" && i+1 < len(args) {
				base = args[i+1]
			}
		}
		if base == "" {
			t.Fatal("no --output-file argument")
		}
		if err := os.WriteFile(base+".txt", []byte("hello world\n"), 0o644); err != nil {
			return err
		}
		srt := "1\n00:00:00,000 --> 00:00:02,000\nhello world\n\n"
		return os.WriteFile(base+".srt", []byte(srt), 0o644)
	}

	result, err := engine.Transcribe(context.Background(), "/audio/talk.wav", Options{Language: "ko"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "hello world" {
		t.Fatalf("text = %q", result.Text)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("segments = %+v", result.Segments)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-m /models/ggml-base.bin", "-f /audio/talk.wav", "-l ko"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestWhisperCLITranscribeReadsOutputDir(t *testing.T) {
	engine := newWhisperCLI(config.Transcription{ModelName: "small"})

	engine.run = func(_ context.Context, _ string, args ...string) error {
		var outDir string
		for i, arg := range args {
			if arg == "--output_dir" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		if outDir == "" {
			t.Fatal("no --output_dir argument")
		}
		return os.WriteFile(filepath.Join(outDir, "talk.txt"), []byte("from txt"), 0o644)
	}

	result, err := engine.Transcribe(context.Background(), "/audio/talk.wav", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Text != "from txt" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestWhisperXTextFallsBackToSegments(t *testing.T) {
	engine := newWhisperX(config.Transcription{})

	engine.run = func(_ context.Context, name string, args ...string) error {
		if name != "uvx" || args[0] != "whisperx" {
			t.Fatalf("unexpected invocation %s %v", name, args)
		}
		var outDir string
		for i, arg := range args {
			if arg == "--output_dir" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		srt := "1\n00:00:00,000 --> 00:00:01,000\nonly srt\n\n"
		return os.WriteFile(filepath.Join(outDir, "talk.srt"), []byte(srt), 0o644)
	}

	result, err := engine.Transcribe(context.Background(), "/audio/talk.wav", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Text != "only srt" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestTranscribeFailsWithoutOutput(t *testing.T) {
	engine := newWhisperCPP(config.Transcription{ModelPath: "/models/m.bin"})
	engine.run = func(context.Context, string, ...string) error { return nil }
	if _, err := engine.Transcribe(context.Background(), "talk.wav", Options{}); err == nil {
		t.Fatal("expected error when engine writes nothing")
	}
}

func TestWhisperCPPProbeRequiresModel(t *testing.T) {
	engine := newWhisperCPP(config.Transcription{Binary: "sh"})
	health := engine.Probe()
	if health.Ready {
		t.Fatal("probe should fail without model_path")
	}
	if !strings.Contains(health.Detail, "model_path") {
		t.Fatalf("detail = %q", health.Detail)
	}
}
