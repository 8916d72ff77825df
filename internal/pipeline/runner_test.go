package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lectern/internal/config"
	"lectern/internal/identity"
	"lectern/internal/ledger"
	"lectern/internal/services"
	"lectern/internal/services/whisper"
	"lectern/internal/stage"
	"lectern/internal/testsupport"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeExtractor) Probe() stage.Health { return stage.Healthy(stage.ExtractedAudio) }

func (f *fakeExtractor) Extract(_ context.Context, src, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(src))
	f.mu.Unlock()
	if err := f.fail[filepath.Base(src)]; err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type fakeEngine struct {
	calls []string
	fail  map[string]error
}

func (f *fakeEngine) Name() string        { return "fake" }
func (f *fakeEngine) Probe() stage.Health { return stage.Healthy(stage.Transcribed) }

func (f *fakeEngine) Transcribe(_ context.Context, audioPath string, _ whisper.Options) (whisper.Result, error) {
	base := filepath.Base(audioPath)
	f.calls = append(f.calls, base)
	if err := f.fail[base]; err != nil {
		return whisper.Result{}, err
	}
	return whisper.Result{
		Text: "transcript of " + base,
		Segments: []whisper.Segment{
			{Start: 0, End: time.Second, Text: "transcript of " + base},
		},
	}, nil
}

type fakeStructurer struct {
	calls        []string
	fail         map[string]error
	healthErr    error
	healthChecks int
}

func (f *fakeStructurer) Probe() stage.Health { return stage.Healthy(stage.Structured) }

func (f *fakeStructurer) HealthCheck(context.Context) error {
	f.healthChecks++
	return f.healthErr
}

func (f *fakeStructurer) Structure(_ context.Context, title, transcript string, timestamped bool) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s|timestamped=%v", title, timestamped))
	if err := f.fail[title]; err != nil {
		return "", err
	}
	return "# " + title + "\n\n" + transcript, nil
}

type env struct {
	cfg        *config.Config
	runner     *Runner
	extractor  *fakeExtractor
	engine     *fakeEngine
	structurer *fakeStructurer
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	e := &env{
		cfg:        cfg,
		extractor:  &fakeExtractor{fail: map[string]error{}},
		engine:     &fakeEngine{fail: map[string]error{}},
		structurer: &fakeStructurer{fail: map[string]error{}},
	}
	all := append([]Option{
		WithExtractor(e.extractor),
		WithEngine(e.engine),
		WithStructurer(e.structurer),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
	}, opts...)
	runner, err := New(cfg, nil, all...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.runner = runner
	return e
}

func (e *env) addRecording(t *testing.T, name string) {
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.InputDir, name), "video")
}

func (e *env) addRecord(t *testing.T, name string) {
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.RecordDir, name), "Speaker 1 00:30 hello")
}

func (e *env) structuredFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.cfg.Workspace.StructuredDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestRunFullLineage(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "talk1.mov")
	e.addRecording(t, "talk2.mp4")

	report, err := e.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	completed, failed, _ := report.Counts()
	if failed != 0 {
		t.Fatalf("failures: %+v", report.Failures())
	}
	// Two files through three stages each.
	if completed != 6 {
		t.Fatalf("completed = %d, want 6", completed)
	}

	for _, stem := range []string{"talk1", "talk2"} {
		if _, err := os.Stat(filepath.Join(e.cfg.Workspace.AudioDir, stem+".wav")); err != nil {
			t.Fatalf("audio for %s missing: %v", stem, err)
		}
		if _, err := os.Stat(filepath.Join(e.cfg.Workspace.TextDir, stem+".txt")); err != nil {
			t.Fatalf("transcript for %s missing: %v", stem, err)
		}
	}
	structured := e.structuredFiles(t)
	if len(structured) != 2 {
		t.Fatalf("structured files = %v", structured)
	}
	for _, name := range structured {
		if !strings.HasSuffix(name, "_talk1.md") && !strings.HasSuffix(name, "_talk2.md") {
			t.Fatalf("unexpected structured filename %q", name)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "talk1.mov")

	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	firstExtracts := len(e.extractor.calls)
	firstStructures := len(e.structurer.calls)

	report, err := e.runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(e.extractor.calls) != firstExtracts {
		t.Fatal("rerun re-extracted audio")
	}
	if len(e.structurer.calls) != firstStructures {
		t.Fatal("rerun re-structured")
	}
	completed, failed, skipped := report.Counts()
	if completed != 0 || failed != 0 || skipped == 0 {
		t.Fatalf("rerun counts: completed=%d failed=%d skipped=%d", completed, failed, skipped)
	}
	if len(e.structuredFiles(t)) != 1 {
		t.Fatal("rerun produced duplicate structured output")
	}
}

func TestFailureIsIsolatedToOneFile(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "good.mov")
	e.addRecording(t, "bad.mov")
	e.extractor.fail["bad.mov"] = errors.New("codec error")

	report, err := e.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("per-file failure must not fail the run: %v", err)
	}
	// The failed extraction leaves no audio artifact, so bad is not a
	// candidate for the later stages and fails exactly once.
	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %+v, want exactly one", failures)
	}
	if failures[0].Identity != "bad" || failures[0].Stage != stage.ExtractedAudio {
		t.Fatalf("failure = %s at %s: %v", failures[0].Identity, failures[0].Stage, failures[0].Err)
	}
	// good went all the way through.
	led := ledger.Load(e.cfg.LedgerPath(), nil)
	if !led.Complete("good", stage.Structured) {
		t.Fatal("good file should be fully processed")
	}
	if led.Complete("bad", stage.ExtractedAudio) {
		t.Fatal("bad extraction must not be recorded complete")
	}
}

func TestCrashRecoveryFromArtifacts(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "talk.mov")
	// Simulate a previous run that extracted and transcribed but crashed
	// before the ledger recorded anything.
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.AudioDir, "talk.wav"), "RIFF")
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.TextDir, "talk.txt"), "already transcribed")

	report, err := e.runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(e.extractor.calls) != 0 {
		t.Fatal("existing audio artifact should be adopted, not re-extracted")
	}
	if len(e.engine.calls) != 0 {
		t.Fatal("existing transcript should be adopted, not re-transcribed")
	}
	if len(e.structurer.calls) != 1 {
		t.Fatalf("structuring should run once, got %d", len(e.structurer.calls))
	}
	if report.Resumed {
		t.Fatal("fresh ledger should not report resumption")
	}
	led := ledger.Load(e.cfg.LedgerPath(), nil)
	for _, s := range []stage.Name{stage.ExtractedAudio, stage.Transcribed, stage.Structured} {
		if !led.Complete("talk", s) {
			t.Fatalf("stage %s not recorded after adoption", s)
		}
	}
}

func TestRecordLineageRunsFirstAndTimestamped(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "lecture.mov")
	e.addRecord(t, "meeting.txt")

	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(e.structurer.calls) != 2 {
		t.Fatalf("structurer calls = %v", e.structurer.calls)
	}
	if !strings.HasPrefix(e.structurer.calls[0], "meeting.txt|timestamped=true") {
		t.Fatalf("record lineage should structure first with timestamps: %v", e.structurer.calls)
	}
	if e.structurer.calls[1] != "lecture.txt|timestamped=false" {
		t.Fatalf("recording lineage call = %q", e.structurer.calls[1])
	}
}

func TestAuthFailureHaltsRun(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "a.mov")
	e.addRecording(t, "b.mov")
	authErr := services.Wrap(services.ErrAuth, "structured", "complete", "api key rejected", nil)
	e.structurer.fail["a.txt"] = authErr
	e.structurer.fail["b.txt"] = authErr

	report, err := e.runner.Run(context.Background())
	if err == nil {
		t.Fatal("auth failure should fail the run")
	}
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("err = %v", err)
	}
	if len(e.structurer.calls) != 1 {
		t.Fatalf("run should halt after the first auth failure, calls = %v", e.structurer.calls)
	}
	// Work done before the halt is still recorded.
	led := ledger.Load(e.cfg.LedgerPath(), nil)
	if !led.Complete("a", stage.Transcribed) || !led.Complete("b", stage.Transcribed) {
		t.Fatal("pre-halt completions must be flushed")
	}
	_ = report
}

func TestCredentialCheckRunsBeforeFirstStructuringCall(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "a.mov")
	e.addRecording(t, "b.mov")
	e.structurer.healthErr = services.Wrap(services.ErrAuth, "structured", "health", "api key rejected", nil)

	report, err := e.runner.Run(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("err = %v, want auth halt", err)
	}
	if len(e.structurer.calls) != 0 {
		t.Fatalf("no transcript should be spent on a rejected key, calls = %v", e.structurer.calls)
	}
	if e.structurer.healthChecks != 1 {
		t.Fatalf("health checks = %d", e.structurer.healthChecks)
	}
	// Work done before the halt is still recorded.
	led := ledger.Load(e.cfg.LedgerPath(), nil)
	for _, stem := range []string{"a", "b"} {
		if !led.Complete(identity.ID(stem), stage.Transcribed) {
			t.Fatalf("%s transcription not flushed before halt", stem)
		}
	}
	_ = report
}

func TestCredentialCheckSkippedWhenNothingToStructure(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "talk.mov")
	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.structurer.healthChecks != 1 {
		t.Fatalf("first run health checks = %d", e.structurer.healthChecks)
	}
	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.structurer.healthChecks != 1 {
		t.Fatalf("idempotent rerun must not re-probe, health checks = %d", e.structurer.healthChecks)
	}
}

func TestAudioOnlyFilesEnterAtTranscription(t *testing.T) {
	e := newEnv(t)
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.AudioDir, "downloaded.wav"), "RIFF")

	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(e.extractor.calls) != 0 {
		t.Fatal("audio-only file must not be extracted")
	}
	if len(e.engine.calls) != 1 || e.engine.calls[0] != "downloaded.wav" {
		t.Fatalf("engine calls = %v", e.engine.calls)
	}
	led := ledger.Load(e.cfg.LedgerPath(), nil)
	if !led.Complete("downloaded", stage.Structured) {
		t.Fatal("audio-only file should reach structuring")
	}
}

func TestTranscriptOnlyFilesEnterAtStructuring(t *testing.T) {
	e := newEnv(t)
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.TextDir, "notes.txt"), "plain transcript")

	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(e.engine.calls) != 0 {
		t.Fatal("transcript-only file must not be transcribed")
	}
	if len(e.structurer.calls) != 1 {
		t.Fatalf("structurer calls = %v", e.structurer.calls)
	}
}

func TestSleepRunsBetweenStructuringCalls(t *testing.T) {
	var sleeps int
	e := newEnv(t, WithSleeper(func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}))
	e.cfg.Structuring.RequestDelaySeconds = 1
	e.addRecording(t, "a.mov")
	e.addRecording(t, "b.mov")
	e.addRecording(t, "c.mov")

	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sleeps != 2 {
		t.Fatalf("sleeps = %d, want 2 (between 3 calls)", sleeps)
	}
}

func TestSecondRunReportsResumption(t *testing.T) {
	e := newEnv(t)
	e.addRecording(t, "talk.mov")
	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	report, err := e.runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Resumed {
		t.Fatal("second run should report resumption")
	}
}

func TestSRTWrittenWhenConfigured(t *testing.T) {
	e := newEnv(t)
	e.cfg.Transcription.ExtractSRT = true
	e.addRecording(t, "talk.mov")

	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(e.cfg.Workspace.TextDir, "talk_SRT.srt")); err != nil {
		t.Fatalf("subtitle file missing: %v", err)
	}
}

func TestHealthCheckCoversAllStages(t *testing.T) {
	e := newEnv(t)
	checks := e.runner.HealthCheck(context.Background())
	if len(checks) != len(stage.All()) {
		t.Fatalf("health checks = %d, want %d", len(checks), len(stage.All()))
	}
	for _, health := range checks {
		if !health.Ready {
			t.Fatalf("stage %s unexpectedly unhealthy: %s", health.Name, health.Detail)
		}
	}
}

func TestRunRecorderReceivesSummary(t *testing.T) {
	var recorded bool
	var gotCompleted int
	recorder := runRecorderFunc(func(_ context.Context, started, finished time.Time, completed, failed, skipped int) error {
		recorded = true
		gotCompleted = completed
		if finished.Before(started) {
			t.Fatal("finished before started")
		}
		return nil
	})
	e := newEnv(t, WithRecorder(recorder))
	e.addRecording(t, "talk.mov")
	if _, err := e.runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !recorded || gotCompleted != 3 {
		t.Fatalf("recorded=%v completed=%d", recorded, gotCompleted)
	}
}

type runRecorderFunc func(ctx context.Context, started, finished time.Time, completed, failed, skipped int) error

func (f runRecorderFunc) RecordRun(ctx context.Context, started, finished time.Time, completed, failed, skipped int) error {
	return f(ctx, started, finished, completed, failed, skipped)
}

func TestDiscoverSkipsUnknownExtensions(t *testing.T) {
	e := newEnv(t)
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.InputDir, "notes.pdf"), "pdf")
	testsupport.WriteFile(t, filepath.Join(e.cfg.Workspace.InputDir, ".hidden.mov"), "x")

	found, err := e.runner.discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(found.recordings) != 0 {
		t.Fatalf("recordings = %+v", found.recordings)
	}
}
