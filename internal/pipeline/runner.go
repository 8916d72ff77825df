package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"

	"lectern/internal/config"
	"lectern/internal/fileutil"
	"lectern/internal/identity"
	"lectern/internal/ledger"
	"lectern/internal/logging"
	"lectern/internal/presence"
	"lectern/internal/services"
	"lectern/internal/services/ffmpeg"
	"lectern/internal/services/gpt"
	"lectern/internal/services/whisper"
	"lectern/internal/stage"
	"lectern/internal/stageexec"
)

// Extractor converts a recording into the audio artifact.
type Extractor interface {
	Probe() stage.Health
	Extract(ctx context.Context, src, dest string) error
}

// Structurer turns a transcript into a structured markdown document.
type Structurer interface {
	Probe() stage.Health
	HealthCheck(ctx context.Context) error
	Structure(ctx context.Context, title, transcript string, timestamped bool) (string, error)
}

// RunRecorder persists run summaries for history.
type RunRecorder interface {
	RecordRun(ctx context.Context, started, finished time.Time, completed, failed, skipped int) error
}

// Runner sequences the pipeline stages over everything found in the
// workspace directories. Per-file failures are collected in the report; only
// credential failures halt a run.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	ledger     *ledger.Ledger
	oracle     *presence.Oracle
	exec       *stageexec.Executor
	extractor  Extractor
	engine     whisper.Engine
	structurer Structurer
	recorder   RunRecorder
	sleep      func(ctx context.Context, d time.Duration) error
	progress   bool
}

// Option customizes a Runner.
type Option func(*Runner)

// WithExtractor overrides the audio extractor.
func WithExtractor(e Extractor) Option { return func(r *Runner) { r.extractor = e } }

// WithEngine overrides the transcription engine.
func WithEngine(e whisper.Engine) Option { return func(r *Runner) { r.engine = e } }

// WithStructurer overrides the structuring client.
func WithStructurer(s Structurer) Option { return func(r *Runner) { r.structurer = s } }

// WithRecorder attaches a run history recorder.
func WithRecorder(rec RunRecorder) Option { return func(r *Runner) { r.recorder = rec } }

// WithProgress toggles per-stage progress bars.
func WithProgress(enabled bool) Option { return func(r *Runner) { r.progress = enabled } }

// WithSleeper overrides how inter-request delays are performed (for tests).
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = fn }
}

// New constructs a Runner over the given configuration. Collaborators not
// supplied through options are built from the configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	r.ledger = ledger.Load(cfg.LedgerPath(), logger)
	r.oracle = presence.New(presence.Dirs{
		Audio:       cfg.Workspace.AudioDir,
		Text:        cfg.Workspace.TextDir,
		Record:      cfg.Workspace.RecordDir,
		Structured:  cfg.Workspace.StructuredDir,
		AudioFormat: cfg.Audio.Format,
	})
	r.exec = stageexec.New(r.ledger, r.oracle, logger)

	for _, opt := range opts {
		opt(r)
	}

	if r.extractor == nil {
		r.extractor = ffmpeg.New(ffmpeg.Config{
			Binary:     cfg.Audio.FFmpegBinary,
			Format:     cfg.Audio.Format,
			SampleRate: cfg.Audio.SampleRate,
		})
	}
	if r.engine == nil {
		engine, err := whisper.Select(cfg.Transcription)
		if err != nil {
			return nil, err
		}
		r.engine = engine
	}
	if r.structurer == nil {
		r.structurer = gpt.NewStructurer(cfg.Structuring)
	}
	if r.sleep == nil {
		r.sleep = sleepContext
	}
	return r, nil
}

// Ledger exposes the loaded ledger for status reporting.
func (r *Runner) Ledger() *ledger.Ledger { return r.ledger }

// HealthCheck probes each stage's external collaborator.
func (r *Runner) HealthCheck(ctx context.Context) []stage.Health {
	_ = ctx
	return []stage.Health{
		r.extractor.Probe(),
		stage.Healthy(stage.RecordTextRaw),
		r.engine.Probe(),
		r.structurer.Probe(),
	}
}

// Run executes the full pipeline once and returns a per-file report. The
// returned error is non-nil only for run-level problems: the workspace lock,
// unusable directories, or a credential failure that would fail every
// remaining file.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{Started: time.Now()}

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return report, errors.New("another lectern run is already active")
	}
	defer lock.Unlock()

	if err := r.cfg.EnsureDirectories(); err != nil {
		return report, fmt.Errorf("prepare workspace: %w", err)
	}

	report.Resumed = r.ledger.Len() > 0
	if report.Resumed {
		r.logger.Info("resuming from ledger", logging.Int("known_files", r.ledger.Len()))
	}

	found, err := r.discover()
	if err != nil {
		return report, err
	}
	for _, it := range found.all() {
		r.ledger.Ensure(it.id)
	}
	r.flushLedger()
	r.logger.Info("batch discovered",
		logging.Int("records", len(found.records)),
		logging.Int("recordings", len(found.recordings)),
		logging.Int("audio_only", len(found.audioOnly)),
		logging.Int("transcript_only", len(found.transcriptOnly)))

	// Records carry their raw text already; structure them before the
	// longer recording lineage starts.
	st := &structuringState{}
	fatal := r.runRecords(ctx, found, report, st)
	if fatal == nil {
		fatal = r.runRecordings(ctx, found, report, st)
	}

	report.Finished = time.Now()
	r.flushLedger()
	r.recordRun(ctx, report)

	if fatal != nil {
		return report, fatal
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// structuringState tracks structuring behavior across both lineages of one
// run: the one-time credential check and the delay between consecutive API
// calls.
type structuringState struct {
	calls    int
	verified bool
}

// verifyStructurer performs the credential check once per run, before the
// first structuring request. A rejected key halts the run here instead of
// spending a transcript on a doomed request; any other probe error is logged
// and the per-file attempts proceed.
func (r *Runner) verifyStructurer(ctx context.Context, st *structuringState) error {
	if st.verified {
		return nil
	}
	st.verified = true
	if err := r.structurer.HealthCheck(ctx); err != nil {
		if services.IsFatal(err) {
			return fmt.Errorf("halting run: %w", err)
		}
		r.logger.Warn("structuring health check failed", logging.Error(err))
	}
	return nil
}

// structuringPending reports whether any of items still needs a structuring
// call according to the ledger.
func (r *Runner) structuringPending(items []item) bool {
	for _, it := range items {
		if !r.ledger.Complete(it.id, stage.Structured) {
			return true
		}
	}
	return false
}

func (r *Runner) runRecords(ctx context.Context, found *batch, report *Report, st *structuringState) error {
	if len(found.records) == 0 {
		return nil
	}
	if r.structuringPending(found.records) {
		if err := r.verifyStructurer(ctx, st); err != nil {
			return err
		}
	}
	bar := r.newBar(len(found.records), "structuring records")
	for _, it := range found.records {
		if ctx.Err() != nil {
			return nil
		}
		report.add(r.exec.Run(ctx, stageexec.Request{
			Identity: it.id,
			Stage:    stage.RecordTextRaw,
			Invoke: func(context.Context) error {
				return services.Wrap(services.ErrNotFound, string(stage.RecordTextRaw), "source", "record text missing", nil)
			},
		}))

		outcome := r.structureItem(ctx, it.id, r.cfg.Workspace.RecordDir, true, st)
		report.add(outcome)
		advance(bar)
		if services.IsFatal(outcome.Err) {
			return fmt.Errorf("halting run: %w", outcome.Err)
		}
	}
	return nil
}

// runRecordings walks the recording lineage. Each stage re-enumerates its
// candidates from the previous stage's output directory, so a file that
// failed upstream simply has no input downstream and is reported exactly
// once.
func (r *Runner) runRecordings(ctx context.Context, found *batch, report *Report, st *structuringState) error {
	if len(found.recordings) > 0 {
		bar := r.newBar(len(found.recordings), "extracting audio")
		for _, it := range found.recordings {
			if ctx.Err() != nil {
				return nil
			}
			source := it.source
			dest := filepath.Join(r.cfg.Workspace.AudioDir, it.id.AudioFilename(r.cfg.Audio.Format))
			report.add(r.exec.Run(ctx, stageexec.Request{
				Identity: it.id,
				Stage:    stage.ExtractedAudio,
				Invoke: func(ctx context.Context) error {
					return r.extractor.Extract(ctx, source, dest)
				},
			}))
			advance(bar)
		}
	}

	transcribable := r.audioInputs()
	if len(transcribable) > 0 {
		bar := r.newBar(len(transcribable), "transcribing")
		for _, it := range transcribable {
			if ctx.Err() != nil {
				return nil
			}
			id := it.id
			report.add(r.exec.Run(ctx, stageexec.Request{
				Identity: id,
				Stage:    stage.Transcribed,
				Invoke: func(ctx context.Context) error {
					return r.transcribe(ctx, id)
				},
			}))
			advance(bar)
		}
	}

	structurable := r.transcriptInputs()
	if len(structurable) > 0 {
		if r.structuringPending(structurable) {
			if err := r.verifyStructurer(ctx, st); err != nil {
				return err
			}
		}
		bar := r.newBar(len(structurable), "structuring")
		for _, it := range structurable {
			if ctx.Err() != nil {
				return nil
			}
			outcome := r.structureItem(ctx, it.id, r.cfg.Workspace.TextDir, false, st)
			report.add(outcome)
			advance(bar)
			if services.IsFatal(outcome.Err) {
				return fmt.Errorf("halting run: %w", outcome.Err)
			}
		}
	}
	return nil
}

func (r *Runner) transcribe(ctx context.Context, id identity.ID) error {
	audioPath, ok := r.oracle.Locate(id, stage.ExtractedAudio)
	if !ok {
		return services.Wrap(services.ErrNotFound, string(stage.Transcribed), "locate", "audio artifact missing", nil)
	}

	result, err := r.engine.Transcribe(ctx, audioPath, whisper.Options{Language: r.cfg.Transcription.Language})
	if err != nil {
		return err
	}

	textPath := filepath.Join(r.cfg.Workspace.TextDir, id.TranscriptFilename())
	if err := fileutil.WriteFileAtomic(textPath, []byte(result.Text+"\n"), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, string(stage.Transcribed), "write transcript", id.TranscriptFilename(), err)
	}
	if r.cfg.Transcription.ExtractSRT && len(result.Segments) > 0 {
		srtPath := filepath.Join(r.cfg.Workspace.TextDir, id.SubtitleFilename())
		if err := whisper.WriteSRT(srtPath, result.Segments); err != nil {
			return services.Wrap(services.ErrTransient, string(stage.Transcribed), "write subtitles", id.SubtitleFilename(), err)
		}
	}
	return nil
}

// structureItem runs the structuring stage for one file, reading the
// transcript from sourceDir. The configured delay runs between consecutive
// API calls, not around skips.
func (r *Runner) structureItem(ctx context.Context, id identity.ID, sourceDir string, timestamped bool, st *structuringState) stageexec.Outcome {
	return r.exec.Run(ctx, stageexec.Request{
		Identity: id,
		Stage:    stage.Structured,
		Invoke: func(ctx context.Context) error {
			transcriptPath := filepath.Join(sourceDir, id.TranscriptFilename())
			data, err := os.ReadFile(transcriptPath)
			if err != nil {
				return services.Wrap(services.ErrNotFound, string(stage.Structured), "read transcript", id.TranscriptFilename(), err)
			}

			if st.calls > 0 {
				delay := time.Duration(r.cfg.Structuring.RequestDelaySeconds) * time.Second
				if err := r.sleep(ctx, delay); err != nil {
					return err
				}
			}
			st.calls++

			doc, err := r.structurer.Structure(ctx, id.TranscriptFilename(), string(data), timestamped)
			if err != nil {
				return err
			}

			name := id.StructuredFilename(time.Now().Format("2006-01-02_150405"))
			outPath := filepath.Join(r.cfg.Workspace.StructuredDir, name)
			if err := fileutil.WriteFileAtomic(outPath, []byte(doc), 0o644); err != nil {
				return services.Wrap(services.ErrTransient, string(stage.Structured), "write document", name, err)
			}
			return nil
		},
	})
}

func (r *Runner) flushLedger() {
	if err := r.ledger.Save(); err != nil {
		r.logger.Warn("ledger save failed", logging.Error(err))
	}
}

func (r *Runner) recordRun(ctx context.Context, report *Report) {
	if r.recorder == nil {
		return
	}
	completed, failed, skipped := report.Counts()
	if err := r.recorder.RecordRun(ctx, report.Started, report.Finished, completed, failed, skipped); err != nil {
		r.logger.Warn("record run history failed", logging.Error(err))
	}
}

func (r *Runner) newBar(n int, desc string) *progressbar.ProgressBar {
	if !r.progress || n == 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
