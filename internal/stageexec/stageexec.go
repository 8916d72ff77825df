package stageexec

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lectern/internal/identity"
	"lectern/internal/ledger"
	"lectern/internal/logging"
	"lectern/internal/presence"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// Status classifies the result of running one stage for one file.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome reports what happened to one file at one stage. Failures carry the
// error; they are recorded here instead of propagating so one bad file never
// stops the batch.
type Outcome struct {
	Identity identity.ID
	Stage    stage.Name
	Status   Status
	Reason   string
	Err      error
}

// Request describes one unit of stage work.
type Request struct {
	Identity identity.ID
	Stage    stage.Name
	// Invoke performs the actual work. The context carries the file
	// identity, stage name, and a correlation ID.
	Invoke func(ctx context.Context) error
	// Verify optionally confirms the expected artifact exists after Invoke.
	// When nil the presence oracle's check for the stage is used.
	Verify func() bool
}

// Executor runs stage work with completion short-circuiting: the ledger is
// consulted first, then the output directory, and only then is the work
// invoked. The ledger is flushed after every file so progress survives a
// crash.
type Executor struct {
	ledger *ledger.Ledger
	oracle *presence.Oracle
	logger *slog.Logger
}

// New constructs an Executor.
func New(led *ledger.Ledger, oracle *presence.Oracle, logger *slog.Logger) *Executor {
	return &Executor{
		ledger: led,
		oracle: oracle,
		logger: logging.NewComponentLogger(logger, "stageexec"),
	}
}

// Run executes one stage for one file and returns the outcome.
func (e *Executor) Run(ctx context.Context, req Request) Outcome {
	outcome := Outcome{Identity: req.Identity, Stage: req.Stage}

	if e.ledger.Complete(req.Identity, req.Stage) {
		outcome.Status = StatusSkipped
		outcome.Reason = "recorded complete"
		return outcome
	}
	if e.oracle.Exists(req.Identity, req.Stage) {
		// The artifact exists but the ledger missed it; adopt it.
		e.ledger.MarkComplete(req.Identity, req.Stage)
		e.flush(req)
		outcome.Status = StatusSkipped
		outcome.Reason = "output already present"
		return outcome
	}

	ctx = services.WithItem(ctx, string(req.Identity))
	ctx = services.WithStage(ctx, string(req.Stage))
	ctx = services.WithRequestID(ctx, uuid.NewString())
	log := logging.WithContext(ctx, e.logger)

	started := time.Now()
	log.Info("stage started")
	if err := req.Invoke(ctx); err != nil {
		log.Error("stage failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	verified := true
	if req.Verify != nil {
		verified = req.Verify()
	} else {
		verified = e.oracle.Exists(req.Identity, req.Stage)
	}
	if !verified {
		log.Error("stage produced no output artifact", logging.Duration("elapsed", time.Since(started)))
		outcome.Status = StatusFailed
		outcome.Reason = "output artifact missing after run"
		outcome.Err = services.Wrap(services.ErrTransient, string(req.Stage), "verify", "output artifact missing after run", nil)
		return outcome
	}

	e.ledger.MarkComplete(req.Identity, req.Stage)
	e.flush(req)
	log.Info("stage complete", logging.Duration("elapsed", time.Since(started)))
	outcome.Status = StatusCompleted
	return outcome
}

// flush persists the ledger. A write failure is logged but does not fail the
// file; the artifact on disk already records the completion.
func (e *Executor) flush(req Request) {
	if err := e.ledger.Save(); err != nil {
		e.logger.Warn("ledger save failed",
			logging.String(logging.FieldItem, string(req.Identity)),
			logging.String(logging.FieldStage, string(req.Stage)),
			logging.Error(err))
	}
}
