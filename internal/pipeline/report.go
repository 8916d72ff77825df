package pipeline

import (
	"time"

	"lectern/internal/stageexec"
)

// Report summarizes one pipeline run.
type Report struct {
	Started  time.Time
	Finished time.Time
	// Resumed is set when the ledger already tracked files at startup.
	Resumed  bool
	Outcomes []stageexec.Outcome
}

func (r *Report) add(outcome stageexec.Outcome) {
	r.Outcomes = append(r.Outcomes, outcome)
}

// Counts tallies outcomes by status.
func (r *Report) Counts() (completed, failed, skipped int) {
	for _, outcome := range r.Outcomes {
		switch outcome.Status {
		case stageexec.StatusCompleted:
			completed++
		case stageexec.StatusFailed:
			failed++
		case stageexec.StatusSkipped:
			skipped++
		}
	}
	return completed, failed, skipped
}

// Failures returns the failed outcomes in run order.
func (r *Report) Failures() []stageexec.Outcome {
	var failures []stageexec.Outcome
	for _, outcome := range r.Outcomes {
		if outcome.Status == stageexec.StatusFailed {
			failures = append(failures, outcome)
		}
	}
	return failures
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() || r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
