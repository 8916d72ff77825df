// Package stageexec runs one stage of work for one file with completion
// short-circuiting and durable progress: already-done work is skipped, fresh
// completions are written to the ledger immediately, and per-file failures
// are reported as outcomes rather than propagated as errors.
package stageexec
