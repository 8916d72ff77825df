// Package pipeline sequences the recording-to-document stages over a batch
// of files: audio extraction, transcription, and structuring, plus the
// shorter record lineage that enters at structuring directly.
//
// Completion is tracked per file and per stage through the ledger and the
// stage output directories, so an interrupted run resumes without redoing
// finished work. One file failing a stage never stops the batch; the only
// run-halting condition is a credential failure on the structuring API,
// which would fail every remaining file identically.
package pipeline
