// Package presence checks stage output directories for the artifacts a file
// identity should have produced, so completion can be decided from disk state
// independently of the ledger.
package presence
