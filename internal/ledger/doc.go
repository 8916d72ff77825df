// Package ledger persists per-file stage completion as a small CSV table so
// interrupted pipeline runs resume where they left off. Loading is tolerant
// of missing or damaged files because the stage output directories remain the
// authoritative record of finished work.
package ledger
