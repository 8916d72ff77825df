// Package services hosts the external tool and API clients the pipeline
// stages call into, plus the shared error taxonomy and context plumbing they
// use.
//
// Subpackages wrap one collaborator each (ffmpeg, whisper engines, the
// structuring API, yt-dlp). The root package defines sentinel error markers so
// callers can classify failures with errors.Is, and context helpers that carry
// the current file identity, stage, and correlation ID into logs.
package services
