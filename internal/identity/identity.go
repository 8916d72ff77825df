package identity

import (
	"path/filepath"
	"strings"
)

// srtSuffix is appended to subtitle artifacts generated alongside a
// transcript ("talk1_SRT.srt"). It is stripped during normalization so the
// subtitle resolves to the same identity as its transcript.
const srtSuffix = "_SRT"

// ID is the canonical key identifying one logical item across every stage,
// regardless of the artifact's directory or extension. Two artifacts
// represent the same item iff their normalized stems are equal.
type ID string

// FromArtifact derives the identity from any stage artifact path or
// filename: the extension is dropped and a trailing _SRT marker removed.
func FromArtifact(path string) ID {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSuffix(stem, srtSuffix)
	return ID(stem)
}

// FromStem wraps an already-normalized stem.
func FromStem(stem string) ID {
	return FromArtifact(stem)
}

func (id ID) String() string {
	return string(id)
}

// AudioFilename is the expected extraction artifact for this identity.
func (id ID) AudioFilename(format string) string {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if format == "" {
		format = "wav"
	}
	return string(id) + "." + format
}

// TranscriptFilename is the expected transcription artifact.
func (id ID) TranscriptFilename() string {
	return string(id) + ".txt"
}

// SubtitleFilename is the optional SRT artifact written next to the
// transcript.
func (id ID) SubtitleFilename() string {
	return string(id) + srtSuffix + ".srt"
}

// StructuredPattern is the glob matching the structuring artifact. The
// structuring stage prefixes output filenames with a generation timestamp,
// so presence checks must match a wildcard rather than an exact name.
func (id ID) StructuredPattern() string {
	return "*_" + string(id) + ".md"
}

// StructuredFilename is the structuring artifact for a concrete timestamp
// prefix.
func (id ID) StructuredFilename(datePrefix string) string {
	return datePrefix + "_" + string(id) + ".md"
}
