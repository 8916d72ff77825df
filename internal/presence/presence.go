package presence

import (
	"os"
	"path/filepath"
	"sort"

	"lectern/internal/identity"
	"lectern/internal/stage"
)

// Dirs names the stage output directories the oracle inspects.
type Dirs struct {
	Audio      string
	Text       string
	Record     string
	Structured string
	// AudioFormat is the extension of extracted audio files (wav or mp3).
	AudioFormat string
}

// Oracle answers whether a stage's output artifact exists on disk. It is the
// authority the ledger defers to: an artifact present on disk counts as done
// even when the ledger lost the record.
type Oracle struct {
	dirs Dirs
}

// New creates an Oracle over the given directories.
func New(dirs Dirs) *Oracle {
	return &Oracle{dirs: dirs}
}

// Exists reports whether the output artifact of s for id is present.
func (o *Oracle) Exists(id identity.ID, s stage.Name) bool {
	path, ok := o.Locate(id, s)
	return ok && path != ""
}

// Locate returns the artifact path for id at stage s, when present. For the
// structured stage, which prefixes output files with a timestamp, the oldest
// match wins.
func (o *Oracle) Locate(id identity.ID, s stage.Name) (string, bool) {
	switch s {
	case stage.ExtractedAudio:
		return fileAt(filepath.Join(o.dirs.Audio, id.AudioFilename(o.dirs.AudioFormat)))
	case stage.Transcribed:
		return fileAt(filepath.Join(o.dirs.Text, id.TranscriptFilename()))
	case stage.RecordTextRaw:
		return fileAt(filepath.Join(o.dirs.Record, id.TranscriptFilename()))
	case stage.Structured:
		matches, err := filepath.Glob(filepath.Join(o.dirs.Structured, id.StructuredPattern()))
		if err != nil || len(matches) == 0 {
			return "", false
		}
		sort.Strings(matches)
		for _, match := range matches {
			if path, ok := fileAt(match); ok {
				return path, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func fileAt(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
