package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lectern/internal/identity"
)

// recordingExtensions lists the file types accepted as pipeline input
// recordings.
var recordingExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".webm": true,
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
	".aac": true, ".wma": true,
}

// item is one file identity together with the artifact it was discovered
// from.
type item struct {
	id     identity.ID
	source string
}

// batch is everything one run will process, grouped by where each file
// enters the pipeline.
type batch struct {
	// records are time-stamped dialogue texts; they enter at structuring.
	records []item
	// recordings are audio or video inputs; they run the full lineage.
	recordings []item
	// audioOnly are extracted or downloaded audio files with no matching
	// recording; they enter at transcription.
	audioOnly []item
	// transcriptOnly are transcripts with no matching audio or recording;
	// they enter at structuring.
	transcriptOnly []item
}

func (b *batch) all() []item {
	out := make([]item, 0, len(b.records)+len(b.recordings)+len(b.audioOnly)+len(b.transcriptOnly))
	out = append(out, b.records...)
	out = append(out, b.recordings...)
	out = append(out, b.audioOnly...)
	out = append(out, b.transcriptOnly...)
	return out
}

// audioInputs re-reads the audio directory. The transcription stage calls it
// after extraction finishes, so only files whose audio artifact actually
// exists become candidates; a failed extraction drops out here instead of
// failing again downstream.
func (r *Runner) audioInputs() []item {
	audioExt := "." + strings.ToLower(r.cfg.Audio.Format)
	var items []item
	for _, entry := range listFiles(r.cfg.Workspace.AudioDir) {
		if !strings.EqualFold(filepath.Ext(entry), audioExt) {
			continue
		}
		items = append(items, item{
			id:     identity.FromArtifact(entry),
			source: filepath.Join(r.cfg.Workspace.AudioDir, entry),
		})
	}
	return dedupe(items)
}

// transcriptInputs re-reads the text directory after transcription finishes;
// only files with a transcript on disk reach structuring.
func (r *Runner) transcriptInputs() []item {
	var items []item
	for _, entry := range listFiles(r.cfg.Workspace.TextDir) {
		if !strings.EqualFold(filepath.Ext(entry), ".txt") {
			continue
		}
		items = append(items, item{
			id:     identity.FromArtifact(entry),
			source: filepath.Join(r.cfg.Workspace.TextDir, entry),
		})
	}
	return dedupe(items)
}

func dedupe(items []item) []item {
	seen := make(map[identity.ID]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it.id] {
			continue
		}
		seen[it.id] = true
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// discover enumerates the workspace directories. The directories on disk,
// not the ledger, decide what the run works on; the ledger only decides what
// can be skipped.
func (r *Runner) discover() (*batch, error) {
	b := &batch{}

	for _, entry := range listFiles(r.cfg.Workspace.RecordDir) {
		if strings.EqualFold(filepath.Ext(entry), ".txt") {
			b.records = append(b.records, item{
				id:     identity.FromArtifact(entry),
				source: filepath.Join(r.cfg.Workspace.RecordDir, entry),
			})
		}
	}

	recordingIDs := make(map[identity.ID]bool)
	for _, entry := range listFiles(r.cfg.Workspace.InputDir) {
		if recordingExtensions[strings.ToLower(filepath.Ext(entry))] {
			id := identity.FromArtifact(entry)
			recordingIDs[id] = true
			b.recordings = append(b.recordings, item{
				id:     id,
				source: filepath.Join(r.cfg.Workspace.InputDir, entry),
			})
		}
	}

	audioExt := "." + strings.ToLower(r.cfg.Audio.Format)
	audioIDs := make(map[identity.ID]bool)
	for _, entry := range listFiles(r.cfg.Workspace.AudioDir) {
		if !strings.EqualFold(filepath.Ext(entry), audioExt) {
			continue
		}
		id := identity.FromArtifact(entry)
		audioIDs[id] = true
		if recordingIDs[id] {
			continue
		}
		b.audioOnly = append(b.audioOnly, item{
			id:     id,
			source: filepath.Join(r.cfg.Workspace.AudioDir, entry),
		})
	}

	for _, entry := range listFiles(r.cfg.Workspace.TextDir) {
		if !strings.EqualFold(filepath.Ext(entry), ".txt") {
			continue
		}
		id := identity.FromArtifact(entry)
		if recordingIDs[id] || audioIDs[id] {
			continue
		}
		b.transcriptOnly = append(b.transcriptOnly, item{
			id:     id,
			source: filepath.Join(r.cfg.Workspace.TextDir, entry),
		})
	}

	b.records = dedupe(b.records)
	b.recordings = dedupe(b.recordings)
	return b, nil
}

// listFiles returns the plain-file names in dir, ignoring hidden files. A
// missing directory reads as empty.
func listFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
