package stage

import "strings"

// Name identifies one transformation step in the pipeline.
type Name string

const (
	// ExtractedAudio is the ffmpeg audio-extraction step (video -> wav).
	ExtractedAudio Name = "extracted_audio"
	// RecordTextRaw marks a pre-existing timestamped transcript as ingested.
	RecordTextRaw Name = "record_text_raw"
	// Transcribed is the speech-to-text step (wav -> txt).
	Transcribed Name = "transcribed"
	// Structured is the chat-completion restructuring step (txt -> md).
	Structured Name = "structured"
)

var allStages = []Name{
	ExtractedAudio,
	RecordTextRaw,
	Transcribed,
	Structured,
}

var stageSet = func() map[Name]struct{} {
	set := make(map[Name]struct{}, len(allStages))
	for _, name := range allStages {
		set[name] = struct{}{}
	}
	return set
}()

// All returns the ordered list of known stages. The order matches the
// ledger's column order.
func All() []Name {
	cp := make([]Name, len(allStages))
	copy(cp, allStages)
	return cp
}

// Parse converts a string into a known stage Name. Unknown input yields the
// zero Name.
func Parse(value string) (Name, bool) {
	normalized := Name(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := stageSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// Lineage is the path of stages a file travels, determined by its origin.
type Lineage string

const (
	// LineageRecording covers files that start as raw recordings:
	// extracted_audio -> transcribed -> structured.
	LineageRecording Lineage = "recording"
	// LineageRecord covers pre-existing timestamped transcripts:
	// record_text_raw -> structured.
	LineageRecord Lineage = "record"
)

// Stages returns the ordered stage sequence for the lineage.
func (l Lineage) Stages() []Name {
	switch l {
	case LineageRecord:
		return []Name{RecordTextRaw, Structured}
	default:
		return []Name{ExtractedAudio, Transcribed, Structured}
	}
}
