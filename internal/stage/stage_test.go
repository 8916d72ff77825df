package stage

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  Name
		ok    bool
	}{
		{"transcribed", Transcribed, true},
		{" Structured ", Structured, true},
		{"EXTRACTED_AUDIO", ExtractedAudio, true},
		{"record_text_raw", RecordTextRaw, true},
		{"", "", false},
		{"encoded", "", false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Parse(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLineageStages(t *testing.T) {
	rec := LineageRecording.Stages()
	if len(rec) != 3 || rec[0] != ExtractedAudio || rec[1] != Transcribed || rec[2] != Structured {
		t.Fatalf("unexpected recording lineage: %v", rec)
	}
	txt := LineageRecord.Stages()
	if len(txt) != 2 || txt[0] != RecordTextRaw || txt[1] != Structured {
		t.Fatalf("unexpected record lineage: %v", txt)
	}
}

func TestHealthConstructorsTakeStageNames(t *testing.T) {
	healthy := Healthy(Transcribed)
	if !healthy.Ready || healthy.Name != string(Transcribed) || healthy.Detail != "" {
		t.Fatalf("Healthy = %+v", healthy)
	}
	unhealthy := Unhealthy(ExtractedAudio, "ffmpeg not found")
	if unhealthy.Ready || unhealthy.Name != string(ExtractedAudio) || unhealthy.Detail != "ffmpeg not found" {
		t.Fatalf("Unhealthy = %+v", unhealthy)
	}
}

func TestAllIsCopy(t *testing.T) {
	first := All()
	first[0] = "mutated"
	if All()[0] != ExtractedAudio {
		t.Fatal("All must return a copy")
	}
}
