package whisper

import (
	"strings"
	"testing"
	"time"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
Hello there.

2
00:00:04,000 --> 00:00:06,250
Second line
continues here.

`

func TestParseSRT(t *testing.T) {
	segments, err := ParseSRT(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Start != time.Second || segments[0].End != 3500*time.Millisecond {
		t.Fatalf("segment 0 timing: %v - %v", segments[0].Start, segments[0].End)
	}
	if segments[0].Text != "Hello there." {
		t.Fatalf("segment 0 text: %q", segments[0].Text)
	}
	if segments[1].Text != "Second line\ncontinues here." {
		t.Fatalf("segment 1 text: %q", segments[1].Text)
	}
}

func TestParseSRTSkipsMalformedCue(t *testing.T) {
	input := "1\nnot a timestamp\n\n2\n00:00:01,000 --> 00:00:02,000\nok\n"
	segments, err := ParseSRT(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 1 || segments[0].Text != "ok" {
		t.Fatalf("unexpected segments: %+v", segments)
	}
}

func TestParseTimestampDotSeparator(t *testing.T) {
	d, err := parseTimestamp("01:02:03.400")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Hour + 2*time.Minute + 3*time.Second + 400*time.Millisecond
	if d != want {
		t.Fatalf("got %v, want %v", d, want)
	}
}

func TestFormatSRTRoundTrip(t *testing.T) {
	segments := []Segment{
		{Start: 1500 * time.Millisecond, End: 4 * time.Second, Text: "First."},
		{Start: 5 * time.Second, End: time.Hour + 10*time.Second, Text: "Last."},
	}
	out := FormatSRT(segments)
	if !strings.Contains(out, "00:00:01,500 --> 00:00:04,000") {
		t.Fatalf("timestamp formatting wrong:\n%s", out)
	}
	if !strings.Contains(out, "01:00:10,000") {
		t.Fatalf("hour formatting wrong:\n%s", out)
	}

	parsed, err := ParseSRT(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 2 || parsed[0] != segments[0] || parsed[1] != segments[1] {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestTextFromSegments(t *testing.T) {
	got := textFromSegments([]Segment{{Text: " a "}, {Text: ""}, {Text: "b"}})
	if got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}
