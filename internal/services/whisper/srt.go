package whisper

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseSRT reads SubRip subtitles into segments. Malformed cues are skipped
// rather than failing the whole file.
func ParseSRT(r io.Reader) ([]Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var segments []Segment
	var current *Segment
	var textLines []string

	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(textLines, "\n"))
			if current.Text != "" {
				segments = append(segments, *current)
			}
		}
		current = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			flush()
			start, end, err := parseTimeRange(line)
			if err != nil {
				continue
			}
			current = &Segment{Start: start, End: end}
		case current != nil:
			textLines = append(textLines, line)
		default:
			// Cue index line; ignored.
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return segments, nil
}

// ParseSRTFile reads SubRip subtitles from a file.
func ParseSRTFile(path string) ([]Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseSRT(file)
}

// FormatSRT renders segments as a SubRip document.
func FormatSRT(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(seg.Start), formatTimestamp(seg.End), strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// WriteSRT writes segments to path in SubRip format.
func WriteSRT(path string, segments []Segment) error {
	return os.WriteFile(path, []byte(FormatSRT(segments)), 0o644)
}

func parseTimeRange(line string) (time.Duration, time.Duration, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time range %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.TrimSpace(strings.Fields(strings.TrimSpace(parts[1]))[0]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp accepts HH:MM:SS,mmm with either comma or dot millisecond
// separators.
func parseTimestamp(value string) (time.Duration, error) {
	normalized := strings.ReplaceAll(value, ".", ",")
	var millis int64
	main := normalized
	if idx := strings.IndexByte(normalized, ','); idx >= 0 {
		main = normalized[:idx]
		frac := normalized[idx+1:]
		for len(frac) < 3 {
			frac += "0"
		}
		parsed, err := strconv.ParseInt(frac[:3], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %q", value)
		}
		millis = parsed
	}
	fields := strings.Split(main, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	hours, err1 := strconv.ParseInt(fields[0], 10, 64)
	minutes, err2 := strconv.ParseInt(fields[1], 10, 64)
	seconds, err3 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
