package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"

	"lectern/internal/fileutil"
	"lectern/internal/identity"
	"lectern/internal/logging"
	"lectern/internal/stage"
)

// marker is the cell value recording a completed stage.
const marker = "O"

// Ledger is the durable record of which pipeline stages have completed for
// which files. It is loaded once per run, updated in memory, and rewritten in
// full after every change so a crash loses at most the stage that was in
// flight.
type Ledger struct {
	path   string
	rows   map[identity.ID]map[stage.Name]bool
	logger *slog.Logger
}

// Load reads the ledger file at path. A missing file yields an empty ledger;
// unreadable or malformed content is skipped with a warning rather than
// failing the run, since the completed artifacts on disk remain the source of
// truth.
func Load(path string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Ledger{
		path:   path,
		rows:   make(map[identity.ID]map[stage.Name]bool),
		logger: logging.NewComponentLogger(logger, "ledger"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("ledger unreadable, starting empty", logging.String("path", path), logging.Error(err))
		}
		return l
	}
	l.parse(data)
	return l
}

// parse decodes each line as its own CSV record. The ledger never writes
// multi-line fields, and line-at-a-time decoding keeps one malformed row
// from swallowing everything after it.
func (l *Ledger) parse(data []byte) {
	lines := strings.Split(string(data), "\n")

	header, rest, ok := parseHeader(lines)
	if !ok {
		if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
			l.logger.Warn("ledger header unreadable, starting empty")
		}
		return
	}

	// Map columns by header name so reordered or extended files still load.
	columns := make(map[int]stage.Name)
	for i, name := range header {
		if i == 0 {
			continue
		}
		if parsed, ok := stage.Parse(strings.TrimSpace(name)); ok {
			columns[i] = parsed
		}
	}

	for offset, line := range rest {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := parseLine(line)
		if err != nil {
			l.logger.Warn("skipping malformed ledger row", logging.Int("line", offset+2), logging.Error(err))
			continue
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		id := identity.FromArtifact(record[0])
		row := l.row(id)
		for i, cell := range record {
			name, ok := columns[i]
			if !ok {
				continue
			}
			if strings.TrimSpace(cell) == marker {
				row[name] = true
			}
		}
	}
}

// parseHeader decodes the first non-blank line and returns the remaining
// lines.
func parseHeader(lines []string) (header []string, rest []string, ok bool) {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := parseLine(line)
		if err != nil {
			return nil, nil, false
		}
		return record, lines[i+1:], true
	}
	return nil, nil, false
}

func parseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimSuffix(line, "\r")))
	reader.FieldsPerRecord = -1
	return reader.Read()
}

func (l *Ledger) row(id identity.ID) map[stage.Name]bool {
	row, ok := l.rows[id]
	if !ok {
		row = make(map[stage.Name]bool, len(stage.All()))
		l.rows[id] = row
	}
	return row
}

// Ensure creates an empty row for id if none exists, so newly discovered
// files appear in the ledger even before any stage completes.
func (l *Ledger) Ensure(id identity.ID) {
	l.row(id)
}

// MarkComplete records that s finished for id. Marking is idempotent and
// never clears a previously recorded completion.
func (l *Ledger) MarkComplete(id identity.ID, s stage.Name) {
	l.row(id)[s] = true
}

// Complete reports whether s has been recorded as finished for id.
func (l *Ledger) Complete(id identity.ID, s stage.Name) bool {
	row, ok := l.rows[id]
	if !ok {
		return false
	}
	return row[s]
}

// Identities returns all known file identities in sorted order.
func (l *Ledger) Identities() []identity.ID {
	ids := make([]identity.ID, 0, len(l.rows))
	for id := range l.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of tracked files.
func (l *Ledger) Len() int {
	return len(l.rows)
}

// Path returns the backing file location.
func (l *Ledger) Path() string {
	return l.path
}

// Save rewrites the ledger file in full, rows sorted by identity, via an
// atomic rename so readers never observe a partial file.
func (l *Ledger) Save() error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := make([]string, 0, len(stage.All())+1)
	header = append(header, "identity")
	for _, s := range stage.All() {
		header = append(header, string(s))
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, id := range l.Identities() {
		record := make([]string, 0, len(header))
		record = append(record, string(id))
		row := l.rows[id]
		for _, s := range stage.All() {
			if row[s] {
				record = append(record, marker)
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	return fileutil.WriteFileAtomic(l.path, buf.Bytes(), 0o644)
}
