package service

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"reflowctl/internal/models"
)

// exportHeader and timestamp layout of the CSV export.
const (
	exportHeader     = "Time,Top,Bottom,IR,External,Phase,Remaining"
	exportTimeLayout = "2006-01-02 15:04:05"
)

// Log is the append-only telemetry log for one logging session. The poller
// is its only writer; the foreground reads, exports and clears it.
type Log struct {
	mu      sync.Mutex
	entries []models.LogEntry
}

func NewLog() *Log {
	return &Log{}
}

// Append records one sample. Usable directly as a poller Subscriber.
func (l *Log) Append(sample models.TelemetrySample) {
	at := sample.Time
	if at.IsZero() {
		at = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, models.LogEntry{Time: at, Sample: sample})
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot returns a copy of the entries in append order.
func (l *Log) Snapshot() []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear drops all entries. Export never clears; only this does.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Export writes the log as a CSV table. The file is rendered in memory and
// moved into place via a temp file, so a failure leaves no partial file. An
// empty log produces a header-only file. The log itself is not mutated.
func (l *Log) Export(path string) error {
	data := l.render(l.Snapshot())

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("export telemetry log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("export telemetry log: %w", err)
	}
	return nil
}

func (l *Log) render(entries []models.LogEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString(exportHeader)
	buf.WriteByte('\n')
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s,%s,%s,%s,%s,%s,%d\n",
			e.Time.Format(exportTimeLayout),
			formatTemp(e.Sample.TopC),
			formatTemp(e.Sample.BottomC),
			formatTemp(e.Sample.IRC),
			formatTemp(e.Sample.ExternalC),
			orDash(e.Sample.Phase),
			e.Sample.RemainingSeconds,
		)
	}
	return buf.Bytes()
}

// formatTemp renders a temperature with one decimal, or "-" for a sensor the
// active transport never reported.
func formatTemp(v float64) string {
	if !models.KnownTemp(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
