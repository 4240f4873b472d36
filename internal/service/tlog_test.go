package service

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reflowctl/internal/models"
)

func sampleAt(t time.Time, top float64) models.TelemetrySample {
	return models.TelemetrySample{
		Time: t, TopC: top, BottomC: 208.5, IRC: 190.0, ExternalC: 23.1,
		State: models.StateRunning, Phase: "Soak", RemainingSeconds: 45,
	}
}

func TestLog_ExportWritesTable(t *testing.T) {
	l := NewLog()
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	l.Append(sampleAt(base, 215.0))
	l.Append(sampleAt(base.Add(time.Second), 216.25))
	l.Append(sampleAt(base.Add(2*time.Second), 217.0))

	path := filepath.Join(t.TempDir(), "run.csv")
	if err := l.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "Time,Top,Bottom,IR,External,Phase,Remaining" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "2026-08-29 10:00:00,215.0,208.5,190.0,23.1,Soak,45" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	// Temperatures are rendered with exactly one decimal.
	if lines[2] != "2026-08-29 10:00:01,216.2,208.5,190.0,23.1,Soak,45" &&
		lines[2] != "2026-08-29 10:00:01,216.3,208.5,190.0,23.1,Soak,45" {
		t.Fatalf("unexpected second row: %q", lines[2])
	}

	// Export must not consume the log.
	if l.Len() != 3 {
		t.Fatalf("export mutated the log: len=%d", l.Len())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestLog_ExportEmptyWritesHeaderOnly(t *testing.T) {
	l := NewLog()
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := l.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if got := string(data); got != "Time,Top,Bottom,IR,External,Phase,Remaining\n" {
		t.Fatalf("unexpected empty export: %q", got)
	}
}

func TestLog_ExportUnknownValuesAsDash(t *testing.T) {
	l := NewLog()
	at := time.Date(2026, 8, 29, 12, 30, 5, 0, time.Local)
	l.Append(models.TelemetrySample{
		Time: at, TopC: 215.0, BottomC: 208.0, IRC: 190.0,
		ExternalC: math.NaN(), State: models.StateUnknown,
	})

	path := filepath.Join(t.TempDir(), "serial.csv")
	if err := l.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[1] != "2026-08-29 12:30:05,215.0,208.0,190.0,-,-,0" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestLog_ExportFailureLeavesNoFile(t *testing.T) {
	l := NewLog()
	l.Append(sampleAt(time.Now(), 100))

	path := filepath.Join(t.TempDir(), "missing", "deep", "run.csv")
	if err := l.Export(path); err == nil {
		t.Fatalf("expected export into a missing directory to fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("partial export file exists")
	}
}

func TestLog_ClearDropsEntries(t *testing.T) {
	l := NewLog()
	l.Append(sampleAt(time.Now(), 100))
	l.Append(sampleAt(time.Now(), 101))
	if l.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", l.Len())
	}
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("expected empty log after Clear, got %d", l.Len())
	}
}

func TestLog_SnapshotIsACopy(t *testing.T) {
	l := NewLog()
	l.Append(sampleAt(time.Now(), 100))
	snap := l.Snapshot()
	snap[0].Sample.TopC = -1
	if l.Snapshot()[0].Sample.TopC != 100 {
		t.Fatalf("snapshot aliases the log's backing array")
	}
}
