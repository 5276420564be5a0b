package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

// writeTestLog writes a small capture with a known mix of events and
// returns its path.
func writeTestLog(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture.vlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

	events := []Event{
		{
			Timestamp:    base,
			ConnectionID: "conn-a",
			Direction:    DirectionIn,
			Layer:        LayerTransport,
			Category:     CategoryMessage,
			Frame:        &FrameEvent{Size: 16},
		},
		{
			Timestamp:    base.Add(1 * time.Second),
			ConnectionID: "conn-a",
			Direction:    DirectionOut,
			Layer:        LayerWire,
			Category:     CategoryMessage,
		},
		{
			Timestamp:    base.Add(2 * time.Second),
			ConnectionID: "conn-b",
			Direction:    DirectionIn,
			Layer:        LayerTransport,
			Category:     CategoryControl,
		},
		{
			Timestamp: base.Add(3 * time.Second),
			Direction: DirectionLocal,
			Layer:     LayerController,
			Category:  CategoryActuation,
			Actuation: &ActuationEvent{Kind: ActuationMotors, On: true},
		},
	}

	for _, e := range events {
		logger.Log(e)
	}
	return path
}

func TestReaderReadsAll(t *testing.T) {
	path := writeTestLog(t)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		count++
	}

	if count != 4 {
		t.Errorf("event count: got %d, want 4", count)
	}
}

func TestReaderFilterByConnection(t *testing.T) {
	path := writeTestLog(t)

	reader, err := NewFilteredReader(path, Filter{ConnectionID: "conn-a"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if event.ConnectionID != "conn-a" {
			t.Errorf("filter leaked event for %q", event.ConnectionID)
		}
		count++
	}

	if count != 2 {
		t.Errorf("event count: got %d, want 2", count)
	}
}

func TestReaderFilterByCategory(t *testing.T) {
	path := writeTestLog(t)

	cat := CategoryActuation
	reader, err := NewFilteredReader(path, Filter{Category: &cat})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if event.Actuation == nil || event.Actuation.Kind != ActuationMotors {
		t.Errorf("unexpected event: %+v", event)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderFilterByTimeWindow(t *testing.T) {
	path := writeTestLog(t)

	start := time.Date(2025, 11, 3, 10, 0, 1, 0, time.UTC)
	end := time.Date(2025, 11, 3, 10, 0, 3, 0, time.UTC)
	reader, err := NewFilteredReader(path, Filter{TimeStart: &start, TimeEnd: &end})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if event.Timestamp.Before(start) || !event.Timestamp.Before(end) {
			t.Errorf("event outside window: %v", event.Timestamp)
		}
		count++
	}

	// The window is half-open: [start, end)
	if count != 2 {
		t.Errorf("event count: got %d, want 2", count)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.vlog")); err == nil {
		t.Error("NewReader should fail on a missing file")
	}
}
