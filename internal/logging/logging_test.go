package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "status.log")

	logger, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With("run_id", "abc").Named("tool").Debugw("ffmpeg output", "line", "frame=1")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var record map[string]interface{}
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line is not JSON: %q: %v", line, err)
	}
	if record["msg"] != "ffmpeg output" || record["run_id"] != "abc" || record["logger"] != "tool" {
		t.Errorf("unexpected record %v", record)
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Infow("discarded", "key", "value")
	if logger.Named("x").With("a", 1) == nil {
		t.Fatal("expected child logger")
	}
}

func TestCloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")

	logger, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	child := logger.Named("pipeline")
	child.Infow("Completed", "output", "show.mp4")

	// stderr may refuse Sync; only the file matters here
	_ = child.Close()
	_ = logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"output":"show.mp4"`) {
		t.Errorf("record not flushed before close: %q", data)
	}
	if logger.closer == nil {
		t.Fatal("file logger has no closer")
	}
	if Nop().Close() != nil {
		t.Error("closing a nop logger failed")
	}
}
