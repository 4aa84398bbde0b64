package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	lines := []string{
		"[12:00:00] <bob> hello",
		"[12:00:05] <alice> hi bob",
	}

	if err := Save(tmpDir, "#Chan", lines); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(tmpDir, "#chan")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != len(lines) {
		t.Fatalf("Expected %d lines, got %d", len(lines), len(loaded))
	}
	for i := range lines {
		if loaded[i] != lines[i] {
			t.Errorf("Line %d mismatch: expected %q, got %q", i, lines[i], loaded[i])
		}
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "logs", "#chan.txt")); err != nil {
		t.Errorf("Transcript file missing: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	lines, err := Load(t.TempDir(), "bob")
	if err != nil {
		t.Fatalf("Load should not fail for a missing transcript: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no lines, got %v", lines)
	}
}

func TestAdd(t *testing.T) {
	lines := []string{"old1", "old2"}
	lines = Add(lines, "new")

	if len(lines) != 3 {
		t.Errorf("Expected 3 lines, got %d", len(lines))
	}
	if lines[2] != "new" {
		t.Errorf("New line should be last, got %q", lines[2])
	}
}

func TestAddMaxEntries(t *testing.T) {
	lines := make([]string, 500)
	for i := range lines {
		lines[i] = fmt.Sprintf("entry %d", i)
	}

	lines = Add(lines, "new")

	if len(lines) != 500 {
		t.Errorf("Expected 500 lines (max), got %d", len(lines))
	}
	if lines[0] != "entry 1" {
		t.Errorf("Oldest line should have been dropped, got %q", lines[0])
	}
	if lines[499] != "new" {
		t.Errorf("New line should be last")
	}
}

func TestLast(t *testing.T) {
	lines := []string{"a", "b", "c"}

	if got := Last(lines, 2); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("Last(2) = %v", got)
	}
	if got := Last(lines, 10); len(got) != 3 {
		t.Errorf("Last(10) = %v", got)
	}
	if got := Last(lines, 0); len(got) != 0 {
		t.Errorf("Last(0) = %v", got)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"#Chan":      "#chan.txt",
		"bob":        "bob.txt",
		"../../etc":  "_.._etc.txt",
		"a/b\\c":     "a_b_c.txt",
		"[away]|bob": "_away__bob.txt",
		"":           "_.txt",
	}
	for target, want := range tests {
		if got := FileName(target); got != want {
			t.Errorf("FileName(%q) = %q, want %q", target, got, want)
		}
	}
}

func TestTranscripts(t *testing.T) {
	tmpDir := t.TempDir()

	store := NewTranscripts(tmpDir)
	for i := 0; i < 3; i++ {
		if err := store.Append("#chan", fmt.Sprintf("line %d", i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	last, err := store.Last("#CHAN", 2)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if len(last) != 2 || last[0] != "line 1" || last[1] != "line 2" {
		t.Errorf("Unexpected lines: %v", last)
	}

	// A fresh store reads what the first one saved
	reloaded, err := NewTranscripts(tmpDir).Last("#chan", 10)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if len(reloaded) != 3 {
		t.Errorf("Expected 3 saved lines, got %v", reloaded)
	}
}
