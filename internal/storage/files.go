// Package storage keeps per-target transcripts of channel and private
// conversations in the data directory
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const maxEntries = 500

// Load reads the transcript of target, oldest line first
func Load(dataDir, target string) ([]string, error) {
	lines, err := readLines(path(dataDir, target))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// Save writes the transcript of target, keeping the newest maxEntries lines
func Save(dataDir, target string, lines []string) error {
	dir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if len(lines) > maxEntries {
		lines = lines[len(lines)-maxEntries:]
	}
	return writeLines(path(dataDir, target), lines)
}

// Add appends an entry, dropping the oldest beyond maxEntries
func Add(lines []string, entry string) []string {
	lines = append(lines, entry)
	if len(lines) > maxEntries {
		lines = lines[len(lines)-maxEntries:]
	}
	return lines
}

// Last returns up to n of the newest lines
func Last(lines []string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	if n > len(lines) {
		n = len(lines)
	}
	return lines[len(lines)-n:]
}

// FileName maps a target to a file name that is safe on any filesystem.
// Targets differing only in case share a file
func FileName(target string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(target) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '#', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "_"
	}
	return name + ".txt"
}

func path(dataDir, target string) string {
	return filepath.Join(dataDir, "logs", FileName(target))
}

// Transcripts caches transcripts in memory and writes each one back as it
// changes
type Transcripts struct {
	dataDir string

	mu    sync.Mutex
	lines map[string][]string
}

// NewTranscripts creates a store rooted at dataDir
func NewTranscripts(dataDir string) *Transcripts {
	return &Transcripts{
		dataDir: dataDir,
		lines:   make(map[string][]string),
	}
}

// Append adds an entry to the transcript of target and saves it
func (t *Transcripts) Append(target, entry string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.get(target)
	if err != nil {
		return err
	}
	lines = Add(lines, entry)
	t.lines[FileName(target)] = lines

	return Save(t.dataDir, target, lines)
}

// Last returns up to n of the newest entries for target
func (t *Transcripts) Last(target string, n int) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines, err := t.get(target)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), Last(lines, n)...), nil
}

func (t *Transcripts) get(target string) ([]string, error) {
	key := FileName(target)
	if lines, ok := t.lines[key]; ok {
		return lines, nil
	}
	lines, err := Load(t.dataDir, target)
	if err != nil {
		return nil, err
	}
	t.lines[key] = lines
	return lines, nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(file, line); err != nil {
			return err
		}
	}
	return nil
}
