package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// JournalEntry is one NDJSON line describing a finished case run
type JournalEntry struct {
	Timestamp string   `json:"ts"`
	Case      string   `json:"case"`
	StateFile string   `json:"state_file"`
	Target    string   `json:"target,omitempty"`
	T1        *float64 `json:"t1,omitempty"`
	T2        *float64 `json:"t2,omitempty"`
	LatencyMS *float64 `json:"latency_ms,omitempty"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Error     string   `json:"error,omitempty"`
}

// JournalWriter appends entries to a journal file
type JournalWriter struct {
	fs   afero.Fs
	path string
	now  func() time.Time
}

// NewJournalWriter creates a writer for path
func NewJournalWriter(fs afero.Fs, path string) *JournalWriter {
	return &JournalWriter{fs: fs, path: path, now: time.Now}
}

// Append normalizes entry and writes it as a single line
func (w *JournalWriter) Append(entry JournalEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = w.now().UTC().Format(time.RFC3339Nano)
	}
	if entry.T1 != nil && entry.T2 != nil && entry.LatencyMS == nil {
		ms := (*entry.T2 - *entry.T1) * 1000
		entry.LatencyMS = &ms
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		// the line is written; durability is best effort
		GetLogger().Warn("failed to fsync journal: %v", err)
	}
	return f.Close()
}
