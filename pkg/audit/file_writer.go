package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileWriter appends audit events to a JSONL file, one event per line.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
	path string
}

var _ Writer = (*FileWriter)(nil)

// NewFileWriter opens or creates the audit log at path in append mode.
func NewFileWriter(path string) (*FileWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileWriter{file: file, path: path}, nil
}

// Write appends one event as a JSON line.
func (w *FileWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
