package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := InitFile(path); err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}
	defer func() { _ = Close() }()

	if err := LogCertIssued("openssl", "1a", "/CN=example.com", true); err != nil {
		t.Fatalf("LogCertIssued() error = %v", err)
	}
	if err := LogCertRevoked("openssl", "1a", false); err != nil {
		t.Fatalf("LogCertRevoked() error = %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		events = append(events, event)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	issued := events[0]
	if issued.Type != EventCertIssued || issued.Result != ResultSuccess {
		t.Errorf("event = %+v", issued)
	}
	if issued.Backend != "openssl" || issued.Serial != "1a" || issued.Subject != "/CN=example.com" {
		t.Errorf("event fields = %+v", issued)
	}
	if issued.ID == "" || issued.Time.IsZero() {
		t.Error("events need an ID and a timestamp")
	}

	revoked := events[1]
	if revoked.Type != EventCertRevoked || revoked.Result != ResultFailure {
		t.Errorf("event = %+v", revoked)
	}
}

func TestFileWriter_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	for range 2 {
		w, err := NewFileWriter(path)
		if err != nil {
			t.Fatalf("NewFileWriter() error = %v", err)
		}
		if err := w.Write(NewEvent(EventBackendConnected, ResultSuccess)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("got %d lines, want 2; reopening must append", lines)
	}
}

func TestLog_DisabledByDefault(t *testing.T) {
	// The zero state discards events instead of failing.
	Init(nil)
	if err := LogBackendConnected("vault", "http://localhost:8200", true); err != nil {
		t.Errorf("Log() error = %v with auditing disabled", err)
	}
}

func TestInitFile_EmptyPathDisables(t *testing.T) {
	if err := InitFile(""); err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}
	if err := LogSetupCompleted("vault", "pki", true); err != nil {
		t.Errorf("Log() error = %v", err)
	}
}
