// Package audit records certificate-authority operations as JSONL
// events. It is the operational log surface of the module: backends
// report connections, issuance, revocation and provisioning through the
// package-level writer.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of an audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event types.
const (
	EventBackendConnected = "backend.connected"
	EventCertIssued       = "cert.issued"
	EventCertRevoked      = "cert.revoked"
	EventSetupCompleted   = "setup.completed"
)

// Event is a single audit record.
type Event struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Type    string    `json:"type"`
	Result  Result    `json:"result"`
	Backend string    `json:"backend,omitempty"`
	Serial  string    `json:"serial,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// NewEvent creates an event with a fresh ID and timestamp.
func NewEvent(eventType string, result Result) *Event {
	return &Event{
		ID:     uuid.NewString(),
		Time:   time.Now().UTC(),
		Type:   eventType,
		Result: result,
	}
}

// Writer persists audit events.
type Writer interface {
	Write(event *Event) error
	Close() error
}

// NopWriter discards all events.
type NopWriter struct{}

func (NopWriter) Write(*Event) error { return nil }
func (NopWriter) Close() error       { return nil }

var (
	globalMu     sync.RWMutex
	globalWriter Writer = NopWriter{}
)

// Init installs the given writer as the global audit destination.
// A nil writer disables auditing.
func Init(w Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if w == nil {
		globalWriter = NopWriter{}
		return
	}
	globalWriter = w
}

// InitFile installs a file-backed writer at the given path. An empty
// path disables auditing.
func InitFile(path string) error {
	if path == "" {
		Init(nil)
		return nil
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	Init(w)
	return nil
}

// Close closes the global writer and disables auditing.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	err := globalWriter.Close()
	globalWriter = NopWriter{}
	return err
}

// Log writes an event through the global writer. When auditing is
// enabled a write failure should fail the parent operation; callers
// propagate the returned error.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()

	if err := w.Write(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

func result(success bool) Result {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// LogBackendConnected logs a successful or failed backend construction.
func LogBackendConnected(backend, detail string, success bool) error {
	event := NewEvent(EventBackendConnected, result(success))
	event.Backend = backend
	event.Detail = detail
	return Log(event)
}

// LogCertIssued logs a certificate issuance.
func LogCertIssued(backend, serial, subject string, success bool) error {
	event := NewEvent(EventCertIssued, result(success))
	event.Backend = backend
	event.Serial = serial
	event.Subject = subject
	return Log(event)
}

// LogCertRevoked logs a certificate revocation.
func LogCertRevoked(backend, serial string, success bool) error {
	event := NewEvent(EventCertRevoked, result(success))
	event.Backend = backend
	event.Serial = serial
	return Log(event)
}

// LogSetupCompleted logs first-time provisioning of an authority.
func LogSetupCompleted(backend, detail string, success bool) error {
	event := NewEvent(EventSetupCompleted, result(success))
	event.Backend = backend
	event.Detail = detail
	return Log(event)
}
