package backend

import (
	"errors"
	"fmt"
)

// Error wraps a backend operation failure with structured context.
// It supports errors.Is() and errors.As() through Unwrap.
type Error struct {
	Backend string // Driver name: "openssl", "vault"
	Op      string // Operation: "init", "setup", "issue", "revoke", "get", "list", "crl", "version"
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s backend %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error with the given driver name, operation and
// underlying error.
func NewError(backend, op string, err error) *Error {
	return &Error{Backend: backend, Op: op, Err: err}
}

// Sentinel errors for backend operations.
// Use errors.Is() to check for these through the error chain.
var (
	// ErrConfiguration indicates invalid driver configuration detected
	// at construction: a missing executable, directory or file. Fatal
	// to the instance being built.
	ErrConfiguration = errors.New("invalid backend configuration")

	// ErrSetupConflict indicates that provisioning would overwrite
	// existing state. The caller decides how to proceed.
	ErrSetupConflict = errors.New("setup would overwrite existing state")

	// ErrCertNotFound indicates the requested certificate was not found.
	ErrCertNotFound = errors.New("certificate not found")

	// ErrNotSupported indicates an operation the driver does not
	// implement, such as provisioning an externally managed authority.
	ErrNotSupported = errors.New("operation not supported by this backend")
)
