// Package backend defines the contract every certificate-authority
// driver satisfies, together with the parameter descriptors used to
// validate driver configuration.
//
// A driver instance is constructed once from validated parameters and
// stays usable for the process lifetime; construction is the single
// point that can fail. Callers select a driver at configuration time
// and never inspect the concrete type at call sites.
package backend

import (
	"iter"

	"github.com/certmaestro/certmaestro/pkg/pki"
)

// Backend is the capability set shared by all CA drivers.
type Backend interface {
	// Name is the official name of the backend.
	Name() string

	// Description is a one-line description of the backend.
	Description() string

	// Threadsafe reports whether the backend may be used from multiple
	// goroutines without external locking.
	Threadsafe() bool

	// ValidateSetup checks whether first-time provisioning would
	// succeed. It never mutates backend state. ErrSetupConflict is
	// returned when provisioning would overwrite existing state.
	ValidateSetup(params map[string]string) error

	// Setup performs first-time provisioning. Drivers whose authority
	// is provisioned externally return ErrNotSupported.
	Setup(params map[string]string) error

	// CACert returns the authority's own certificate.
	CACert() (*pki.Certificate, error)

	// IssueCert creates a key pair and signed certificate for the
	// requested subject and persists it. On success both artifacts are
	// returned; a certificate is never returned without its key.
	IssueCert(req *pki.Request) (*pki.PrivateKey, *pki.Certificate, error)

	// RevokeCert revokes the certificate with the given serial number,
	// accepted in any textual representation. ErrCertNotFound is
	// returned when no such certificate was issued.
	RevokeCert(serial string) (*pki.RevokedCert, error)

	// ListCerts enumerates every certificate known to the authority.
	// The sequence is lazy, finite and effectively single-use; no
	// ordering is guaranteed across drivers.
	ListCerts() iter.Seq2[*pki.Certificate, error]

	// GetCert looks up a single certificate by serial number.
	GetCert(serial string) (*pki.Certificate, error)

	// CRL returns the current certificate revocation list.
	CRL() (*pki.CRL, error)

	// Version returns a human-readable identification of the
	// underlying tool or service. Diagnostics only; never parsed.
	Version() (string, error)
}
