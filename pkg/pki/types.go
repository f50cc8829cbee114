// Package pki holds the PEM-bearing value objects exchanged with CA
// backends: certificates, private keys, revocation lists and the serial
// number codec. The package never performs cryptographic operations;
// signing and key generation are delegated to the backend drivers.
package pki

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"
)

// Certificate wraps a PEM-encoded X.509 certificate.
type Certificate struct {
	pemText string
	cert    *x509.Certificate
}

// NewCertificate parses a certificate from PEM text.
func NewCertificate(pemText string) (*Certificate, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return &Certificate{pemText: pemText, cert: cert}, nil
}

// LoadCertificate reads a certificate from a PEM file.
func LoadCertificate(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	cert, err := NewCertificate(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cert, nil
}

// PEM returns the certificate PEM text as given at construction.
func (c *Certificate) PEM() string {
	return c.pemText
}

// Serial returns the certificate serial number.
func (c *Certificate) Serial() SerialNumber {
	return NewSerial(c.cert.SerialNumber)
}

// Subject returns the subject DN in RFC 2253 form.
func (c *Certificate) Subject() string {
	return c.cert.Subject.String()
}

// CommonName returns the subject common name.
func (c *Certificate) CommonName() string {
	return c.cert.Subject.CommonName
}

// NotAfter returns the end of the validity period.
func (c *Certificate) NotAfter() time.Time {
	return c.cert.NotAfter
}

// X509 returns the parsed certificate.
func (c *Certificate) X509() *x509.Certificate {
	return c.cert
}

// PrivateKey wraps a PEM-encoded private key. The key material is opaque
// to this package; it is produced by a backend and handed back to the
// caller without inspection.
type PrivateKey struct {
	pemText string
}

// NewPrivateKey wraps private key PEM text. The text must contain at
// least one PEM block but the key itself is not parsed.
func NewPrivateKey(pemText string) (*PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || !strings.Contains(block.Type, "PRIVATE KEY") {
		return nil, fmt.Errorf("no private key PEM block found")
	}
	return &PrivateKey{pemText: pemText}, nil
}

// PEM returns the private key PEM text.
func (k *PrivateKey) PEM() string {
	return k.pemText
}

// CRL wraps a PEM-encoded certificate revocation list.
type CRL struct {
	pemText string
	list    *x509.RevocationList
}

// NewCRL parses a revocation list from PEM text.
func NewCRL(pemText string) (*CRL, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil || block.Type != "X509 CRL" {
		return nil, fmt.Errorf("no CRL PEM block found")
	}
	list, err := x509.ParseRevocationList(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRL: %w", err)
	}
	return &CRL{pemText: pemText, list: list}, nil
}

// LoadCRL reads a revocation list from a PEM file.
func LoadCRL(path string) (*CRL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CRL file: %w", err)
	}
	crl, err := NewCRL(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return crl, nil
}

// PEM returns the CRL PEM text.
func (c *CRL) PEM() string {
	return c.pemText
}

// RevokedSerials returns the serial numbers listed in the CRL.
func (c *CRL) RevokedSerials() []SerialNumber {
	serials := make([]SerialNumber, 0, len(c.list.RevokedCertificateEntries))
	for _, entry := range c.list.RevokedCertificateEntries {
		serials = append(serials, NewSerial(entry.SerialNumber))
	}
	return serials
}

// NextUpdate returns the time by which a fresher CRL should be published.
func (c *CRL) NextUpdate() time.Time {
	return c.list.NextUpdate
}

// RevokedCert records the outcome of a revocation.
type RevokedCert struct {
	Serial    SerialNumber
	RevokedAt time.Time
}
