// Package vault implements the CA backend contract against a remote
// Vault-style PKI service over authenticated HTTP.
package vault

import (
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/certmaestro/certmaestro/pkg/audit"
	"github.com/certmaestro/certmaestro/pkg/backend"
	"github.com/certmaestro/certmaestro/pkg/pki"
)

const driverName = "vault"

// Sentinel errors for remote connectivity.
var (
	// ErrCannotConnect indicates a network-layer failure reaching the
	// remote authority.
	ErrCannotConnect = errors.New("could not connect to the remote authority; check address and credentials")

	// ErrInvalidCredentials indicates the authority rejected the token.
	ErrInvalidCredentials = errors.New("invalid connection credentials")
)

// InitParams declares the parameters required to construct the driver.
var InitParams = backend.Params{
	{Name: "url", Default: "http://localhost:8200", Help: "URL of the Vault server"},
	{Name: "token", Help: "Token for accessing Vault"},
	{Name: "mount_point", Default: "pki", Help: "Mount point of the 'pki' secret backend"},
	{Name: "role", Help: "Role issuing certificates"},
}

// SetupParams declares the parameters required for first-time
// provisioning.
var SetupParams = backend.Params{
	{Name: "common_name", Help: "Common Name for the root certificate"},
	{Name: "allowed_domains", Help: "Allowed domains"},
	{Name: "max_lease_ttl", Default: "87600", Convert: backend.Int, Help: "Max lease TTL (hours)"},
	{Name: "allow_subdomains", Default: "true", Convert: backend.Bool, Help: "Allow subdomains?"},
	{Name: "role_max_ttl", Default: "72", Convert: backend.Int, Help: "Role max TTL (hours)"},
}

// Driver talks to a remote PKI secret engine. Every operation is an
// independent, stateless HTTP exchange, so the driver is safe for
// concurrent use without external locking.
type Driver struct {
	client     *client
	mountPoint string
	role       string
}

var _ backend.Backend = (*Driver)(nil)

// New validates the connection parameters and probes authentication.
// Transport failures are remapped to ErrCannotConnect and a rejected
// token to ErrInvalidCredentials; raw transport errors never escape.
func New(rawURL, token, mountPoint, role string) (*Driver, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, backend.NewError(driverName, "init",
			fmt.Errorf("%w: URL needs to start with http:// or https://", backend.ErrConfiguration))
	}

	d := &Driver{
		client: newClient(rawURL, token),
		// Trailing slash stripped so paths compose consistently.
		mountPoint: strings.TrimSuffix(mountPoint, "/"),
		role:       role,
	}

	authenticated, err := d.client.tokenValid()
	if err != nil {
		return nil, backend.NewError(driverName, "init", ErrCannotConnect)
	}
	if !authenticated {
		return nil, backend.NewError(driverName, "init", ErrInvalidCredentials)
	}

	if err := audit.LogBackendConnected(driverName, rawURL, true); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the official backend name.
func (d *Driver) Name() string { return "Vault" }

// Description returns a one-line description of the backend.
func (d *Driver) Description() string {
	return "Hashicorp's Vault: https://www.vaultproject.io"
}

// Threadsafe reports that concurrent calls are safe.
func (d *Driver) Threadsafe() bool { return true }

func (d *Driver) path(parts ...string) string {
	return d.mountPoint + "/" + strings.Join(parts, "/")
}

// ValidateSetup checks that the configured mount point is not already
// registered as a secret backend. It never mutates remote state.
func (d *Driver) ValidateSetup(map[string]string) error {
	mounts, err := d.client.listMounts()
	if err != nil {
		return backend.NewError(driverName, "validate-setup", err)
	}
	if _, exists := mounts[d.mountPoint+"/"]; exists {
		return backend.NewError(driverName, "validate-setup",
			fmt.Errorf("%w: secret backend %q already exists", backend.ErrSetupConflict, d.mountPoint))
	}
	return nil
}

// Setup provisions the authority: enable the pki engine, tune its
// maximum lease TTL, generate the internal root certificate and create
// the issuance role. Each step is one HTTP write and there is no
// compensating rollback; a mid-sequence failure leaves the earlier
// steps applied and observable to operators.
func (d *Driver) Setup(params map[string]string) error {
	applied, err := SetupParams.Apply(params)
	if err != nil {
		return backend.NewError(driverName, "setup", err)
	}
	maxLeaseTTL, _ := strconv.Atoi(applied["max_lease_ttl"])
	roleMaxTTL, _ := strconv.Atoi(applied["role_max_ttl"])
	allowSubdomains, _ := backend.Bool(applied["allow_subdomains"])

	if err := d.client.write("sys/mounts/"+d.mountPoint, map[string]any{"type": "pki"}, nil); err != nil {
		return backend.NewError(driverName, "setup", err)
	}

	ttl := fmt.Sprintf("%dh", maxLeaseTTL)
	if err := d.client.write("sys/mounts/"+d.mountPoint+"/tune", map[string]any{"max_lease_ttl": ttl}, nil); err != nil {
		return backend.NewError(driverName, "setup", err)
	}

	if err := d.client.write(d.path("root", "generate", "internal"), map[string]any{
		"common_name": applied["common_name"],
		"ttl":         ttl,
	}, nil); err != nil {
		return backend.NewError(driverName, "setup", err)
	}

	if err := d.client.write(d.path("roles", d.role), map[string]any{
		"max_ttl":          fmt.Sprintf("%dh", roleMaxTTL),
		"allowed_domains":  applied["allowed_domains"],
		"allow_subdomains": allowSubdomains,
	}, nil); err != nil {
		return backend.NewError(driverName, "setup", err)
	}

	return audit.LogSetupCompleted(driverName, d.mountPoint, true)
}

// CACert returns the authority's own certificate.
func (d *Driver) CACert() (*pki.Certificate, error) {
	var resp certResponse
	if err := d.client.read(d.path("cert", "ca"), &resp); err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	cert, err := pki.NewCertificate(resp.Data.Certificate)
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	return cert, nil
}

// CSRPolicies reports the remote authority's fixed subject policy: the
// common name is required, every other field is optional.
func (d *Driver) CSRPolicies() (pki.CSRPolicies, error) {
	policies := make(pki.CSRPolicies, len(pki.SubjectFields))
	for _, field := range pki.SubjectFields {
		policies[field] = pki.PolicyOptional
	}
	policies[pki.FieldCommonName] = pki.PolicyRequired
	return policies, nil
}

// CSRDefaults reports that the remote authority supplies no subject
// defaults.
func (d *Driver) CSRDefaults() (map[string]string, error) {
	defaults := make(map[string]string, len(pki.SubjectFields))
	for _, field := range pki.SubjectFields {
		defaults[field] = ""
	}
	return defaults, nil
}

// IssueCert requests a key pair and certificate from the issuance role.
func (d *Driver) IssueCert(req *pki.Request) (*pki.PrivateKey, *pki.Certificate, error) {
	var resp issueResponse
	err := d.client.write(d.path("issue", d.role), map[string]any{
		"common_name": req.CommonName,
	}, &resp)
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}

	key, err := pki.NewPrivateKey(resp.Data.PrivateKey)
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}
	cert, err := pki.NewCertificate(resp.Data.Certificate)
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}
	if err := audit.LogCertIssued(driverName, cert.Serial().Hex(), req.CommonName, true); err != nil {
		return nil, nil, err
	}
	return key, cert, nil
}

// RevokeCert revokes by serial number, normalized to the wire form the
// remote protocol expects.
func (d *Driver) RevokeCert(serial string) (*pki.RevokedCert, error) {
	sn, err := pki.ParseSerial(serial)
	if err != nil {
		return nil, backend.NewError(driverName, "revoke", err)
	}

	var resp revokeResponse
	err = d.client.write(d.path("revoke"), map[string]any{"serial_number": sn.String()}, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, backend.NewError(driverName, "revoke",
				fmt.Errorf("%w: serial %s", backend.ErrCertNotFound, sn))
		}
		return nil, backend.NewError(driverName, "revoke", err)
	}
	if err := audit.LogCertRevoked(driverName, sn.Hex(), true); err != nil {
		return nil, err
	}
	return &pki.RevokedCert{
		Serial:    sn,
		RevokedAt: time.Unix(resp.Data.RevocationTime, 0).UTC(),
	}, nil
}

// ListCerts lazily lists the serial identifiers at the certs collection
// endpoint and resolves each one through GetCert.
func (d *Driver) ListCerts() iter.Seq2[*pki.Certificate, error] {
	return func(yield func(*pki.Certificate, error) bool) {
		var resp listResponse
		if err := d.client.list(d.path("certs"), &resp); err != nil {
			yield(nil, backend.NewError(driverName, "list", err))
			return
		}
		for _, serial := range resp.Data.Keys {
			cert, err := d.GetCert(serial)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(cert, nil) {
				return
			}
		}
	}
}

// GetCert looks up a single certificate by normalized serial.
func (d *Driver) GetCert(serial string) (*pki.Certificate, error) {
	sn, err := pki.ParseSerial(serial)
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}

	var resp certResponse
	if err := d.client.read(d.path("cert", sn.String()), &resp); err != nil {
		if isNotFound(err) {
			return nil, backend.NewError(driverName, "get",
				fmt.Errorf("%w: serial %s", backend.ErrCertNotFound, sn))
		}
		return nil, backend.NewError(driverName, "get", err)
	}
	if resp.Data.Certificate == "" {
		return nil, backend.NewError(driverName, "get",
			fmt.Errorf("%w: serial %s", backend.ErrCertNotFound, sn))
	}
	cert, err := pki.NewCertificate(resp.Data.Certificate)
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	return cert, nil
}

// CRL returns the current revocation list.
func (d *Driver) CRL() (*pki.CRL, error) {
	var resp certResponse
	if err := d.client.read(d.path("cert", "crl"), &resp); err != nil {
		return nil, backend.NewError(driverName, "crl", err)
	}
	crl, err := pki.NewCRL(resp.Data.Certificate)
	if err != nil {
		return nil, backend.NewError(driverName, "crl", err)
	}
	return crl, nil
}

// Version reads the service health endpoint and reports the driver name
// with the remote service version.
func (d *Driver) Version() (string, error) {
	health, err := d.client.health()
	if err != nil {
		return "", backend.NewError(driverName, "version", err)
	}
	return d.Name() + " " + health.Version, nil
}

// isNotFound reports whether an API error means the certificate does not
// exist. The remote authority answers 404 on unknown cert paths and 400
// on revoking an unknown serial.
func isNotFound(err error) bool {
	apiErr, ok := err.(*apiError)
	if !ok {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest
}
