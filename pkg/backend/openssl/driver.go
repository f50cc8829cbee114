// Package openssl implements the CA backend contract on top of the
// openssl command line tool. Certificates are issued and revoked by
// invoking the tool as a subprocess and reading and writing PEM files
// under a configured root directory, guided by values parsed from the
// tool's own configuration file.
package openssl

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/certmaestro/certmaestro/pkg/audit"
	"github.com/certmaestro/certmaestro/pkg/backend"
	"github.com/certmaestro/certmaestro/pkg/pki"
)

const driverName = "openssl"

// InitParams declares the parameters required to construct the driver.
var InitParams = backend.Params{
	{Name: "command_path", Help: "Path to the openssl binary"},
	{Name: "config_path", Help: "Path to the openssl config file (usually openssl.cnf)"},
	{Name: "root_dir", Help: "Working directory for the OpenSSL files and directories. Relative directory definitions in the config file are resolved against this."},
	{Name: "crl_path", Help: "Path to the Certificate Revocation List file (usually crl.pem)"},
}

// SetupParams is empty: a file-based authority is provisioned by an
// operator before this driver ever sees it.
var SetupParams = backend.Params{}

// Driver runs the openssl binary against a pre-provisioned CA directory.
//
// Driver is not safe for concurrent mutating use: subprocess invocations
// against the same root directory share the serial counter and the
// certificate index maintained by the external tool. Callers must
// serialize IssueCert and RevokeCert per root directory. Read-only calls
// may run concurrently with each other, but not with a mutating call.
type Driver struct {
	commandPath string
	configPath  string
	rootDir     string
	crlPath     string
	cnf         *Config
	run         Runner
}

var _ backend.Backend = (*Driver)(nil)

// New validates the driver configuration and parses the openssl config
// file once. Construction is all-or-nothing; any failed precondition
// returns an error wrapping backend.ErrConfiguration and no instance.
// The parsed config is held for the instance lifetime, so config edits
// require constructing a new driver.
func New(commandPath, configPath, rootDir, crlPath string) (*Driver, error) {
	return NewWithRunner(commandPath, configPath, rootDir, crlPath, ExecRunner{})
}

// NewWithRunner is New with a custom subprocess runner.
func NewWithRunner(commandPath, configPath, rootDir, crlPath string, run Runner) (*Driver, error) {
	if err := checkSetup(commandPath, configPath, rootDir, crlPath); err != nil {
		return nil, backend.NewError(driverName, "init", err)
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, backend.NewError(driverName, "init", fmt.Errorf("%w: cannot open config file: %v", backend.ErrConfiguration, err))
	}
	defer func() { _ = f.Close() }()

	cnf, err := ParseConfig(f, nil)
	if err != nil {
		return nil, backend.NewError(driverName, "init", fmt.Errorf("failed to parse %s: %w", configPath, err))
	}

	d := &Driver{
		commandPath: commandPath,
		configPath:  configPath,
		rootDir:     rootDir,
		crlPath:     crlPath,
		cnf:         cnf,
		run:         run,
	}
	if err := audit.LogBackendConnected(driverName, rootDir, true); err != nil {
		return nil, err
	}
	return d, nil
}

// checkSetup verifies every construction precondition in order, naming
// the failed one.
func checkSetup(commandPath, configPath, rootDir, crlPath string) error {
	info, err := os.Stat(commandPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: openssl command not found", backend.ErrConfiguration)
	}
	if err := unix.Access(commandPath, unix.X_OK); err != nil {
		return fmt.Errorf("%w: openssl command is not executable", backend.ErrConfiguration)
	}

	info, err = os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: root_dir doesn't exist", backend.ErrConfiguration)
	}
	if err := unix.Access(rootDir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf(`%w: root_dir should have "rwx" permissions`, backend.ErrConfiguration)
	}

	if info, err := os.Stat(configPath); err != nil || info.IsDir() {
		return fmt.Errorf("%w: config path is not a file", backend.ErrConfiguration)
	}
	if info, err := os.Stat(crlPath); err != nil || info.IsDir() {
		return fmt.Errorf("%w: crl path is not a file", backend.ErrConfiguration)
	}
	return nil
}

// Name returns the official backend name.
func (d *Driver) Name() string { return "OpenSSL" }

// Description returns a one-line description of the backend.
func (d *Driver) Description() string {
	return "Command line tools with openssl.cnf, https://www.openssl.org"
}

// Threadsafe reports that this driver requires external serialization.
func (d *Driver) Threadsafe() bool { return false }

// Config section lookups are re-derived on every access so file edits
// made between calls by the external tool are still reflected.

func (d *Driver) caSection() (Section, error) {
	name := d.cnf.Get("ca", "default_ca")
	if name == "" {
		return nil, fmt.Errorf("config has no ca.default_ca entry")
	}
	sec := d.cnf.Section(name)
	if sec == nil {
		return nil, fmt.Errorf("config has no [%s] section", name)
	}
	return sec, nil
}

func (d *Driver) distinguishedNameSection() (Section, error) {
	name := d.cnf.Get("req", "distinguished_name")
	if name == "" {
		return nil, fmt.Errorf("config has no req.distinguished_name entry")
	}
	sec := d.cnf.Section(name)
	if sec == nil {
		return nil, fmt.Errorf("config has no [%s] section", name)
	}
	return sec, nil
}

func (d *Driver) policySection() (Section, error) {
	caSec, err := d.caSection()
	if err != nil {
		return nil, err
	}
	name := caSec.Get("policy")
	if name == "" {
		return nil, fmt.Errorf("config has no policy entry in the CA section")
	}
	sec := d.cnf.Section(name)
	if sec == nil {
		return nil, fmt.Errorf("config has no [%s] section", name)
	}
	return sec, nil
}

func (d *Driver) newCertsDir() (string, error) {
	caSec, err := d.caSection()
	if err != nil {
		return "", err
	}
	return filepath.Join(d.rootDir, caSec.Get("new_certs_dir")), nil
}

func (d *Driver) certsDir() (string, error) {
	caSec, err := d.caSection()
	if err != nil {
		return "", err
	}
	if dir := caSec.Get("certs"); dir != "" {
		return filepath.Join(d.rootDir, dir), nil
	}
	return filepath.Join(d.rootDir, caSec.Get("dir"), "certs"), nil
}

// ValidateSetup always fails: provisioning a file-based authority is an
// operator task outside this driver.
func (d *Driver) ValidateSetup(map[string]string) error {
	return backend.NewError(driverName, "validate-setup", backend.ErrNotSupported)
}

// Setup always fails, see ValidateSetup.
func (d *Driver) Setup(map[string]string) error {
	return backend.NewError(driverName, "setup", backend.ErrNotSupported)
}

// CACert returns the authority certificate named by the CA section.
func (d *Driver) CACert() (*pki.Certificate, error) {
	caSec, err := d.caSection()
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	cert, err := pki.LoadCertificate(filepath.Join(d.rootDir, caSec.Get("certificate")))
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	return cert, nil
}

// adaptPolicy maps an openssl policy value to a CSR policy. Unrecognized
// values yield no mapping instead of an error.
func adaptPolicy(value string) (pki.CSRPolicy, bool) {
	switch strings.ToLower(value) {
	case "supplied":
		return pki.PolicyRequired, true
	case "match":
		return pki.PolicyFromCA, true
	case "optional":
		return pki.PolicyOptional, true
	default:
		return 0, false
	}
}

// policyOptions maps subject field names to their openssl policy keys.
var policyOptions = map[string]string{
	pki.FieldCommonName: "commonName",
	pki.FieldCountry:    "countryName",
	pki.FieldState:      "stateOrProvinceName",
	pki.FieldLocality:   "localityName",
	pki.FieldOrgName:    "organizationName",
	pki.FieldOrgUnit:    "organizationalUnitName",
	pki.FieldEmail:      "emailAddress",
}

// CSRPolicies derives the per-field request policy from the policy
// section of the tool configuration. Fields with unrecognized values are
// left out of the result.
func (d *Driver) CSRPolicies() (pki.CSRPolicies, error) {
	sec, err := d.policySection()
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	policies := make(pki.CSRPolicies)
	for field, option := range policyOptions {
		if policy, ok := adaptPolicy(sec.Get(option)); ok {
			policies[field] = policy
		}
	}
	return policies, nil
}

// CSRDefaults returns the per-field default values declared in the
// distinguished-name section.
func (d *Driver) CSRDefaults() (map[string]string, error) {
	sec, err := d.distinguishedNameSection()
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	defaults := make(map[string]string, len(policyOptions))
	for field, option := range policyOptions {
		defaults[field] = sec.Get(option + "_default")
	}
	return defaults, nil
}

// openssl invokes a main command of the configured binary with the
// driver's config file.
func (d *Driver) openssl(mainCommand string, stdin string, params ...string) (string, error) {
	args := append([]string{mainCommand, "-config", d.configPath}, params...)
	var in io.Reader
	if stdin != "" {
		in = strings.NewReader(stdin)
	}
	return d.run.Run(d.commandPath, in, args...)
}

const keyEndMarker = "-----END PRIVATE KEY-----"

// splitKeyAndCSR splits the combined req output into the private key
// block (end marker inclusive) and the CSR block that follows the next
// newline. The tool is assumed to emit exactly one key block then one
// CSR block with nothing interleaved.
func splitKeyAndCSR(blob string) (keyPEM, csrPEM string, err error) {
	idx := strings.Index(blob, keyEndMarker)
	if idx < 0 {
		return "", "", fmt.Errorf("no private key block in tool output")
	}
	end := idx + len(keyEndMarker)
	keyPEM = blob[:end]
	rest := blob[end:]
	rest = strings.TrimPrefix(rest, "\n")
	if !strings.Contains(rest, "-----BEGIN CERTIFICATE REQUEST-----") {
		return "", "", fmt.Errorf("no certificate request block in tool output")
	}
	return keyPEM, rest, nil
}

// IssueCert generates a key and CSR in one tool invocation, signs the
// CSR in a second, and persists the resulting pair under the certs
// directory as <hexSerial>.pem and <hexSerial>.key.
//
// There is no transactional rollback: a failure in the signing step
// leaves nothing behind because persistence happens last, but whatever
// index state the external tool already wrote stays as written.
func (d *Driver) IssueCert(req *pki.Request) (*pki.PrivateKey, *pki.Certificate, error) {
	keyAndCSR, err := d.openssl("req", "", "-newkey", "rsa", "-nodes", "-subj", req.Subject())
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}
	keyPEM, csrPEM, err := splitKeyAndCSR(keyAndCSR)
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}

	certPEM, err := d.openssl("ca", csrPEM, "-batch", "-notext", "-in", "/dev/stdin")
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}

	cert, err := pki.NewCertificate(certPEM)
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}
	serialHex := cert.Serial().Hex()

	if err := d.savePEM(certPEM, serialHex+".pem"); err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}
	if err := d.savePEM(keyPEM, serialHex+".key"); err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}

	key, err := pki.NewPrivateKey(keyPEM)
	if err != nil {
		return nil, nil, backend.NewError(driverName, "issue", err)
	}
	if err := audit.LogCertIssued(driverName, serialHex, req.Subject(), true); err != nil {
		return nil, nil, err
	}
	return key, cert, nil
}

func (d *Driver) savePEM(pemData, filename string) error {
	dir, err := d.certsDir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), []byte(pemData), 0644)
}

// RevokeCert revokes an issued certificate through the tool's ca
// subcommand. The serial is accepted in any representation.
func (d *Driver) RevokeCert(serial string) (*pki.RevokedCert, error) {
	sn, err := pki.ParseSerial(serial)
	if err != nil {
		return nil, backend.NewError(driverName, "revoke", err)
	}
	certPath, err := d.certPath(sn)
	if err != nil {
		return nil, backend.NewError(driverName, "revoke", err)
	}
	if _, err := os.Stat(certPath); err != nil {
		return nil, backend.NewError(driverName, "revoke",
			fmt.Errorf("%w: serial %s", backend.ErrCertNotFound, sn.Hex()))
	}

	if _, err := d.openssl("ca", "", "-revoke", certPath); err != nil {
		return nil, backend.NewError(driverName, "revoke", err)
	}
	if err := audit.LogCertRevoked(driverName, sn.Hex(), true); err != nil {
		return nil, err
	}
	return &pki.RevokedCert{Serial: sn, RevokedAt: time.Now().UTC()}, nil
}

func (d *Driver) certPath(sn pki.SerialNumber) (string, error) {
	dir, err := d.newCertsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sn.Hex()+".pem"), nil
}

// GetCert looks up a certificate file by its normalized hex serial.
func (d *Driver) GetCert(serial string) (*pki.Certificate, error) {
	sn, err := pki.ParseSerial(serial)
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	path, err := d.certPath(sn)
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	cert, err := pki.LoadCertificate(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, backend.NewError(driverName, "get",
			fmt.Errorf("%w: serial %s", backend.ErrCertNotFound, sn.Hex()))
	}
	if err != nil {
		return nil, backend.NewError(driverName, "get", err)
	}
	return cert, nil
}

// ListCerts lazily enumerates every PEM file in the new-certs directory,
// non-recursively, in directory order. An unparsable file surfaces as an
// error instead of being skipped.
func (d *Driver) ListCerts() iter.Seq2[*pki.Certificate, error] {
	return func(yield func(*pki.Certificate, error) bool) {
		dir, err := d.newCertsDir()
		if err != nil {
			yield(nil, backend.NewError(driverName, "list", err))
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			yield(nil, backend.NewError(driverName, "list", err))
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			cert, err := pki.LoadCertificate(filepath.Join(dir, entry.Name()))
			if err != nil {
				yield(nil, backend.NewError(driverName, "list", err))
				return
			}
			if !yield(cert, nil) {
				return
			}
		}
	}
}

// CRL returns the revocation list file the driver was configured with.
func (d *Driver) CRL() (*pki.CRL, error) {
	crl, err := pki.LoadCRL(d.crlPath)
	if err != nil {
		return nil, backend.NewError(driverName, "crl", err)
	}
	return crl, nil
}

// Version runs the tool's version subcommand, trailing newline stripped.
func (d *Driver) Version() (string, error) {
	out, err := d.run.Run(d.commandPath, nil, "version")
	if err != nil {
		return "", backend.NewError(driverName, "version", err)
	}
	return strings.TrimSuffix(out, "\n"), nil
}
