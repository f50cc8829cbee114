// Package config loads the certmaestro configuration file and builds
// the backend it selects. Parameter maps are validated against the
// driver's declared parameter descriptors before construction.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/certmaestro/certmaestro/pkg/backend"
	"github.com/certmaestro/certmaestro/pkg/backend/openssl"
	"github.com/certmaestro/certmaestro/pkg/backend/vault"
)

// DefaultPath is where the configuration file is looked up when the
// caller does not name one.
const DefaultPath = "certmaestro.yaml"

// File is the YAML representation of a certmaestro configuration.
type File struct {
	// Backend names the driver to use: "openssl" or "vault".
	Backend string `yaml:"backend"`

	// OpenSSL holds the local driver parameters.
	OpenSSL map[string]string `yaml:"openssl,omitempty"`

	// Vault holds the remote driver parameters.
	Vault map[string]string `yaml:"vault,omitempty"`
}

// Load reads and parses a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Backend == "" {
		return nil, fmt.Errorf("%w: %s does not name a backend", backend.ErrConfiguration, path)
	}
	return &f, nil
}

// Build constructs the configured backend. Parameters are validated
// against the driver's InitParams: defaults applied, required values
// enforced.
func (f *File) Build() (backend.Backend, error) {
	switch f.Backend {
	case "openssl":
		params, err := openssl.InitParams.Apply(f.OpenSSL)
		if err != nil {
			return nil, err
		}
		return openssl.New(
			params["command_path"],
			params["config_path"],
			params["root_dir"],
			params["crl_path"],
		)
	case "vault":
		params, err := vault.InitParams.Apply(f.Vault)
		if err != nil {
			return nil, err
		}
		return vault.New(
			params["url"],
			params["token"],
			params["mount_point"],
			params["role"],
		)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", backend.ErrConfiguration, f.Backend)
	}
}

// SetupParams returns the first-time provisioning parameter declarations
// of the configured backend.
func (f *File) SetupParams() (backend.Params, error) {
	switch f.Backend {
	case "openssl":
		return openssl.SetupParams, nil
	case "vault":
		return vault.SetupParams, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", backend.ErrConfiguration, f.Backend)
	}
}

// InitParams returns the connection parameter declarations of the
// configured backend.
func (f *File) InitParams() (backend.Params, error) {
	switch f.Backend {
	case "openssl":
		return openssl.InitParams, nil
	case "vault":
		return vault.InitParams, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", backend.ErrConfiguration, f.Backend)
	}
}

// BackendParams returns the raw parameter map for the configured
// backend.
func (f *File) BackendParams() map[string]string {
	switch f.Backend {
	case "openssl":
		return f.OpenSSL
	case "vault":
		return f.Vault
	default:
		return nil
	}
}
