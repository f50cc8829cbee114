package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/certmaestro/certmaestro/pkg/backend"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "certmaestro.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend: vault
vault:
  url: http://localhost:8200
  token: s.abc
  role: web
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Backend != "vault" {
		t.Errorf("Backend = %q, want vault", f.Backend)
	}
	if f.Vault["token"] != "s.abc" {
		t.Errorf("Vault[token] = %q", f.Vault["token"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "backend: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoad_NoBackend(t *testing.T) {
	path := writeConfig(t, "openssl:\n  root_dir: /ca\n")
	_, err := Load(path)
	if !errors.Is(err, backend.ErrConfiguration) {
		t.Fatalf("Load() error = %v, want ErrConfiguration", err)
	}
}

func TestFile_Build_UnknownBackend(t *testing.T) {
	f := &File{Backend: "letsencrypt"}
	if _, err := f.Build(); !errors.Is(err, backend.ErrConfiguration) {
		t.Fatalf("Build() error = %v, want ErrConfiguration", err)
	}
}

func TestFile_Build_ValidatesParams(t *testing.T) {
	// The vault driver requires a token; Build must fail before any
	// connection attempt.
	f := &File{Backend: "vault", Vault: map[string]string{"role": "web"}}
	if _, err := f.Build(); !errors.Is(err, backend.ErrConfiguration) {
		t.Fatalf("Build() error = %v, want ErrConfiguration", err)
	}

	f = &File{Backend: "openssl", OpenSSL: map[string]string{}}
	if _, err := f.Build(); !errors.Is(err, backend.ErrConfiguration) {
		t.Fatalf("Build() error = %v, want ErrConfiguration", err)
	}
}

func TestFile_ParamAccessors(t *testing.T) {
	f := &File{Backend: "openssl", OpenSSL: map[string]string{"root_dir": "/ca"}}

	initParams, err := f.InitParams()
	if err != nil {
		t.Fatalf("InitParams() error = %v", err)
	}
	if len(initParams) == 0 {
		t.Error("openssl should declare init params")
	}

	setupParams, err := f.SetupParams()
	if err != nil {
		t.Fatalf("SetupParams() error = %v", err)
	}
	if len(setupParams) != 0 {
		t.Errorf("openssl should declare no setup params, got %v", setupParams)
	}

	if got := f.BackendParams(); got["root_dir"] != "/ca" {
		t.Errorf("BackendParams() = %v", got)
	}

	f.Backend = "nope"
	if _, err := f.InitParams(); !errors.Is(err, backend.ErrConfiguration) {
		t.Errorf("InitParams() error = %v, want ErrConfiguration", err)
	}
	if f.BackendParams() != nil {
		t.Error("BackendParams() should be nil for an unknown backend")
	}
}
