package backend

import (
	"errors"
	"testing"
)

var testParams = Params{
	{Name: "url", Default: "http://localhost:8200", Help: "Server URL"},
	{Name: "token", Help: "Access token"},
	{Name: "max_ttl", Default: "72", Convert: Int, Help: "Max TTL (hours)"},
	{Name: "subdomains", Default: "true", Convert: Bool, Help: "Allow subdomains?"},
}

func TestParams_Apply_Defaults(t *testing.T) {
	applied, err := testParams.Apply(map[string]string{"token": "s.abc"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied["url"] != "http://localhost:8200" {
		t.Errorf("url = %q, want default", applied["url"])
	}
	if applied["token"] != "s.abc" {
		t.Errorf("token = %q", applied["token"])
	}
	if applied["max_ttl"] != "72" || applied["subdomains"] != "true" {
		t.Errorf("defaults not applied: %v", applied)
	}
}

func TestParams_Apply_MissingRequired(t *testing.T) {
	_, err := testParams.Apply(map[string]string{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Apply() error = %v, want ErrConfiguration", err)
	}
}

func TestParams_Apply_ConversionFailure(t *testing.T) {
	_, err := testParams.Apply(map[string]string{"token": "s.abc", "max_ttl": "soon"})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Apply() error = %v, want ErrConfiguration", err)
	}
}

func TestParams_Apply_UnknownParameter(t *testing.T) {
	_, err := testParams.Apply(map[string]string{"token": "s.abc", "extra": "x"})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Apply() error = %v, want ErrConfiguration", err)
	}
}

func TestBool(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", "On"} {
		v, err := Bool(s)
		if err != nil || v != true {
			t.Errorf("Bool(%q) = %v, %v; want true", s, v, err)
		}
	}
	for _, s := range []string{"0", "False", "no", "off"} {
		v, err := Bool(s)
		if err != nil || v != false {
			t.Errorf("Bool(%q) = %v, %v; want false", s, v, err)
		}
	}
	if _, err := Bool("maybe"); err == nil {
		t.Error("Bool(maybe) should fail")
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewError("openssl", "get", ErrCertNotFound)
	if !errors.Is(err, ErrCertNotFound) {
		t.Error("errors.Is should see the sentinel through the wrapper")
	}
	if err.Error() != "openssl backend get: certificate not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
