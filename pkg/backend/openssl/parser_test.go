package openssl

import (
	"errors"
	"strings"
	"testing"
)

func TestParseConfig_Interpolation(t *testing.T) {
	doc := `
[ ca ]
default_ca = CA_default

[ CA_default ]
certs = $dir/certs
new_certs_dir = ${dir}/newcerts
`
	cfg, err := ParseConfig(strings.NewReader(doc), map[string]string{"dir": "/ca/root"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if got := cfg.Get("CA_default", "certs"); got != "/ca/root/certs" {
		t.Errorf("certs = %q, want /ca/root/certs", got)
	}
	if got := cfg.Get("CA_default", "new_certs_dir"); got != "/ca/root/newcerts" {
		t.Errorf("new_certs_dir = %q, want /ca/root/newcerts", got)
	}
}

func TestParseConfig_InterpolationAgainstDefaultsOnly(t *testing.T) {
	// $certs must not resolve against the option's own section, only
	// against the defaults mapping.
	doc := `
[ sec ]
certs = /somewhere
other = $certs
`
	_, err := ParseConfig(strings.NewReader(doc), nil)
	var missing *MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("ParseConfig() error = %v, want MissingVariableError", err)
	}
	if missing.Variable != "certs" {
		t.Errorf("Variable = %q, want certs", missing.Variable)
	}
}

func TestParseConfig_MissingVariable(t *testing.T) {
	doc := "[ sec ]\nvalue = $nope\n"
	_, err := ParseConfig(strings.NewReader(doc), map[string]string{"dir": "/x"})
	var missing *MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("ParseConfig() error = %v, want MissingVariableError", err)
	}
}

func TestParseConfig_SyntaxError(t *testing.T) {
	for _, doc := range []string{
		"[ sec ]\nvalue = foo$\n",
		"[ sec ]\nvalue = foo$ bar\n",
		"[ sec ]\nvalue = ${dir\n",
	} {
		_, err := ParseConfig(strings.NewReader(doc), map[string]string{"dir": "/x"})
		var syntax *SyntaxError
		if !errors.As(err, &syntax) {
			t.Errorf("ParseConfig(%q) error = %v, want SyntaxError", doc, err)
		}
	}
}

func TestParseConfig_SectionHeaderWhitespace(t *testing.T) {
	spaced, err := ParseConfig(strings.NewReader("[  ca  ]\ndefault_ca = CA_default\n"), nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	tight, err := ParseConfig(strings.NewReader("[ca]\ndefault_ca = CA_default\n"), nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if spaced.Get("ca", "default_ca") != tight.Get("ca", "default_ca") {
		t.Error("[  ca  ] should parse identically to [ca]")
	}
	if !spaced.HasSection("ca") {
		t.Error("section ca missing")
	}
}

func TestParseConfig_PreambleDefaults(t *testing.T) {
	doc := `
dir = /ca/root

[ sec ]
certs = $dir/certs
`
	cfg, err := ParseConfig(strings.NewReader(doc), nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if got := cfg.Get("sec", "certs"); got != "/ca/root/certs" {
		t.Errorf("certs = %q, want /ca/root/certs", got)
	}
	if cfg.Defaults()["dir"] != "/ca/root" {
		t.Errorf("preamble key not in defaults: %v", cfg.Defaults())
	}
}

func TestParseConfig_CommentsAndBlanks(t *testing.T) {
	doc := `
# leading comment
; another comment

[ sec ]
# inside section
key = value
`
	cfg, err := ParseConfig(strings.NewReader(doc), nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if got := cfg.Get("sec", "key"); got != "value" {
		t.Errorf("key = %q, want value", got)
	}
}

func TestParseConfig_IndependentResults(t *testing.T) {
	doc := "[ sec ]\nkey = one\n"
	first, err := ParseConfig(strings.NewReader(doc), nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	second, err := ParseConfig(strings.NewReader("[ sec ]\nkey = two\n"), nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if first.Get("sec", "key") != "one" || second.Get("sec", "key") != "two" {
		t.Error("parses should be independent of each other")
	}
}
