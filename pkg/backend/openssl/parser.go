package openssl

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// sectionRegex matches section headers. OpenSSL config sections usually
// carry spaces inside the brackets, so [  ca  ] parses like [ca].
var sectionRegex = regexp.MustCompile(`^\[\s*(\w*)\s*\]$`)

// SyntaxError indicates a $ reference that is not followed by a valid
// variable identifier.
type SyntaxError struct {
	Section string
	Option  string
	Value   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bad interpolation variable reference in [%s] %s = %q", e.Section, e.Option, e.Value)
}

// MissingVariableError indicates a $ reference to a variable absent from
// the defaults mapping.
type MissingVariableError struct {
	Section  string
	Option   string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("interpolation variable %q not found for [%s] %s", e.Variable, e.Section, e.Option)
}

// Section is one named group of key/value pairs.
type Section map[string]string

// Get returns the value for key, or "" when absent.
func (s Section) Get(key string) string {
	return s[key]
}

// Config is the parsed form of an OpenSSL-style configuration document.
// Each parse produces an independent Config; the parser keeps no
// process-wide state.
type Config struct {
	defaults map[string]string
	sections map[string]Section
}

// ParseConfig reads an INI-format document. $name and ${name} references
// are resolved against the defaults mapping only, never against the
// option's own section; this matches the signing tool's documented
// interpolation semantics. Keys appearing before the first section
// header are merged into the defaults mapping.
func ParseConfig(r io.Reader, defaults map[string]string) (*Config, error) {
	cfg := &Config{
		defaults: make(map[string]string, len(defaults)),
		sections: make(map[string]Section),
	}
	for k, v := range defaults {
		cfg.defaults[k] = v
	}

	var current string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if m := sectionRegex.FindStringSubmatch(line); m != nil {
			current = m[1]
			if _, ok := cfg.sections[current]; !ok {
				cfg.sections[current] = make(Section)
			}
			continue
		}

		key, rawValue, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("malformed line %q", line)
		}
		key = strings.TrimSpace(key)
		value, err := interpolate(current, key, strings.TrimSpace(rawValue), cfg.defaults)
		if err != nil {
			return nil, err
		}

		if current == "" {
			cfg.defaults[key] = value
		} else {
			cfg.sections[current][key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return cfg, nil
}

// interpolate substitutes every $name or ${name} occurrence in value
// with the corresponding entry of the defaults mapping.
func interpolate(section, option, value string, defaults map[string]string) (string, error) {
	if !strings.Contains(value, "$") {
		return value, nil
	}

	var b strings.Builder
	for i := 0; i < len(value); {
		if value[i] != '$' {
			b.WriteByte(value[i])
			i++
			continue
		}

		rest := value[i+1:]
		braced := strings.HasPrefix(rest, "{")
		if braced {
			rest = rest[1:]
		}

		end := 0
		for end < len(rest) && isIdentChar(rest[end]) {
			end++
		}
		name := rest[:end]
		if name == "" {
			return "", &SyntaxError{Section: section, Option: option, Value: value}
		}
		consumed := 1 + end // '$' plus identifier
		if braced {
			if end >= len(rest) || rest[end] != '}' {
				return "", &SyntaxError{Section: section, Option: option, Value: value}
			}
			consumed += 2 // braces
		}

		resolved, ok := defaults[name]
		if !ok {
			return "", &MissingVariableError{Section: section, Option: option, Variable: name}
		}
		b.WriteString(resolved)
		i += consumed
	}
	return b.String(), nil
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Section returns the named section. A nil Section is returned when the
// document does not contain it.
func (c *Config) Section(name string) Section {
	return c.sections[name]
}

// HasSection reports whether the document contains the named section.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// Get returns the value at [section] key, or "" when either is absent.
func (c *Config) Get(section, key string) string {
	return c.sections[section].Get(key)
}

// Defaults returns the defaults mapping the document was resolved
// against, including keys collected from the section-less preamble.
func (c *Config) Defaults() map[string]string {
	return c.defaults
}
