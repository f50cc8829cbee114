package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Param declares a named configuration parameter for a driver: its
// default, an optional value-conversion function and help text shown by
// configuration UIs. Declarations are never mutated.
type Param struct {
	Name    string
	Default string
	Convert func(string) (any, error)
	Help    string
}

// Required reports whether the parameter must be supplied by the caller.
func (p Param) Required() bool {
	return p.Default == ""
}

// Params is an immutable collection of parameter declarations. Drivers
// expose one collection for connecting and one for first-time setup.
type Params []Param

// Apply validates values against the declarations: defaults are filled
// in, required parameters must be present and conversion functions must
// accept the value. The returned map contains only declared parameters.
func (ps Params) Apply(values map[string]string) (map[string]string, error) {
	applied := make(map[string]string, len(ps))
	for _, p := range ps {
		v, ok := values[p.Name]
		if !ok || v == "" {
			if p.Required() {
				return nil, fmt.Errorf("%w: missing required parameter %q", ErrConfiguration, p.Name)
			}
			v = p.Default
		}
		if p.Convert != nil {
			if _, err := p.Convert(v); err != nil {
				return nil, fmt.Errorf("%w: parameter %q: %v", ErrConfiguration, p.Name, err)
			}
		}
		applied[p.Name] = v
	}
	for name := range values {
		if !ps.declares(name) {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrConfiguration, name)
		}
	}
	return applied, nil
}

func (ps Params) declares(name string) bool {
	for _, p := range ps {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Int converts a parameter value to an integer.
func Int(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}

// Bool converts a parameter value to a boolean. It accepts the usual
// spellings: true/false, yes/no, on/off, 1/0.
func Bool(s string) (any, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return nil, fmt.Errorf("not a boolean: %q", s)
	}
}
