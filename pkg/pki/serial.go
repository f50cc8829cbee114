package pki

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidSerialNumber indicates a serial number string that is neither
// a decimal nor a hexadecimal representation.
var ErrInvalidSerialNumber = errors.New("invalid serial number")

// SerialNumber is the identity of an issued certificate.
//
// A single logical value has exactly one canonical decimal string and one
// canonical lowercase hex string (no 0x prefix, even digit count). Both
// drivers normalize through this type before building storage keys or
// API paths. Immutable once constructed.
type SerialNumber struct {
	n *big.Int
}

// ParseSerial parses a serial number in any accepted textual form.
//
// Strings with a 0x prefix, colon separators or hex letters are read as
// hexadecimal; all-digit strings are read as decimal. Empty input and
// input containing other characters fail with ErrInvalidSerialNumber.
func ParseSerial(s string) (SerialNumber, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return SerialNumber{}, fmt.Errorf("%w: empty string", ErrInvalidSerialNumber)
	}

	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") || strings.Contains(t, ":") {
		return ParseHexSerial(t)
	}

	decimal := true
	for _, r := range t {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			decimal = false
		default:
			return SerialNumber{}, fmt.Errorf("%w: %q", ErrInvalidSerialNumber, s)
		}
	}
	if decimal {
		n, ok := new(big.Int).SetString(t, 10)
		if !ok {
			return SerialNumber{}, fmt.Errorf("%w: %q", ErrInvalidSerialNumber, s)
		}
		return SerialNumber{n: n}, nil
	}
	return ParseHexSerial(t)
}

// ParseHexSerial parses a serial number that is hexadecimal by contract,
// regardless of which digits appear. The 0x prefix and colon separators
// are accepted and stripped.
func ParseHexSerial(s string) (SerialNumber, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	t = strings.ReplaceAll(t, ":", "")
	if t == "" {
		return SerialNumber{}, fmt.Errorf("%w: empty string", ErrInvalidSerialNumber)
	}
	n, ok := new(big.Int).SetString(t, 16)
	if !ok || n.Sign() < 0 {
		return SerialNumber{}, fmt.Errorf("%w: %q", ErrInvalidSerialNumber, s)
	}
	return SerialNumber{n: n}, nil
}

// NewSerial builds a SerialNumber from an already-parsed integer value.
func NewSerial(n *big.Int) SerialNumber {
	return SerialNumber{n: new(big.Int).Set(n)}
}

// Hex returns the canonical lowercase hexadecimal form: no 0x prefix,
// zero-padded to an even number of digits.
func (s SerialNumber) Hex() string {
	h := s.n.Text(16)
	if len(h)%2 != 0 {
		h = "0" + h
	}
	return h
}

// Dec returns the canonical decimal form.
func (s SerialNumber) Dec() string {
	return s.n.Text(10)
}

// String returns the colon-separated hex-pair wire form used by remote
// authority APIs (for example 17:67:16:b0).
func (s SerialNumber) String() string {
	h := s.Hex()
	pairs := make([]string, 0, len(h)/2)
	for i := 0; i < len(h); i += 2 {
		pairs = append(pairs, h[i:i+2])
	}
	return strings.Join(pairs, ":")
}

// Int returns a copy of the numeric value.
func (s SerialNumber) Int() *big.Int {
	return new(big.Int).Set(s.n)
}
