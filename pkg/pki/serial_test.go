package pki

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseSerial_Decimal(t *testing.T) {
	tests := []struct {
		input   string
		wantDec string
		wantHex string
	}{
		{"26", "26", "1a"},
		{"10", "10", "0a"},
		{"0", "0", "00"},
		{"1715004", "1715004", "1a2b3c"},
	}

	for _, tt := range tests {
		sn, err := ParseSerial(tt.input)
		if err != nil {
			t.Fatalf("ParseSerial(%q) error = %v", tt.input, err)
		}
		if sn.Dec() != tt.wantDec {
			t.Errorf("Dec() = %q, want %q", sn.Dec(), tt.wantDec)
		}
		if sn.Hex() != tt.wantHex {
			t.Errorf("Hex() = %q, want %q", sn.Hex(), tt.wantHex)
		}
	}
}

func TestParseSerial_Hex(t *testing.T) {
	tests := []struct {
		input   string
		wantHex string
	}{
		{"1A", "1a"},
		{"0x1A2B3C", "1a2b3c"},
		{"1a:2b:3c", "1a2b3c"},
		{"a", "0a"},
		{"DEADBEEF", "deadbeef"},
	}

	for _, tt := range tests {
		sn, err := ParseSerial(tt.input)
		if err != nil {
			t.Fatalf("ParseSerial(%q) error = %v", tt.input, err)
		}
		if sn.Hex() != tt.wantHex {
			t.Errorf("ParseSerial(%q).Hex() = %q, want %q", tt.input, sn.Hex(), tt.wantHex)
		}
	}
}

func TestParseSerial_RoundTrip(t *testing.T) {
	// Encoding then decoding yields the original numeric value, for
	// both decimal and hex inputs.
	inputs := []string{"26", "1a", "0xFF00", "65280", "1715004"}
	for _, input := range inputs {
		sn, err := ParseSerial(input)
		if err != nil {
			t.Fatalf("ParseSerial(%q) error = %v", input, err)
		}

		fromDec, err := ParseSerial(sn.Dec())
		if err != nil {
			t.Fatalf("ParseSerial(Dec) error = %v", err)
		}
		fromHex, err := ParseHexSerial(sn.Hex())
		if err != nil {
			t.Fatalf("ParseHexSerial(Hex) error = %v", err)
		}

		if fromDec.Int().Cmp(sn.Int()) != 0 {
			t.Errorf("decimal round trip of %q changed the value", input)
		}
		if fromHex.Int().Cmp(sn.Int()) != 0 {
			t.Errorf("hex round trip of %q changed the value", input)
		}
	}
}

func TestParseSerial_Idempotent(t *testing.T) {
	sn, err := ParseSerial("1a2b3c")
	if err != nil {
		t.Fatalf("ParseSerial() error = %v", err)
	}
	again, err := ParseHexSerial(sn.Hex())
	if err != nil {
		t.Fatalf("ParseHexSerial() error = %v", err)
	}
	if again.Hex() != sn.Hex() || again.Dec() != sn.Dec() {
		t.Errorf("re-encoding a canonical value changed it: %q/%q vs %q/%q",
			again.Hex(), again.Dec(), sn.Hex(), sn.Dec())
	}
}

func TestParseSerial_Invalid(t *testing.T) {
	inputs := []string{"", "  ", "xyz", "12g4", "1a2b-3c", "-26"}
	for _, input := range inputs {
		if _, err := ParseSerial(input); !errors.Is(err, ErrInvalidSerialNumber) {
			t.Errorf("ParseSerial(%q) error = %v, want ErrInvalidSerialNumber", input, err)
		}
	}
}

func TestSerialNumber_String(t *testing.T) {
	sn := NewSerial(big.NewInt(0x176716b0))
	if got := sn.String(); got != "17:67:16:b0" {
		t.Errorf("String() = %q, want %q", got, "17:67:16:b0")
	}

	single := NewSerial(big.NewInt(0x1a))
	if got := single.String(); got != "1a" {
		t.Errorf("String() = %q, want %q", got, "1a")
	}
}
