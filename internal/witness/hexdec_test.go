package witness

import "testing"

func TestHexToDec(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0x0", "0"},
		{"0xff", "255"},
		{"ff", "255"},
		{"0x10", "16"},
		{"0xdeadbeef", "3735928559"},
		// A full 256-bit hash must survive without overflow.
		{"0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
			"115792089237316195423570985008687907853269984665640564039457584007913129639935"},
	}
	for _, tt := range tests {
		got, err := HexToDec(tt.in)
		if err != nil {
			t.Errorf("HexToDec(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HexToDec(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestHexToDecRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "0x", "0xzz", "not hex"} {
		if _, err := HexToDec(in); err == nil {
			t.Errorf("HexToDec(%q) succeeded, want error", in)
		}
	}
}
