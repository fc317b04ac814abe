package id

import (
	"encoding/base32"
	"strings"
	"testing"
)

func TestNewIDFormat(t *testing.T) {
	got := NewID()
	if len(got) != 26 {
		t.Fatalf("length = %d, want 26", len(got))
	}
	if got != strings.ToLower(got) {
		t.Fatalf("id %q is not lowercase", got)
	}
	if strings.Contains(got, "=") {
		t.Fatalf("id %q contains padding", got)
	}
}

func TestNewIDVersionBits(t *testing.T) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(NewID()))
	if err != nil {
		t.Fatalf("decode id: %v", err)
	}
	if len(raw) != 16 {
		t.Fatalf("decoded length = %d, want 16", len(raw))
	}
	if raw[6]&0xf0 != 0x40 {
		t.Fatalf("version bits = %x, want v4", raw[6]&0xf0)
	}
	if raw[8]&0xc0 != 0x80 {
		t.Fatalf("variant bits = %x, want RFC 4122", raw[8]&0xc0)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		got := NewID()
		if seen[got] {
			t.Fatalf("duplicate id %q", got)
		}
		seen[got] = true
	}
}
