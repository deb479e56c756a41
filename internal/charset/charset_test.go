package charset

import (
	"bytes"
	"errors"
	"testing"
)

func TestForName(t *testing.T) {
	t.Run("empty name defaults to UTF-8", func(t *testing.T) {
		c, err := ForName("")
		if err != nil {
			t.Fatalf("ForName failed: %v", err)
		}
		if !c.IsUTF8() || c.Name() != "UTF-8" {
			t.Errorf("expected UTF-8, got %q", c.Name())
		}
	})

	t.Run("aliases resolve to canonical names", func(t *testing.T) {
		tests := []struct {
			alias string
			want  string
		}{
			{"utf-8", "UTF-8"},
			{"latin1", "ISO-8859-1"},
			{"iso-8859-1", "ISO-8859-1"},
			{"windows-1252", "windows-1252"},
		}
		for _, tt := range tests {
			c, err := ForName(tt.alias)
			if err != nil {
				t.Errorf("ForName(%q) failed: %v", tt.alias, err)
				continue
			}
			if c.Name() != tt.want {
				t.Errorf("ForName(%q): expected %q, got %q", tt.alias, tt.want, c.Name())
			}
		}
	})

	t.Run("unknown name is unsupported", func(t *testing.T) {
		_, err := ForName("no-such-charset")
		var unsupported *UnsupportedError
		if !errors.As(err, &unsupported) {
			t.Fatalf("expected *UnsupportedError, got %v", err)
		}
		if unsupported.Name != "no-such-charset" {
			t.Errorf("error should carry the offending name, got %q", unsupported.Name)
		}
	})
}

func TestDecodeEncode(t *testing.T) {
	t.Run("utf-8 passthrough", func(t *testing.T) {
		text, err := UTF8.Decode([]byte("héllo"))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if text != "héllo" {
			t.Errorf("expected héllo, got %q", text)
		}
	})

	t.Run("latin1 round trip", func(t *testing.T) {
		latin1, err := ForName("ISO-8859-1")
		if err != nil {
			t.Fatalf("ForName failed: %v", err)
		}
		// "héllo" in latin1: é is a single 0xE9 byte.
		raw := []byte{'h', 0xE9, 'l', 'l', 'o'}
		text, err := latin1.Decode(raw)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if text != "héllo" {
			t.Errorf("expected héllo, got %q", text)
		}
		back, err := latin1.Encode(text)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(back, raw) {
			t.Errorf("expected %v, got %v", raw, back)
		}
	})

	t.Run("utf-16 big endian", func(t *testing.T) {
		raw := []byte{0x00, 'h', 0x00, 'i'}
		text, err := utf16BE.Decode(raw)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if text != "hi" {
			t.Errorf("expected hi, got %q", text)
		}
	})

	t.Run("zero value behaves as UTF-8", func(t *testing.T) {
		var c Charset
		if !c.IsUTF8() {
			t.Error("zero value should be UTF-8")
		}
		text, err := c.Decode([]byte("plain"))
		if err != nil || text != "plain" {
			t.Errorf("expected plain, got %q (err %v)", text, err)
		}
	})
}

func TestDetectBOM(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantName string
		wantBOM  bool
		wantRest []byte
	}{
		{"utf-8 bom", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, "UTF-8", true, []byte("hi")},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0x00, 'h'}, "UTF-16BE", true, []byte{0x00, 'h'}},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'h', 0x00}, "UTF-16LE", true, []byte{'h', 0x00}},
		{"no bom", []byte("hi"), "UTF-8", false, []byte("hi")},
		{"empty", nil, "UTF-8", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, found, rest := DetectBOM(tt.data)
			if c.Name() != tt.wantName {
				t.Errorf("expected charset %s, got %s", tt.wantName, c.Name())
			}
			if found != tt.wantBOM {
				t.Errorf("expected bom=%v, got %v", tt.wantBOM, found)
			}
			if !bytes.Equal(rest, tt.wantRest) {
				t.Errorf("expected rest %v, got %v", tt.wantRest, rest)
			}
		})
	}
}

func TestBOMBytes(t *testing.T) {
	if !bytes.Equal(UTF8.BOM(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("UTF-8 BOM mismatch")
	}
	latin1, err := ForName("ISO-8859-1")
	if err != nil {
		t.Fatalf("ForName failed: %v", err)
	}
	if latin1.BOM() != nil {
		t.Error("latin1 has no byte-order mark")
	}
}
