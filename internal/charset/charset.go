package charset

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Charset pairs a canonical charset name with its encoding. The zero
// value behaves as UTF-8; values for other charsets come from ForName
// or DetectBOM only, so every non-zero Charset is usable.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// Charsets with fixed identities.
var (
	UTF8    = Charset{name: "UTF-8", enc: unicode.UTF8}
	utf16BE = Charset{name: "UTF-16BE", enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	utf16LE = Charset{name: "UTF-16LE", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
)

// ForName resolves an IANA charset name, case-insensitively and
// accepting registered aliases. The empty name resolves to UTF-8. A
// name the registry cannot map to a usable encoding yields an
// *UnsupportedError.
func ForName(name string) (Charset, error) {
	switch name {
	case "", "UTF-8", "utf-8":
		return UTF8, nil
	case "UTF-16BE":
		return utf16BE, nil
	case "UTF-16LE":
		return utf16LE, nil
	}
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return Charset{}, &UnsupportedError{Name: name}
	}
	canonical, err := ianaindex.MIME.Name(enc)
	if err != nil {
		return Charset{}, &UnsupportedError{Name: name}
	}
	return Charset{name: canonical, enc: enc}, nil
}

// Name returns the canonical charset name. The zero value names UTF-8.
func (c Charset) Name() string {
	if c.name == "" {
		return "UTF-8"
	}
	return c.name
}

// IsUTF8 reports whether the charset is UTF-8.
func (c Charset) IsUTF8() bool {
	return c.Name() == "UTF-8"
}

// Equal compares charsets by canonical name.
func (c Charset) Equal(o Charset) bool {
	return c.Name() == o.Name()
}

// String returns the canonical name.
func (c Charset) String() string {
	return c.Name()
}

// Decode converts raw bytes in this charset to UTF-8 text.
func (c Charset) Decode(data []byte) (string, error) {
	if c.enc == nil || c.IsUTF8() {
		return string(data), nil
	}
	decoded, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return string(decoded), nil
}

// Encode converts UTF-8 text to raw bytes in this charset.
func (c Charset) Encode(text string) ([]byte, error) {
	if c.enc == nil || c.IsUTF8() {
		return []byte(text), nil
	}
	encoded, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name(), err)
	}
	return encoded, nil
}
