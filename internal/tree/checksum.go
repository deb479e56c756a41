package tree

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Checksum records a digest of a source file's raw input bytes, taken
// before any charset decoding. It lets peers detect divergence without
// shipping content.
type Checksum struct {
	Algorithm string `json:"algorithm"`
	Value     []byte `json:"value"`
}

// SHA256Checksum digests data with SHA-256.
func SHA256Checksum(data []byte) Checksum {
	sum := sha256.Sum256(data)
	return Checksum{Algorithm: "sha256", Value: sum[:]}
}

// ParseChecksum parses the "<algorithm>:<hex>" form produced by String.
func ParseChecksum(s string) (Checksum, error) {
	algorithm, digest, ok := strings.Cut(s, ":")
	if !ok || algorithm == "" {
		return Checksum{}, fmt.Errorf("%w: %q", ErrChecksumFormat, s)
	}
	value, err := hex.DecodeString(digest)
	if err != nil {
		return Checksum{}, fmt.Errorf("%w: %q: %v", ErrChecksumFormat, s, err)
	}
	return Checksum{Algorithm: algorithm, Value: value}, nil
}

// Hex returns the digest as lowercase hex.
func (c Checksum) Hex() string {
	return hex.EncodeToString(c.Value)
}

// String returns the "<algorithm>:<hex>" form.
func (c Checksum) String() string {
	return c.Algorithm + ":" + c.Hex()
}

// Equal reports whether two checksums use the same algorithm and carry
// the same digest.
func (c Checksum) Equal(o Checksum) bool {
	return c.Algorithm == o.Algorithm && bytes.Equal(c.Value, o.Value)
}
