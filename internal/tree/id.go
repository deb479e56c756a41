package tree

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the stable identity of a tree element. It is assigned once, when
// the element is first created, and survives every revision: edits produce
// new values carrying the old ID. IDs are comparable and usable as map
// keys, which is how the delta protocol pairs revisions.
type ID uuid.UUID

// NilID is the zero identity. No real element carries it.
var NilID ID

// NewID returns a fresh random identity.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical string form produced by String.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("%w: %q", ErrIDFormat, s)
	}
	return ID(u), nil
}

// String returns the canonical UUID form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero identity.
func (id ID) IsNil() bool {
	return id == NilID
}

// MarshalText encodes the ID in canonical UUID form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the canonical UUID form.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
