package tree

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Marker is an opaque metadata attachment on a tree element. Kind names
// the marker type and Data carries its payload as JSON. Treewright never
// interprets payloads; they travel through the delta protocol untouched.
type Marker struct {
	ID   ID              `json:"id"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMarker creates a marker of the given kind with a fresh identity.
// A nil payload produces a marker without data.
func NewMarker(kind string, payload any) (Marker, error) {
	m := Marker{ID: NewID(), Kind: kind}
	if payload == nil {
		return m, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Marker{}, fmt.Errorf("%w: %v", ErrMarkerPayload, err)
	}
	m.Data = data
	return m, nil
}

// Field extracts a payload field by path. A missing field yields a
// result whose Exists method reports false.
func (m Marker) Field(path string) gjson.Result {
	return gjson.GetBytes(m.Data, path)
}

// WithField returns a copy of m with the payload field at path set to
// value. The original marker is unchanged.
func (m Marker) WithField(path string, value any) (Marker, error) {
	data, err := sjson.SetBytes(m.Data, path, value)
	if err != nil {
		return Marker{}, fmt.Errorf("%w: %v", ErrMarkerPayload, err)
	}
	m.Data = data
	return m, nil
}

// Equal reports whether two markers carry the same identity, kind, and
// payload. Payloads are compared in canonical form, so formatting
// differences in the JSON do not register as changes.
func (m Marker) Equal(o Marker) bool {
	return m.ID == o.ID && m.Kind == o.Kind && EqualPayload(m.Data, o.Data)
}

// EqualPayload reports structural equality of two JSON payloads in
// canonical form. Absent payloads and JSON null are equivalent.
func EqualPayload(a, b json.RawMessage) bool {
	return string(canonicalPayload(a)) == string(canonicalPayload(b))
}

func canonicalPayload(p json.RawMessage) []byte {
	if len(p) == 0 {
		return nil
	}
	c := pretty.Ugly(p)
	if string(c) == "null" {
		return nil
	}
	return c
}

// Markers is the ordered metadata bag attached to a tree element. The
// bag itself has an identity so peers can track it across revisions like
// any other element.
type Markers struct {
	ID   ID       `json:"id"`
	List []Marker `json:"list,omitempty"`
}

// EmptyMarkers returns a fresh bag with no entries.
func EmptyMarkers() Markers {
	return Markers{ID: NewID()}
}

// Entries returns the bag's markers in order. The result is never nil.
func (ms Markers) Entries() []Marker {
	if ms.List == nil {
		return []Marker{}
	}
	return ms.List
}

// Len returns the number of markers in the bag.
func (ms Markers) Len() int {
	return len(ms.List)
}

// FindKind returns all markers of the given kind in bag order.
func (ms Markers) FindKind(kind string) []Marker {
	var found []Marker
	for _, m := range ms.List {
		if m.Kind == kind {
			found = append(found, m)
		}
	}
	return found
}

// FirstKind returns the first marker of the given kind.
func (ms Markers) FirstKind(kind string) (Marker, bool) {
	for _, m := range ms.List {
		if m.Kind == kind {
			return m, true
		}
	}
	return Marker{}, false
}

// WithMarker returns a bag with m upserted by identity: an existing
// marker with the same ID is replaced in place, otherwise m is appended.
// The receiver is unchanged; when the upsert is a structural no-op the
// receiver is returned as is.
func (ms Markers) WithMarker(m Marker) Markers {
	for i, existing := range ms.List {
		if existing.ID != m.ID {
			continue
		}
		if existing.Equal(m) {
			return ms
		}
		list := make([]Marker, len(ms.List))
		copy(list, ms.List)
		list[i] = m
		ms.List = list
		return ms
	}
	list := make([]Marker, len(ms.List), len(ms.List)+1)
	copy(list, ms.List)
	ms.List = append(list, m)
	return ms
}

// WithoutMarker returns a bag with the identified marker removed. The
// receiver is returned as is when the ID is absent.
func (ms Markers) WithoutMarker(id ID) Markers {
	for i, existing := range ms.List {
		if existing.ID != id {
			continue
		}
		list := make([]Marker, 0, len(ms.List)-1)
		list = append(list, ms.List[:i]...)
		list = append(list, ms.List[i+1:]...)
		if len(list) == 0 {
			list = nil
		}
		ms.List = list
		return ms
	}
	return ms
}

// Equal reports structural equality of two bags: same identity, same
// markers, same order.
func (ms Markers) Equal(o Markers) bool {
	if ms.ID != o.ID || len(ms.List) != len(o.List) {
		return false
	}
	for i := range ms.List {
		if !ms.List[i].Equal(o.List[i]) {
			return false
		}
	}
	return true
}
