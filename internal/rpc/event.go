package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/treewright/internal/tree"
)

// State classifies one event of a delta stream.
type State uint8

const (
	// StateUnchanged marks a field or element that survived the edit.
	// The receiver keeps its baseline value.
	StateUnchanged State = iota

	// StateAdd marks an element new in this revision, encoded in full.
	StateAdd

	// StateDelete marks a field or element absent from this revision.
	StateDelete

	// StateChange marks a field or element whose new value follows.
	StateChange
)

var stateNames = map[State]string{
	StateUnchanged: "unchanged",
	StateAdd:       "add",
	StateDelete:    "delete",
	StateChange:    "change",
}

// String returns the wire name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// MarshalText encodes the state by wire name.
func (s State) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown state %d", uint8(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a wire name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("%w: unknown state %q", ErrDesync, string(text))
}

// Event is one element of a delta stream: a state plus, for Add and
// Change, the value marshalled as JSON. Events are wire-ready; values
// are encoded at send time.
type Event struct {
	State State           `json:"state"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ListEntry is one entry of a keyed list header: an element's identity
// and how it fares in the new revision. Deleted entries come first, the
// rest follow in new-revision order.
type ListEntry struct {
	State State   `json:"state"`
	ID    tree.ID `json:"id"`
}
