package rpc

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/dshills/treewright/internal/tree"
)

// SendQueue accumulates the events of one send pass. A pass walks the
// fields of one (before, after) revision pair in the fixed order agreed
// with the receiving peer; the resulting event list is the delta.
type SendQueue struct {
	events []Event
}

// NewSendQueue returns an empty queue for one send pass.
func NewSendQueue() *SendQueue {
	return &SendQueue{}
}

// Events returns the accumulated delta in emission order.
func (q *SendQueue) Events() []Event {
	return q.events
}

// SendUnchanged appends an Unchanged marker: the receiver keeps its
// baseline value for this field.
func (q *SendQueue) SendUnchanged() {
	q.events = append(q.events, Event{State: StateUnchanged})
}

// SendDelete appends a Delete marker: the field or list is absent from
// this revision.
func (q *SendQueue) SendDelete() {
	q.events = append(q.events, Event{State: StateDelete})
}

// SendValue appends an unconditional Change carrying v.
func (q *SendQueue) SendValue(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	q.events = append(q.events, Event{State: StateChange, Value: data})
	return nil
}

// SendIfChanged compares before and after structurally and appends
// either an Unchanged marker or a Change carrying after. Types whose
// structural equality is richer than a deep comparison (canonical JSON,
// timestamps) should be compared by the caller, which then calls
// SendUnchanged or SendValue directly.
func (q *SendQueue) SendIfChanged(before, after any) error {
	if reflect.DeepEqual(before, after) {
		q.SendUnchanged()
		return nil
	}
	return q.SendValue(after)
}

// allUnchanged reports whether every event in the queue is an Unchanged
// marker, meaning the pass found nothing to transmit.
func (q *SendQueue) allUnchanged() bool {
	for _, ev := range q.events {
		if ev.State != StateUnchanged {
			return false
		}
	}
	return true
}

// SendList encodes a keyed list as a membership header followed by the
// deltas of added and changed elements. Elements pair across revisions
// by key; the send callback encodes one element against its baseline
// (nil baseline means encode in full). An element whose delta is all
// Unchanged markers is referenced by id only and its events discarded.
// A list that kept membership, order, and contents collapses to one
// Unchanged event, and a list emptied by the edit to one Delete event.
func SendList[T any](q *SendQueue, before, after []T, key func(T) tree.ID, send func(*SendQueue, *T, T) error) error {
	if len(before) == 0 && len(after) == 0 {
		q.SendUnchanged()
		return nil
	}
	if len(after) == 0 {
		q.SendDelete()
		return nil
	}

	index := make(map[tree.ID]int, len(before))
	for i, b := range before {
		id := key(b)
		if _, dup := index[id]; dup {
			return fmt.Errorf("%w: duplicate id %s in list baseline", ErrDesync, id)
		}
		index[id] = i
	}
	present := make(map[tree.ID]bool, len(after))
	for _, a := range after {
		id := key(a)
		if present[id] {
			return fmt.Errorf("%w: duplicate id %s in list", ErrDesync, id)
		}
		present[id] = true
	}

	entries := make([]ListEntry, 0, len(after))
	for _, b := range before {
		if id := key(b); !present[id] {
			entries = append(entries, ListEntry{State: StateDelete, ID: id})
		}
	}

	ordered := true
	var element []Event
	for pos, a := range after {
		id := key(a)
		i, existed := index[id]
		if !existed {
			scratch := NewSendQueue()
			if err := send(scratch, nil, a); err != nil {
				return err
			}
			entries = append(entries, ListEntry{State: StateAdd, ID: id})
			element = append(element, scratch.events...)
			ordered = false
			continue
		}
		if i != pos {
			ordered = false
		}
		scratch := NewSendQueue()
		b := before[i]
		if err := send(scratch, &b, a); err != nil {
			return err
		}
		if scratch.allUnchanged() {
			entries = append(entries, ListEntry{State: StateUnchanged, ID: id})
			continue
		}
		entries = append(entries, ListEntry{State: StateChange, ID: id})
		element = append(element, scratch.events...)
	}

	if ordered && allUnchangedEntries(entries) {
		q.SendUnchanged()
		return nil
	}

	if err := q.SendValue(entries); err != nil {
		return err
	}
	q.events = append(q.events, element...)
	return nil
}

func allUnchangedEntries(entries []ListEntry) bool {
	for _, e := range entries {
		if e.State != StateUnchanged {
			return false
		}
	}
	return true
}
