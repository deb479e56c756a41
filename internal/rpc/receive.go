package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/treewright/internal/tree"
)

// ReceiveQueue walks a received delta in the same fixed order the
// sender used. Every field read consumes exactly one event and every
// sub-protocol consumes its own; running past the end of the stream is
// a desync.
type ReceiveQueue struct {
	events []Event
	pos    int
}

// NewReceiveQueue wraps a received event list for one decode pass.
func NewReceiveQueue(events []Event) *ReceiveQueue {
	return &ReceiveQueue{events: events}
}

// Remaining returns the count of unconsumed events. A completed decode
// pass should leave zero; callers treat leftovers as a desync.
func (q *ReceiveQueue) Remaining() int {
	return len(q.events) - q.pos
}

func (q *ReceiveQueue) next() (Event, error) {
	if q.pos >= len(q.events) {
		return Event{}, fmt.Errorf("%w: event stream exhausted", ErrDesync)
	}
	ev := q.events[q.pos]
	q.pos++
	return ev, nil
}

// Receive reads one field: Unchanged keeps the baseline value, Change
// decodes the transmitted one. Any other state is a desync.
func Receive[T any](q *ReceiveQueue, before T) (T, error) {
	var zero T
	ev, err := q.next()
	if err != nil {
		return zero, err
	}
	switch ev.State {
	case StateUnchanged:
		return before, nil
	case StateChange:
		var v T
		if err := json.Unmarshal(ev.Value, &v); err != nil {
			return zero, fmt.Errorf("%w: decode field: %v", ErrDesync, err)
		}
		return v, nil
	default:
		return zero, fmt.Errorf("%w: unexpected %s event for field", ErrDesync, ev.State)
	}
}

// ReceiveList decodes a keyed list against its baseline. Unchanged and
// changed entries must resolve against baseline elements by id; a
// reference to an id the baseline does not hold is a desync. The
// receive callback decodes one element against its baseline (nil for
// added elements). The result is nil when the list is empty.
func ReceiveList[T any](q *ReceiveQueue, before []T, key func(T) tree.ID, receive func(*ReceiveQueue, *T) (T, error)) ([]T, error) {
	ev, err := q.next()
	if err != nil {
		return nil, err
	}
	switch ev.State {
	case StateUnchanged:
		return before, nil
	case StateDelete:
		return nil, nil
	case StateChange:
	default:
		return nil, fmt.Errorf("%w: unexpected %s event for list header", ErrDesync, ev.State)
	}

	var entries []ListEntry
	if err := json.Unmarshal(ev.Value, &entries); err != nil {
		return nil, fmt.Errorf("%w: malformed list header: %v", ErrDesync, err)
	}

	index := make(map[tree.ID]int, len(before))
	for i, b := range before {
		id := key(b)
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s in list baseline", ErrDesync, id)
		}
		index[id] = i
	}

	result := make([]T, 0, len(entries))
	for _, entry := range entries {
		switch entry.State {
		case StateDelete:
			if _, ok := index[entry.ID]; !ok {
				return nil, fmt.Errorf("%w: removal of unknown id %s", ErrDesync, entry.ID)
			}
		case StateUnchanged:
			i, ok := index[entry.ID]
			if !ok {
				return nil, fmt.Errorf("%w: reference to unknown id %s", ErrDesync, entry.ID)
			}
			result = append(result, before[i])
		case StateChange:
			i, ok := index[entry.ID]
			if !ok {
				return nil, fmt.Errorf("%w: delta for unknown id %s", ErrDesync, entry.ID)
			}
			b := before[i]
			v, err := receive(q, &b)
			if err != nil {
				return nil, err
			}
			result = append(result, v)
		case StateAdd:
			v, err := receive(q, nil)
			if err != nil {
				return nil, err
			}
			if key(v) != entry.ID {
				return nil, fmt.Errorf("%w: added element id %s does not match header id %s", ErrDesync, key(v), entry.ID)
			}
			result = append(result, v)
		default:
			return nil, fmt.Errorf("%w: unexpected %s entry in list header", ErrDesync, entry.State)
		}
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}
