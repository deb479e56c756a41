package rpc

import "github.com/dshills/treewright/internal/tree"

// Marker bags ride the delta protocol like any other element: the bag's
// identity first, then a keyed diff of its entries. Each entry walks
// id, kind, payload in that order. Payloads compare in canonical JSON
// form so formatting differences do not re-transmit.

// SendMarkers encodes a marker bag against its baseline. A nil baseline
// encodes the bag in full.
func (q *SendQueue) SendMarkers(before *tree.Markers, after tree.Markers) error {
	if before == nil {
		if err := q.SendValue(after.ID); err != nil {
			return err
		}
		// Full encode: an empty entry list travels as an explicit
		// delete so the bag decodes the same over any baseline.
		if len(after.List) == 0 {
			q.SendDelete()
			return nil
		}
		return SendList(q, nil, after.List, markerKey, sendMarkerEntry)
	}
	if err := q.SendIfChanged(before.ID, after.ID); err != nil {
		return err
	}
	return SendList(q, before.List, after.List, markerKey, sendMarkerEntry)
}

// ReceiveMarkers decodes a marker bag against its baseline.
func (q *ReceiveQueue) ReceiveMarkers(before tree.Markers) (tree.Markers, error) {
	id, err := Receive(q, before.ID)
	if err != nil {
		return tree.Markers{}, err
	}
	list, err := ReceiveList(q, before.List, markerKey, receiveMarkerEntry)
	if err != nil {
		return tree.Markers{}, err
	}
	return tree.Markers{ID: id, List: list}, nil
}

func markerKey(m tree.Marker) tree.ID {
	return m.ID
}

func sendMarkerEntry(q *SendQueue, before *tree.Marker, after tree.Marker) error {
	if before == nil {
		if err := q.SendValue(after.ID); err != nil {
			return err
		}
		if err := q.SendValue(after.Kind); err != nil {
			return err
		}
		return q.SendValue(after.Data)
	}
	if err := q.SendIfChanged(before.ID, after.ID); err != nil {
		return err
	}
	if err := q.SendIfChanged(before.Kind, after.Kind); err != nil {
		return err
	}
	if tree.EqualPayload(before.Data, after.Data) {
		q.SendUnchanged()
		return nil
	}
	return q.SendValue(after.Data)
}

func receiveMarkerEntry(q *ReceiveQueue, before *tree.Marker) (tree.Marker, error) {
	var base tree.Marker
	if before != nil {
		base = *before
	}
	id, err := Receive(q, base.ID)
	if err != nil {
		return tree.Marker{}, err
	}
	kind, err := Receive(q, base.Kind)
	if err != nil {
		return tree.Marker{}, err
	}
	data, err := Receive(q, base.Data)
	if err != nil {
		return tree.Marker{}, err
	}
	return tree.Marker{ID: id, Kind: kind, Data: data}, nil
}
