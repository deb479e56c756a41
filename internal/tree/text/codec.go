package text

import (
	"fmt"

	"github.com/dshills/treewright/internal/charset"
	"github.com/dshills/treewright/internal/rpc"
	"github.com/dshills/treewright/internal/tree"
)

// The wire walk for a document. Field order is the entire contract:
// both sides traverse id, markers, sourcePath, charset, bom, checksum,
// attributes, text, snippets, and each snippet traverses id, markers,
// text. The charset travels as its canonical name, so the UTF-8 default
// is explicit on the wire.

// SendDocument encodes after against before. A nil before produces a
// full encode; otherwise every field the edit preserved collapses to an
// Unchanged marker and the snippet list diffs by fragment identity.
//
// A full encode never emits Unchanged markers: an empty snippet or
// marker list travels as an explicit delete, so the stream decodes the
// same over any baseline a desynchronized peer may still hold.
func SendDocument(q *rpc.SendQueue, before, after *Document) error {
	if after == nil {
		return ErrNilDocument
	}
	if before == nil {
		if err := q.SendValue(after.id); err != nil {
			return err
		}
		if err := q.SendMarkers(nil, after.markers); err != nil {
			return err
		}
		if err := q.SendValue(after.sourcePath); err != nil {
			return err
		}
		if err := q.SendValue(after.Charset().Name()); err != nil {
			return err
		}
		if err := q.SendValue(after.charsetBOM); err != nil {
			return err
		}
		if err := q.SendValue(after.checksum); err != nil {
			return err
		}
		if err := q.SendValue(after.attributes); err != nil {
			return err
		}
		if err := q.SendValue(after.text); err != nil {
			return err
		}
		if len(after.snippets) == 0 {
			q.SendDelete()
			return nil
		}
		return rpc.SendList(q, nil, after.snippets, snippetKey, sendSnippet)
	}

	if err := q.SendIfChanged(before.id, after.id); err != nil {
		return err
	}
	if err := q.SendMarkers(&before.markers, after.markers); err != nil {
		return err
	}
	if err := q.SendIfChanged(before.sourcePath, after.sourcePath); err != nil {
		return err
	}
	if err := q.SendIfChanged(before.Charset().Name(), after.Charset().Name()); err != nil {
		return err
	}
	if err := q.SendIfChanged(before.charsetBOM, after.charsetBOM); err != nil {
		return err
	}
	if equalChecksum(before.checksum, after.checksum) {
		q.SendUnchanged()
	} else if err := q.SendValue(after.checksum); err != nil {
		return err
	}
	if before.attributes.Equal(after.attributes) {
		q.SendUnchanged()
	} else if err := q.SendValue(after.attributes); err != nil {
		return err
	}
	if err := q.SendIfChanged(before.text, after.text); err != nil {
		return err
	}
	return rpc.SendList(q, before.snippets, after.snippets, snippetKey, sendSnippet)
}

// ReceiveDocument replays a delta over the receiver's baseline. A nil
// before decodes a full encode. Fields the sender marked unchanged are
// shared structurally with the baseline; a delta that changed nothing
// decodes to the baseline pointer itself. A charset name that does not
// resolve fails the pass with the resolution error.
func ReceiveDocument(q *rpc.ReceiveQueue, before *Document) (*Document, error) {
	base := before
	if base == nil {
		base = &Document{cache: newIndexCache()}
	}

	id, err := rpc.Receive(q, base.id)
	if err != nil {
		return nil, err
	}
	markers, err := q.ReceiveMarkers(base.markers)
	if err != nil {
		return nil, err
	}
	sourcePath, err := rpc.Receive(q, base.sourcePath)
	if err != nil {
		return nil, err
	}
	charsetName, err := rpc.Receive(q, base.Charset().Name())
	if err != nil {
		return nil, err
	}
	cs, err := charset.ForName(charsetName)
	if err != nil {
		return nil, fmt.Errorf("receive charset: %w", err)
	}
	bom, err := rpc.Receive(q, base.charsetBOM)
	if err != nil {
		return nil, err
	}
	checksum, err := rpc.Receive(q, base.checksum)
	if err != nil {
		return nil, err
	}
	attributes, err := rpc.Receive(q, base.attributes)
	if err != nil {
		return nil, err
	}
	content, err := rpc.Receive(q, base.text)
	if err != nil {
		return nil, err
	}
	snippets, err := rpc.ReceiveList(q, base.snippets, snippetKey, receiveSnippet)
	if err != nil {
		return nil, err
	}

	if before == nil {
		base.id = id
		base.markers = markers
		base.sourcePath = sourcePath
		base.charsetName = cs.Name()
		base.charsetBOM = bom
		base.checksum = checksum
		base.attributes = attributes
		base.text = content
		base.snippets = snippets
		return base, nil
	}
	return before.withID(id).
		WithMarkers(markers).
		WithSourcePath(sourcePath).
		WithCharset(cs).
		WithBOM(bom).
		WithChecksum(checksum).
		WithAttributes(attributes).
		WithText(content).
		WithSnippets(snippets), nil
}

func snippetKey(s Snippet) tree.ID {
	return s.id
}

func sendSnippet(q *rpc.SendQueue, before *Snippet, after Snippet) error {
	if before == nil {
		if err := q.SendValue(after.id); err != nil {
			return err
		}
		if err := q.SendMarkers(nil, after.markers); err != nil {
			return err
		}
		return q.SendValue(after.text)
	}
	if err := q.SendIfChanged(before.id, after.id); err != nil {
		return err
	}
	if err := q.SendMarkers(&before.markers, after.markers); err != nil {
		return err
	}
	return q.SendIfChanged(before.text, after.text)
}

func receiveSnippet(q *rpc.ReceiveQueue, before *Snippet) (Snippet, error) {
	var base Snippet
	if before != nil {
		base = *before
	}
	id, err := rpc.Receive(q, base.id)
	if err != nil {
		return Snippet{}, err
	}
	markers, err := q.ReceiveMarkers(base.markers)
	if err != nil {
		return Snippet{}, err
	}
	content, err := rpc.Receive(q, base.text)
	if err != nil {
		return Snippet{}, err
	}
	return Snippet{id: id, markers: markers, text: content}, nil
}
