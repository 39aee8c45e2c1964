package document

import (
	"github.com/pkg/errors"
)

// ErrSpanStale signals that a patch computation referenced spans recorded
// before an intervening, not-yet-synchronized edit. Callers recover by
// regenerating the whole document instead of splicing.
var ErrSpanStale = errors.New("document: stale or missing span")

// Splice is a minimal in-place text edit: replace [Start, End) with Insert.
type Splice struct {
	Start  int
	End    int
	Insert []byte
}

// ApplySplice applies a splice to a text buffer.
func ApplySplice(text []byte, sp Splice) []byte {
	out := make([]byte, 0, len(text)-(sp.End-sp.Start)+len(sp.Insert))
	out = append(out, text[:sp.Start]...)
	out = append(out, sp.Insert...)
	out = append(out, text[sp.End:]...)
	return out
}

// FullSplice regenerates the entire document. It is the fallback when stored
// spans cannot be trusted: correctness over minimality.
func FullSplice(d *Document) Splice {
	return Splice{Start: 0, End: len(d.source), Insert: Render(d)}
}

// PatchReplace computes the minimal splice for a change confined to n's
// subtree (e.g. a field value change): the old region is replaced by freshly
// generated text, text before and after is kept.
func PatchReplace(d *Document, n *Node) (Splice, error) {
	if !d.spansFresh || n.span == nil {
		return Splice{}, errors.WithStack(ErrSpanStale)
	}
	return Splice{Start: n.span.Start, End: n.span.End, Insert: RenderNode(n)}, nil
}

// PatchRemove computes the splice removing a still-linked chain member's text
// together with the separator tying it to its chain: the preceding separator
// for a non-first sibling, the following separator for a chain head.
func PatchRemove(d *Document, n *Node) (Splice, error) {
	if !d.spansFresh || n.span == nil {
		return Splice{}, errors.WithStack(ErrSpanStale)
	}

	switch {
	case n.prev != nil:
		if n.prev.span == nil {
			return Splice{}, errors.WithStack(ErrSpanStale)
		}
		return Splice{Start: n.prev.span.End, End: n.span.End}, nil
	case n.next != nil:
		if n.next.span == nil {
			return Splice{}, errors.WithStack(ErrSpanStale)
		}
		return Splice{Start: n.span.Start, End: n.next.span.Start}, nil
	default:
		return Splice{Start: n.span.Start, End: n.span.End}, nil
	}
}

// PatchInsert computes the splice inserting a new, not-yet-linked node into
// parent's slot after the given sibling (nil to insert at the head).
func PatchInsert(d *Document, parent *Node, slot string, after, child *Node) (Splice, error) {
	if !d.spansFresh || parent.span == nil {
		return Splice{}, errors.WithStack(ErrSpanStale)
	}

	text := RenderNode(child)
	sep := separatorOf(child)

	if after != nil {
		if after.span == nil {
			return Splice{}, errors.WithStack(ErrSpanStale)
		}
		return Splice{Start: after.span.End, End: after.span.End, Insert: append([]byte(sep), text...)}, nil
	}

	if head := parent.slots[slot]; head != nil {
		if head.span == nil {
			return Splice{}, errors.WithStack(ErrSpanStale)
		}
		return Splice{Start: head.span.Start, End: head.span.Start, Insert: append(text, sep...)}, nil
	}

	// Empty slot: insert right before the parent's suffix.
	pos := parent.span.End - len(parent.tokens.Suffix)
	if pos < parent.span.Start {
		return Splice{}, errors.WithStack(ErrSpanStale)
	}
	return Splice{Start: pos, End: pos, Insert: text}, nil
}
