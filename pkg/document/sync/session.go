package sync

import (
	stdsync "sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

// ErrReplayAccounting reports that more change notifications were absorbed
// than the current replay produced. It indicates a defect in the replay
// bookkeeping, not a recoverable condition.
var ErrReplayAccounting = errors.New("sync: replay notification counter went negative")

// Session owns the live node model and the live text buffer of one document.
// Every operation goes through the session; no ambient state is read. All
// mutation is serialized: a reconciliation pass runs to completion before the
// next edit is processed.
type Session struct {
	mu stdsync.Mutex

	doc  *document.Document
	text []byte

	// snap is the canonical snapshot of the live model in the coordinates of
	// the current text; its entries bind pseudo-ids to live nodes.
	snap *Snapshot

	logger *zap.Logger
	events chan Change

	// pending counts change notifications raised by replaying a change-set
	// the session itself computed; those must not trigger another
	// reconciliation. Decremented exactly once per replayed entry.
	pending   int
	replayErr error
}

// NewSession parses the initial text and takes the first snapshot.
func NewSession(text []byte, resolver *identity.Resolver, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	doc, err := document.Build(text, resolver)
	if err != nil {
		return nil, err
	}
	snap, err := Encode(doc)
	if err != nil {
		return nil, err
	}

	return &Session{
		doc:    doc,
		text:   append([]byte(nil), text...),
		snap:   snap,
		logger: logger,
		events: make(chan Change, 256),
	}, nil
}

func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Text returns the current text buffer.
func (s *Session) Text() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.text...)
}

// Events delivers one entry per structural edit applied to the live model.
// The channel is buffered; entries overflowing the buffer are dropped.
func (s *Session) Events() <-chan Change { return s.events }

// PendingReplays returns the number of self-inflicted change notifications
// not yet absorbed. Zero whenever no replay is in flight.
func (s *Session) PendingReplays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SyncText reconciles an externally edited text against the live model:
// parse, snapshot, stabilize identities, synthesize a change-set, replay it.
// On a parse failure the pass aborts before touching the model and the
// previous state is retained.
func (s *Session) SyncText(newText []byte) (*ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	newDoc, err := document.Build(newText, identity.NewResolver())
	if err != nil {
		return nil, err
	}
	newSnap, err := Encode(newDoc)
	if err != nil {
		return nil, err
	}

	oldSnap := s.snap
	stable, err := Stabilize(oldSnap, newSnap, s.text, newText)
	if err != nil {
		return nil, err
	}

	cs := Diff(oldSnap, newSnap)

	applier := NewApplier(s.doc, oldSnap)
	s.beginReplay(cs.Len())
	applier.OnApplied(s.noteReplayed)
	if err := applier.Apply(cs); err != nil {
		s.pending = 0
		return nil, err
	}
	if s.replayErr != nil {
		return nil, s.replayErr
	}

	// Adopt spans and formatting from the fresh build so the live model
	// regenerates the new text byte-for-byte.
	for _, id := range newSnap.Order {
		e := newSnap.Entries[id]
		live := applier.NodeFor(id)
		if live == nil {
			return nil, errors.Errorf("sync: no live node for %s after replay", id)
		}
		live.SetSpan(e.span)
		live.SetTokens(e.tokens)
		e.node = live
	}
	leading, trailing := newDoc.Layout()
	s.doc.SetLayout(leading, trailing)
	s.doc.RefreshSource(newText)
	s.text = append([]byte(nil), newText...)
	s.snap = newSnap

	s.logger.Debug("text-driven reconciliation",
		zap.Int("entries", cs.Len()),
		zap.Int("stableIDs", stable),
		zap.Duration("took", time.Since(start)),
	)
	return cs, nil
}

// NewNode creates an unlinked node owned by the session's document.
func (s *Session) NewNode(typ document.NodeType) *document.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.NewNode(typ)
}

// SetField performs a model-driven field change: the text is spliced in
// place using the node's stored span, falling back to a full regeneration
// when the span cannot be trusted.
func (s *Session) SetField(n *document.Node, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Field(field) == value {
		return nil
	}
	n.SetField(field, value)

	sp, err := document.PatchReplace(s.doc, n)
	if err != nil {
		if !errors.Is(err, document.ErrSpanStale) {
			return err
		}
		sp = document.FullSplice(s.doc)
	}
	return s.commitModelEdit(sp)
}

// InsertNode performs a model-driven insertion of an unlinked node into
// parent's slot, after the given sibling (nil for the head).
func (s *Session) InsertNode(parent *document.Node, slot string, after, n *document.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, spliceErr := document.PatchInsert(s.doc, parent, slot, after, n)

	if after != nil {
		if err := document.LinkNext(after, n); err != nil {
			return err
		}
	} else if head := parent.Slot(slot); head != nil {
		// Splice in front: detach the head, push it behind the new node.
		if err := document.UnlinkSlot(parent, slot, head); err != nil {
			return err
		}
		if err := document.LinkSlot(parent, slot, n); err != nil {
			return err
		}
		if err := document.LinkNext(n, head); err != nil {
			return err
		}
	} else {
		if err := document.LinkSlot(parent, slot, n); err != nil {
			return err
		}
	}

	if spliceErr != nil {
		if !errors.Is(spliceErr, document.ErrSpanStale) {
			return spliceErr
		}
		s.doc.MarkSpansStale()
		sp = document.FullSplice(s.doc)
	}
	return s.commitModelEdit(sp)
}

// RemoveNode performs a model-driven removal of a linked node and its
// subtree. The text splice drops the node's region plus the separator tying
// it into its chain.
func (s *Session) RemoveNode(n *document.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, spliceErr := document.PatchRemove(s.doc, n)

	switch {
	case n.Prev() != nil:
		if err := document.UnlinkNext(n.Prev(), n); err != nil {
			return err
		}
	case n.Parent() != nil:
		if err := document.UnlinkSlot(n.Parent(), n.ParentSlot(), n); err != nil {
			return err
		}
	default:
		if err := s.doc.RemoveRoot(n); err != nil {
			return err
		}
	}
	if err := s.doc.ReleaseSubtree(n); err != nil {
		return err
	}

	if spliceErr != nil {
		if !errors.Is(spliceErr, document.ErrSpanStale) {
			return spliceErr
		}
		s.doc.MarkSpansStale()
		sp = document.FullSplice(s.doc)
	}
	return s.commitModelEdit(sp)
}

// commitModelEdit applies the splice to the text buffer and refreshes the
// identity map: the patched text is parsed once more and its positions are
// adopted by the live nodes, so both sides stay driven by the same
// reconciliation machinery.
func (s *Session) commitModelEdit(sp document.Splice) error {
	start := time.Now()

	s.text = document.ApplySplice(s.text, sp)

	freshDoc, err := document.Build(s.text, identity.NewResolver())
	if err != nil {
		// The splice produced unparseable text; that is an internal defect,
		// not a user input problem.
		return errors.Wrap(err, "sync: patched text failed to parse")
	}

	liveNodes := orderedNodes(s.doc)
	freshNodes := orderedNodes(freshDoc)
	if len(liveNodes) != len(freshNodes) {
		return errors.Errorf("sync: model and patched text disagree: %d vs %d nodes", len(liveNodes), len(freshNodes))
	}

	pair := make(map[*document.Node]*document.Node, len(freshNodes))
	for i, fresh := range freshNodes {
		live := liveNodes[i]
		if live.Type() != fresh.Type() {
			return errors.Errorf("sync: model and patched text disagree at node %d: %s vs %s", i, live.Type(), fresh.Type())
		}
		live.SetSpan(fresh.Span())
		live.SetTokens(fresh.Tokens())
		pair[fresh] = live
	}

	freshSnap, err := Encode(freshDoc)
	if err != nil {
		return err
	}
	for _, id := range freshSnap.Order {
		e := freshSnap.Entries[id]
		e.node = pair[e.node]
	}

	leading, trailing := freshDoc.Layout()
	s.doc.SetLayout(leading, trailing)
	s.doc.RefreshSource(s.text)
	s.snap = freshSnap

	s.logger.Debug("model-driven patch",
		zap.Int("spliceStart", sp.Start),
		zap.Int("spliceEnd", sp.End),
		zap.Int("inserted", len(sp.Insert)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (s *Session) beginReplay(entries int) {
	s.pending += entries
	s.replayErr = nil
}

func (s *Session) noteReplayed(c Change) {
	if s.pending == 0 {
		s.replayErr = errors.WithStack(ErrReplayAccounting)
		return
	}
	s.pending--

	select {
	case s.events <- c:
	default:
	}
}

// orderedNodes lists a document's nodes in canonical document order.
func orderedNodes(d *document.Document) []*document.Node {
	var out []*document.Node
	for _, root := range d.Roots() {
		out = appendSubtree(out, root)
	}
	return out
}
