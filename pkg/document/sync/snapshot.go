// Package sync reconciles the two representations of one document: the text
// buffer and the node model. Either side may change first; a reconciliation
// pass computes the minimal structural change-set between canonical snapshots
// and replays it against the lagging side, keeping node identities stable for
// everything the edit did not touch.
package sync

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/mirrordoc/mirrordoc/pkg/document"
)

// PseudoID labels a node inside one reconciliation pass:
// "line-number-at-first-occurrence|node-type". Two independently produced
// snapshots of the same logical document assign equal pseudo-ids to the same
// logical nodes, which makes them directly diffable.
type PseudoID string

func pseudoID(line int, typ document.NodeType) PseudoID {
	return PseudoID(fmt.Sprintf("%d|%s", line, typ))
}

// maxProbe bounds collision probing during pseudo-id assignment. Exceeding it
// is a fatal inconsistency, never a silent wraparound.
const maxProbe = 1000

// ErrIdentityExhausted reports that collision probing ran out of candidates.
var ErrIdentityExhausted = errors.New("sync: pseudo-id collision probing exhausted")

// Entry is one node of a canonical snapshot. Fields, slot links and the next
// link take part in diffing; span, tokens and the live-node binding are
// volatile carriers excluded from the canonical text.
type Entry struct {
	ID     PseudoID
	Type   document.NodeType
	Line   int
	Fields map[string]string
	Slots  map[string]PseudoID
	Next   PseudoID

	node   *document.Node
	span   *document.Span
	tokens *document.TokenSet
}

// Node returns the live model node this entry was encoded from, if any.
func (e *Entry) Node() *document.Node { return e.node }

// Snapshot is the canonical, order-stable, volatile-field-stripped
// description of a tree.
type Snapshot struct {
	Order   []PseudoID
	Entries map[PseudoID]*Entry
	Roots   []PseudoID
}

// Encode serializes a model into a canonical snapshot. Top-level nodes are
// ordered by start line, ties broken by descendant count ascending, so the
// total order does not depend on creation order. Every node gets a pseudo-id
// derived from its start line; nodes sharing a line are disambiguated by
// probing upwards.
func Encode(d *document.Document) (*Snapshot, error) {
	s := &Snapshot{Entries: map[PseudoID]*Entry{}}

	roots := append([]*document.Node(nil), d.Roots()...)
	sort.SliceStable(roots, func(i, j int) bool {
		li, lj := nodeLine(roots[i]), nodeLine(roots[j])
		if li != lj {
			return li < lj
		}
		return document.DescendantCount(roots[i]) < document.DescendantCount(roots[j])
	})

	var ordered []*document.Node
	for _, root := range roots {
		ordered = appendSubtree(ordered, root)
	}

	// First pass assigns ids in document order so probing is deterministic.
	ids := make(map[*document.Node]PseudoID, len(ordered))
	for _, n := range ordered {
		id, err := s.allocate(nodeLine(n), n.Type())
		if err != nil {
			return nil, err
		}
		e := &Entry{
			ID:     id,
			Type:   n.Type(),
			Line:   nodeLine(n),
			Fields: n.Fields(),
			node:   n,
			span:   n.Span(),
			tokens: n.Tokens(),
		}
		s.Entries[id] = e
		s.Order = append(s.Order, id)
		ids[n] = id
	}

	// Second pass records links, now that every target has an id.
	for _, n := range ordered {
		e := s.Entries[ids[n]]
		for _, def := range n.Type().Slots() {
			if head := n.Slot(def.Name); head != nil {
				if e.Slots == nil {
					e.Slots = map[string]PseudoID{}
				}
				e.Slots[def.Name] = ids[head]
			}
		}
		if next := n.Next(); next != nil {
			e.Next = ids[next]
		}
	}

	for _, root := range roots {
		s.Roots = append(s.Roots, ids[root])
	}
	return s, nil
}

func (s *Snapshot) allocate(line int, typ document.NodeType) (PseudoID, error) {
	for probe := 0; probe < maxProbe; probe++ {
		id := pseudoID(line+probe, typ)
		if _, taken := s.Entries[id]; !taken {
			return id, nil
		}
	}
	return "", errors.WithStack(ErrIdentityExhausted)
}

// Text renders the snapshot's canonical textual form. Volatile fields (spans,
// tokens, live bindings) are omitted, so two snapshots of the same logical
// document are byte-comparable.
func (s *Snapshot) Text() []byte {
	var buf bytes.Buffer

	buf.WriteString("roots:")
	for _, id := range s.Roots {
		buf.WriteByte(' ')
		buf.WriteString(string(id))
	}
	buf.WriteByte('\n')

	for _, id := range s.Order {
		e := s.Entries[id]
		fmt.Fprintf(&buf, "node %s\n", e.ID)

		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&buf, "  field %s = %s\n", name, e.Fields[name])
		}

		for _, def := range e.Type.Slots() {
			if child, ok := e.Slots[def.Name]; ok {
				fmt.Fprintf(&buf, "  slot %s -> %s\n", def.Name, child)
			}
		}
		if e.Next != "" {
			fmt.Fprintf(&buf, "  next -> %s\n", e.Next)
		}
	}
	return buf.Bytes()
}

func nodeLine(n *document.Node) int {
	if sp := n.Span(); sp != nil {
		return sp.StartLine
	}
	return 0
}

// appendSubtree collects n's subtree in document order using an explicit
// stack; sibling chains never grow the call stack.
func appendSubtree(out []*document.Node, n *document.Node) []*document.Node {
	stack := []*document.Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, c)

		if c != n && c.Next() != nil {
			stack = append(stack, c.Next())
		}
		defs := c.Type().Slots()
		for i := len(defs) - 1; i >= 0; i-- {
			if head := c.Slot(defs[i].Name); head != nil {
				stack = append(stack, head)
			}
		}
	}
	return out
}
