package sync

import (
	"fmt"
	"sort"

	"github.com/mirrordoc/mirrordoc/pkg/document"
)

// Op tags one change-set entry.
type Op int

const (
	OpLinkRemove Op = iota + 1
	OpDelete
	OpCreate
	OpLinkAdd
	OpFieldChange
)

func (o Op) String() string {
	switch o {
	case OpLinkRemove:
		return "link-remove"
	case OpDelete:
		return "delete"
	case OpCreate:
		return "create"
	case OpLinkAdd:
		return "link-add"
	case OpFieldChange:
		return "field-change"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// SlotTop is the reserved slot name linking a node into the document's
// top-level list; the parent id of such links is empty.
const SlotTop = "top"

// Change is one structural edit. Which members are meaningful depends on Op:
// creates carry Node/Type/Fields (plus span and tokens for position
// adoption), deletes carry Node, link ops carry Parent/Slot/Child, field
// changes carry Node/Field/Old/New.
type Change struct {
	Op Op

	Node   PseudoID
	Type   document.NodeType
	Fields map[string]string

	Parent PseudoID
	Slot   string
	Child  PseudoID

	Field string
	Old   string
	New   string

	span   *document.Span
	tokens *document.TokenSet
}

func (c Change) String() string {
	switch c.Op {
	case OpCreate:
		return fmt.Sprintf("create %s %s", c.Node, c.Type)
	case OpDelete:
		return fmt.Sprintf("delete %s", c.Node)
	case OpLinkAdd:
		return fmt.Sprintf("link-add %s.%s -> %s", c.Parent, c.Slot, c.Child)
	case OpLinkRemove:
		return fmt.Sprintf("link-remove %s.%s -> %s", c.Parent, c.Slot, c.Child)
	case OpFieldChange:
		return fmt.Sprintf("field-change %s.%s: %q -> %q", c.Node, c.Field, c.Old, c.New)
	}
	return c.Op.String()
}

// ChangeSet is the minimal ordered edit script between two reconciled
// snapshots. Entries are grouped so replay is always safe: link removals
// before node deletions (a node cannot be destroyed while linked), node
// creations before the link additions that target them, field changes last.
type ChangeSet struct {
	Changes []Change
}

func (cs *ChangeSet) Empty() bool { return len(cs.Changes) == 0 }
func (cs *ChangeSet) Len() int    { return len(cs.Changes) }

// ByOp returns the entries with the given tag, in replay order.
func (cs *ChangeSet) ByOp(op Op) []Change {
	var out []Change
	for _, c := range cs.Changes {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

type link struct {
	Parent PseudoID
	Slot   string
	Child  PseudoID
}

// Diff computes the structural edit script turning the old snapshot's
// document into the new one's. Both snapshots must have been reconciled by
// Stabilize first; ids are compared literally.
func Diff(old, new *Snapshot) *ChangeSet {
	cs := &ChangeSet{}

	oldLinks := linkSet(old)
	newLinks := linkSet(new)

	// Link removals, in old snapshot order.
	for _, l := range orderedLinks(old, oldLinks) {
		if !newLinks[l] {
			cs.Changes = append(cs.Changes, Change{Op: OpLinkRemove, Parent: l.Parent, Slot: l.Slot, Child: l.Child})
		}
	}

	// Node deletions, in old snapshot order.
	for _, id := range old.Order {
		if _, ok := new.Entries[id]; !ok {
			cs.Changes = append(cs.Changes, Change{Op: OpDelete, Node: id})
		}
	}

	// Node creations, in new snapshot order.
	for _, id := range new.Order {
		if _, ok := old.Entries[id]; !ok {
			e := new.Entries[id]
			cs.Changes = append(cs.Changes, Change{
				Op:     OpCreate,
				Node:   id,
				Type:   e.Type,
				Fields: e.Fields,
				span:   e.span,
				tokens: e.tokens,
			})
		}
	}

	// Link additions, in new snapshot order.
	for _, l := range orderedLinks(new, newLinks) {
		if !oldLinks[l] {
			cs.Changes = append(cs.Changes, Change{Op: OpLinkAdd, Parent: l.Parent, Slot: l.Slot, Child: l.Child})
		}
	}

	// Field changes for ids present on both sides.
	for _, id := range new.Order {
		ne := new.Entries[id]
		oe, ok := old.Entries[id]
		if !ok {
			continue
		}
		names := make([]string, 0, len(ne.Fields))
		for name := range ne.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if oe.Fields[name] != ne.Fields[name] {
				cs.Changes = append(cs.Changes, Change{
					Op:    OpFieldChange,
					Node:  id,
					Field: name,
					Old:   oe.Fields[name],
					New:   ne.Fields[name],
				})
			}
		}
	}

	return cs
}

func linkSet(s *Snapshot) map[link]bool {
	links := map[link]bool{}
	for _, id := range s.Roots {
		links[link{Parent: "", Slot: SlotTop, Child: id}] = true
	}
	for _, id := range s.Order {
		e := s.Entries[id]
		for slot, child := range e.Slots {
			links[link{Parent: id, Slot: slot, Child: child}] = true
		}
		if e.Next != "" {
			links[link{Parent: id, Slot: document.SlotNext, Child: e.Next}] = true
		}
	}
	return links
}

// orderedLinks lists a snapshot's links deterministically: root links first,
// then per node in snapshot order its slot links (slot order) and next link.
func orderedLinks(s *Snapshot, links map[link]bool) []link {
	out := make([]link, 0, len(links))
	for _, id := range s.Roots {
		out = append(out, link{Parent: "", Slot: SlotTop, Child: id})
	}
	for _, id := range s.Order {
		e := s.Entries[id]
		for _, def := range e.Type.Slots() {
			if child, ok := e.Slots[def.Name]; ok {
				out = append(out, link{Parent: id, Slot: def.Name, Child: child})
			}
		}
		if e.Next != "" {
			out = append(out, link{Parent: id, Slot: document.SlotNext, Child: e.Next})
		}
	}
	return out
}
