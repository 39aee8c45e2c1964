package document

import (
	"fmt"

	"github.com/pkg/errors"
)

// NodeType is the closed vocabulary of the node model. Slot names and field
// names are fixed per type, so dispatch on type is exhaustive at compile time
// instead of keyed by free-form strings.
type NodeType int

const (
	TypeObject NodeType = iota + 1
	TypePair
	TypeArray
	TypeScalar
)

func (t NodeType) String() string {
	switch t {
	case TypeObject:
		return "object"
	case TypePair:
		return "pair"
	case TypeArray:
		return "array"
	case TypeScalar:
		return "scalar"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// TypeFromString maps a persisted type tag back to a NodeType.
func TypeFromString(s string) (NodeType, error) {
	switch s {
	case "object":
		return TypeObject, nil
	case "pair":
		return TypePair, nil
	case "array":
		return TypeArray, nil
	case "scalar":
		return TypeScalar, nil
	}
	return 0, errors.Errorf("unknown node type %q", s)
}

// Field names.
const (
	FieldKey   = "key"
	FieldValue = "value"
)

// Slot names. SlotNext is the reserved pseudo-slot forming the sibling chain.
const (
	SlotMembers = "members"
	SlotValue   = "value"
	SlotItems   = "items"
	SlotNext    = "next"
)

// SlotDef describes one child attachment point of a node type.
type SlotDef struct {
	Name string
	// Trailing marks slots whose chains are rendered with a separator after
	// the last sibling as well.
	Trailing bool
}

// Slots returns the type's slot definitions in render order.
func (t NodeType) Slots() []SlotDef {
	switch t {
	case TypeObject:
		return []SlotDef{{Name: SlotMembers}}
	case TypePair:
		return []SlotDef{{Name: SlotValue}}
	case TypeArray:
		return []SlotDef{{Name: SlotItems}}
	}
	return nil
}

// Fields returns the type's field names in render order.
func (t NodeType) Fields() []string {
	switch t {
	case TypePair:
		return []string{FieldKey}
	case TypeScalar:
		return []string{FieldValue}
	}
	return nil
}

func (t NodeType) hasSlot(name string) bool {
	for _, def := range t.Slots() {
		if def.Name == name {
			return true
		}
	}
	return false
}

// Node is one element of the node model. A node owns a field map, a set of
// named slots each holding the head of a sibling chain, and a "next" link to
// the following sibling in its own chain. The surrounding parent and slot are
// tracked explicitly at link time, so parent lookup never walks the tree.
type Node struct {
	id     string
	typ    NodeType
	fields map[string]string

	slots map[string]*Node
	next  *Node
	prev  *Node

	parent     *Node
	parentSlot string

	span       *Span
	fieldSpans map[string]*Span
	slotSpans  map[string]*Span
	tokens     *TokenSet
}

// NewNode creates an unlinked node with default generation tokens.
func NewNode(typ NodeType, id string) *Node {
	return &Node{
		id:         id,
		typ:        typ,
		fields:     map[string]string{},
		slots:      map[string]*Node{},
		fieldSpans: map[string]*Span{},
		slotSpans:  map[string]*Span{},
		tokens:     defaultTokens(typ),
	}
}

func (n *Node) ID() string     { return n.id }
func (n *Node) Type() NodeType { return n.typ }

func (n *Node) Field(name string) string           { return n.fields[name] }
func (n *Node) SetField(name, value string)        { n.fields[name] = value }
func (n *Node) FieldSpan(name string) *Span        { return n.fieldSpans[name] }
func (n *Node) setFieldSpan(name string, sp *Span) { n.fieldSpans[name] = sp }

// Fields returns a copy of the field map.
func (n *Node) Fields() map[string]string {
	out := make(map[string]string, len(n.fields))
	for k, v := range n.fields {
		out[k] = v
	}
	return out
}

// Slot returns the head of the sibling chain in the named slot, or nil.
func (n *Node) Slot(name string) *Node { return n.slots[name] }

func (n *Node) Next() *Node        { return n.next }
func (n *Node) Prev() *Node        { return n.prev }
func (n *Node) Parent() *Node      { return n.parent }
func (n *Node) ParentSlot() string { return n.parentSlot }

func (n *Node) Span() *Span          { return n.span }
func (n *Node) SetSpan(sp *Span)     { n.span = sp }
func (n *Node) Tokens() *TokenSet    { return n.tokens }
func (n *Node) SetTokens(t *TokenSet) {
	if t == nil {
		t = &TokenSet{}
	}
	n.tokens = t
}

func (n *Node) SlotSpan(name string) *Span { return n.slotSpans[name] }

// ChainLen returns the number of nodes in the chain starting at n.
func (n *Node) ChainLen() int {
	count := 0
	for c := n; c != nil; c = c.next {
		count++
	}
	return count
}

// LastInChain returns the final sibling of the chain starting at n.
func (n *Node) LastInChain() *Node {
	c := n
	for c.next != nil {
		c = c.next
	}
	return c
}

// Linked reports whether the node is attached to a parent slot or to a
// preceding sibling.
func (n *Node) Linked() bool {
	return n.parent != nil || n.prev != nil
}

// LinkSlot attaches child as the head of parent's named slot. The slot must
// be defined for the parent's type and empty.
func LinkSlot(parent *Node, slot string, child *Node) error {
	if !parent.typ.hasSlot(slot) {
		return errors.Errorf("type %s has no slot %q", parent.typ, slot)
	}
	if parent.slots[slot] != nil {
		return errors.Errorf("slot %q of %s already occupied", slot, parent.id)
	}
	if child.Linked() {
		return errors.Errorf("node %s is already linked", child.id)
	}
	parent.slots[slot] = child
	child.parent = parent
	child.parentSlot = slot
	return nil
}

// UnlinkSlot detaches child from parent's named slot head. The rest of the
// child's chain, if any, stays attached through the new head.
func UnlinkSlot(parent *Node, slot string, child *Node) error {
	if parent.slots[slot] != child {
		return errors.Errorf("node %s is not the head of slot %q", child.id, slot)
	}
	rest := child.next
	parent.slots[slot] = rest
	if rest != nil {
		rest.prev = nil
		rest.parent = parent
		rest.parentSlot = slot
	}
	child.parent = nil
	child.parentSlot = ""
	child.next = nil
	return nil
}

// LinkNext splices child right after prev in prev's sibling chain. O(1) at a
// known position; no array shifting is involved.
func LinkNext(prev, child *Node) error {
	if child.Linked() {
		return errors.Errorf("node %s is already linked", child.id)
	}
	child.next = prev.next
	if prev.next != nil {
		prev.next.prev = child
	}
	prev.next = child
	child.prev = prev
	child.parent = prev.parent
	child.parentSlot = prev.parentSlot
	return nil
}

// The Attach/Detach variants below manipulate single link edges without
// splicing the surrounding chain. Change-set replay uses them: a change-set
// expresses links as independent set elements, so removing (prev, next,
// child) must not silently re-tie child's own next link to prev.

// AttachSlot sets child as the head of parent's named slot.
func AttachSlot(parent *Node, slot string, child *Node) error {
	if !parent.typ.hasSlot(slot) {
		return errors.Errorf("type %s has no slot %q", parent.typ, slot)
	}
	if parent.slots[slot] != nil {
		return errors.Errorf("slot %q of %s already occupied", slot, parent.id)
	}
	if child.parent != nil || child.prev != nil {
		return errors.Errorf("node %s is already linked", child.id)
	}
	parent.slots[slot] = child
	for c := child; c != nil; c = c.next {
		c.parent = parent
		c.parentSlot = slot
	}
	return nil
}

// DetachSlot clears parent's named slot, which must hold child. The child
// keeps its own next link; only the parent edge is removed.
func DetachSlot(parent *Node, slot string, child *Node) error {
	if parent.slots[slot] != child {
		return errors.Errorf("node %s is not the head of slot %q", child.id, slot)
	}
	parent.slots[slot] = nil
	child.parent = nil
	child.parentSlot = ""
	return nil
}

// AttachNext ties child as prev's following sibling. prev must have no next
// and child must be unattached.
func AttachNext(prev, child *Node) error {
	if prev.next != nil {
		return errors.Errorf("node %s already has a next sibling", prev.id)
	}
	if child.parent != nil || child.prev != nil {
		return errors.Errorf("node %s is already linked", child.id)
	}
	prev.next = child
	child.prev = prev
	for c := child; c != nil; c = c.next {
		c.parent = prev.parent
		c.parentSlot = prev.parentSlot
	}
	return nil
}

// DetachNext removes the edge between prev and its following sibling child
// without reconnecting child's own next link.
func DetachNext(prev, child *Node) error {
	if prev.next != child {
		return errors.Errorf("node %s does not follow %s", child.id, prev.id)
	}
	prev.next = nil
	child.prev = nil
	child.parent = nil
	child.parentSlot = ""
	return nil
}

// UnlinkNext detaches child from its preceding sibling prev.
func UnlinkNext(prev, child *Node) error {
	if prev.next != child {
		return errors.Errorf("node %s does not follow %s", child.id, prev.id)
	}
	prev.next = child.next
	if child.next != nil {
		child.next.prev = prev
	}
	child.next = nil
	child.prev = nil
	child.parent = nil
	child.parentSlot = ""
	return nil
}
