// Package document holds the node model of one structured document and the
// machinery keeping it exchangeable with its serialized text form: the
// position-tagged tree builder, the code generator, and the text patcher.
package document

import (
	"github.com/pkg/errors"

	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

// Document owns the ordered list of top-level nodes. In normal operation
// there is exactly one root; more are tolerated during transient edit states
// such as duplication.
type Document struct {
	source   []byte
	roots    []*Node
	nodes    map[string]*Node
	resolver *identity.Resolver

	// leading and trailing hold document text outside the root node's span,
	// e.g. surrounding whitespace, so whole-document rendering stays
	// byte-faithful.
	leading  string
	trailing string

	// spansFresh is cleared by the first model edit that is not yet
	// re-synchronized with the text. While cleared, patch computations
	// refuse to trust stored spans.
	spansFresh bool
}

func newDocument(source []byte, resolver *identity.Resolver) *Document {
	return &Document{
		source:     source,
		nodes:      map[string]*Node{},
		resolver:   resolver,
		spansFresh: true,
	}
}

// NewEmpty creates a document with no roots, e.g. as a target for replaying a
// persisted snapshot.
func NewEmpty(resolver *identity.Resolver) *Document {
	return newDocument(nil, resolver)
}

func (d *Document) Source() []byte { return d.source }

// Roots returns the top-level node list.
func (d *Document) Roots() []*Node { return d.roots }

// Root returns the single top-level node of a well-formed document.
func (d *Document) Root() (*Node, error) {
	if len(d.roots) != 1 {
		return nil, errors.Errorf("document has %d top-level nodes, expected 1", len(d.roots))
	}
	return d.roots[0], nil
}

// NodeByID looks up a live node by its transient identity.
func (d *Document) NodeByID(id string) *Node { return d.nodes[id] }

// Resolver returns the identity resolver owning this document's node ids.
func (d *Document) Resolver() *identity.Resolver { return d.resolver }

// SpansFresh reports whether stored spans still describe the current text.
func (d *Document) SpansFresh() bool { return d.spansFresh }

// MarkSpansStale records that a model edit invalidated stored spans.
func (d *Document) MarkSpansStale() { d.spansFresh = false }

// RefreshSource installs the text the model is now synchronized with and
// re-arms span-based patching.
func (d *Document) RefreshSource(source []byte) {
	d.source = source
	d.spansFresh = true
}

// SetLayout installs the document text outside the root node's span.
func (d *Document) SetLayout(leading, trailing string) {
	d.leading = leading
	d.trailing = trailing
}

// Layout returns the document text outside the root node's span.
func (d *Document) Layout() (leading, trailing string) {
	return d.leading, d.trailing
}

// NewNode creates an unlinked node owned by this document, with a fresh
// transient identity. Change-set replay uses it for Create entries.
func (d *Document) NewNode(typ NodeType) *Node {
	n := NewNode(typ, "")
	n.id = d.resolver.GetNodeID(n)
	d.nodes[n.id] = n
	return n
}

// Adopt registers a node created outside a parse, typically by change-set
// replay. It is the caller's duty to link the node afterwards.
func (d *Document) Adopt(n *Node) error {
	if _, ok := d.nodes[n.id]; ok {
		return errors.Errorf("node %s already registered", n.id)
	}
	d.nodes[n.id] = n
	return nil
}

// Release destroys a node that is unlinked from all slots and from the
// top-level list.
func (d *Document) Release(n *Node) error {
	if n.Linked() {
		return errors.Errorf("node %s is still linked", n.id)
	}
	if len(d.rootIndexes(n)) > 0 {
		return errors.Errorf("node %s is still a top-level node", n.id)
	}
	delete(d.nodes, n.id)
	d.resolver.Forget(n)
	return nil
}

// ReleaseSubtree destroys an unlinked node together with every node it owns
// through its slots. Following siblings of n are not part of the subtree and
// stay registered.
func (d *Document) ReleaseSubtree(n *Node) error {
	if n.Linked() {
		return errors.Errorf("node %s is still linked", n.id)
	}
	if len(d.rootIndexes(n)) > 0 {
		return errors.Errorf("node %s is still a top-level node", n.id)
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		delete(d.nodes, c.id)
		d.resolver.Forget(c)
		for _, def := range c.typ.Slots() {
			for child := c.slots[def.Name]; child != nil; child = child.next {
				stack = append(stack, child)
			}
		}
	}
	return nil
}

// AddRoot appends a node to the top-level list.
func (d *Document) AddRoot(n *Node) {
	d.roots = append(d.roots, n)
}

// RemoveRoot removes a node from the top-level list.
func (d *Document) RemoveRoot(n *Node) error {
	idxs := d.rootIndexes(n)
	if len(idxs) == 0 {
		return errors.Errorf("node %s is not a top-level node", n.id)
	}
	i := idxs[0]
	d.roots = append(d.roots[:i], d.roots[i+1:]...)
	return nil
}

func (d *Document) rootIndexes(n *Node) []int {
	var out []int
	for i, r := range d.roots {
		if r == n {
			out = append(out, i)
		}
	}
	return out
}

// Walk visits every node in document order: each root, then per node its
// slots in type order, each slot's chain front to back. The traversal uses an
// explicit work list, so it cannot exhaust the stack on long sibling chains.
// Returning false from fn stops the walk.
func (d *Document) Walk(fn func(*Node) bool) {
	stack := make([]*Node, 0, len(d.roots))
	for i := len(d.roots) - 1; i >= 0; i-- {
		stack = append(stack, d.roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(n) {
			return
		}

		// Push the following sibling first so the chain is visited in order
		// after this node's subtree.
		if n.next != nil {
			stack = append(stack, n.next)
		}
		defs := n.typ.Slots()
		for i := len(defs) - 1; i >= 0; i-- {
			if head := n.slots[defs[i].Name]; head != nil {
				stack = append(stack, head)
			}
		}
	}
}

// FindNode returns the first node in document order matching the predicate.
func (d *Document) FindNode(fn func(*Node) bool) *Node {
	var found *Node
	d.Walk(func(n *Node) bool {
		if fn(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// DescendantCount returns the number of nodes in n's subtree, excluding n
// itself and excluding siblings that follow n.
func DescendantCount(n *Node) int {
	count := -1 // the walk below counts n too
	stack := []*Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, def := range c.typ.Slots() {
			for child := c.slots[def.Name]; child != nil; child = child.next {
				stack = append(stack, child)
			}
		}
	}
	return count
}
