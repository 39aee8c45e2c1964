package document

import (
	"github.com/pkg/errors"

	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
	"github.com/mirrordoc/mirrordoc/pkg/syntax"
)

// Build parses source and constructs the node model with per-node spans and
// sampled formatting tokens. The contract is round-trip fidelity: for any
// source accepted by the grammar, Render(Build(source)) == source.
func Build(source []byte, resolver *identity.Resolver) (*Document, error) {
	root, err := syntax.Parse(source)
	if err != nil {
		return nil, err
	}

	d := newDocument(source, resolver)
	node, err := d.buildNode(root)
	if err != nil {
		return nil, err
	}
	d.roots = append(d.roots, node)

	// Text outside the root value's span (typically leading or trailing
	// whitespace) belongs to the document, not to any node.
	d.leading = string(source[:root.Span.Start.Offset])
	d.trailing = string(source[root.Span.End.Offset:])
	return d, nil
}

func (d *Document) buildNode(sn *syntax.Node) (*Node, error) {
	switch sn.Kind {
	case syntax.KindScalar:
		return d.buildScalar(sn)
	case syntax.KindPair:
		return d.buildPair(sn)
	case syntax.KindObject:
		return d.buildContainer(sn, TypeObject, SlotMembers)
	case syntax.KindArray:
		return d.buildContainer(sn, TypeArray, SlotItems)
	}
	return nil, errors.Errorf("unhandled syntax kind %s", sn.Kind)
}

func (d *Document) newModelNode(typ NodeType, sn *syntax.Node) *Node {
	n := NewNode(typ, d.resolver.GetNodeID(sn))
	n.span = spanFromSyntax(sn.Span)
	n.tokens = &TokenSet{}
	d.nodes[n.id] = n
	return n
}

func (d *Document) buildScalar(sn *syntax.Node) (*Node, error) {
	n := d.newModelNode(TypeScalar, sn)
	n.fields[FieldValue] = sn.Raw
	n.fieldSpans[FieldValue] = spanFromSyntax(sn.Span)
	return n, nil
}

// buildPair maps a key/value member. The raw key literal becomes a field, the
// colon and any surrounding whitespace become the prefix, and the value child
// occupies the single "value" slot.
func (d *Document) buildPair(sn *syntax.Node) (*Node, error) {
	if sn.Key == nil || len(sn.Children) != 1 {
		return nil, errors.Errorf("malformed pair at offset %d", sn.Span.Start.Offset)
	}

	n := d.newModelNode(TypePair, sn)
	n.fields[FieldKey] = sn.Key.Raw
	n.fieldSpans[FieldKey] = spanFromSyntax(sn.Key.Span)

	value, err := d.buildNode(sn.Children[0])
	if err != nil {
		return nil, err
	}
	if err := LinkSlot(n, SlotValue, value); err != nil {
		return nil, err
	}

	n.tokens.Prefix = string(d.source[sn.Key.Span.End.Offset:sn.Children[0].Span.Start.Offset])
	n.tokens.Suffix = string(d.source[sn.Children[0].Span.End.Offset:sn.Span.End.Offset])
	n.slotSpans[SlotValue] = spanFromSyntax(sn.Children[0].Span)
	return n, nil
}

// buildContainer maps an object or array: one homogeneous child slot whose
// formatting is inferred by sampling the literal source between
// structurally-adjacent children.
func (d *Document) buildContainer(sn *syntax.Node, typ NodeType, slot string) (*Node, error) {
	n := d.newModelNode(typ, sn)

	if len(sn.Children) == 0 {
		// No children to sample between. The closing bracket becomes the
		// suffix so that a later insertion lands inside the container.
		literal := string(sn.Span.Text(d.source))
		n.tokens.Prefix = literal[:len(literal)-1]
		n.tokens.Suffix = literal[len(literal)-1:]
		return n, nil
	}

	first := sn.Children[0]
	last := sn.Children[len(sn.Children)-1]
	n.tokens.Prefix = string(d.source[sn.Span.Start.Offset:first.Span.Start.Offset])
	n.tokens.Suffix = string(d.source[last.Span.End.Offset:sn.Span.End.Offset])
	n.slotSpans[slot] = &Span{
		Start:     first.Span.Start.Offset,
		End:       last.Span.End.Offset,
		StartLine: first.Span.Start.Line,
		StartCol:  first.Span.Start.Column,
		EndLine:   last.Span.End.Line,
		EndCol:    last.Span.End.Column,
	}

	var prevSyntax *syntax.Node
	var prevModel *Node
	for _, child := range sn.Children {
		cn, err := d.buildNode(child)
		if err != nil {
			return nil, err
		}
		if prevModel == nil {
			if err := LinkSlot(n, slot, cn); err != nil {
				return nil, err
			}
		} else {
			sep := string(d.source[prevSyntax.Span.End.Offset:child.Span.Start.Offset])
			cn.tokens.Separator = sep
			cn.tokens.Indent = indentOf(sep)
			if err := LinkNext(prevModel, cn); err != nil {
				return nil, err
			}
		}
		prevSyntax, prevModel = child, cn
	}
	return n, nil
}

// indentOf returns the whitespace run following the last newline in sep, or
// the empty string when sep has no newline (flat formatting).
func indentOf(sep string) string {
	last := -1
	for i := 0; i < len(sep); i++ {
		if sep[i] == '\n' {
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	indent := sep[last+1:]
	for i := 0; i < len(indent); i++ {
		if indent[i] != ' ' && indent[i] != '\t' {
			return indent[:i]
		}
	}
	return indent
}
