package document

import "bytes"

// Render regenerates the whole document text from stored tokens and current
// field/slot values. For a document whose model is unchanged since the last
// build, the output is byte-identical to the source.
func Render(d *Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(d.leading)
	for i, root := range d.roots {
		if i > 0 {
			buf.WriteByte('\n')
		}
		renderInto(&buf, root)
	}
	buf.WriteString(d.trailing)
	return buf.Bytes()
}

// RenderNode regenerates the text of a single subtree. The text patcher uses
// it for localized regeneration, leaving untouched siblings alone.
func RenderNode(n *Node) []byte {
	var buf bytes.Buffer
	renderInto(&buf, n)
	return buf.Bytes()
}

func renderInto(buf *bytes.Buffer, n *Node) {
	if n.typ == TypeScalar {
		buf.WriteString(n.fields[FieldValue])
		return
	}
	if n.typ == TypePair {
		buf.WriteString(n.fields[FieldKey])
	}

	tok := n.tokens
	buf.WriteString(tok.Prefix)

	for _, def := range n.typ.Slots() {
		head := n.slots[def.Name]
		// Iterate the chain explicitly; recursion happens only per nesting
		// level, never per sibling.
		for c := head; c != nil; c = c.next {
			if c != head {
				buf.WriteString(separatorOf(c))
			}
			renderInto(buf, c)
		}
		if head != nil && (def.Trailing || tok.Trailing) {
			buf.WriteString(tok.TrailingSep)
		}
	}

	buf.WriteString(tok.Suffix)
}

// separatorOf returns the text to emit before a non-first sibling: the
// sampled separator when present, otherwise the generation-rule default
// combined with the chain's sampled indent.
func separatorOf(n *Node) string {
	if n.tokens != nil && n.tokens.Separator != "" {
		return n.tokens.Separator
	}
	return defaultSeparator
}
