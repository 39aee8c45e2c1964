package document

import (
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mirrordoc/mirrordoc/internal/ulid"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

// The archive is the payload handed to the storage collaborator: per node its
// session id, type, field map, slot map, next-sibling id, plus token and span
// metadata so an identical model (including formatting) can be rebuilt. The
// top-level id list is recorded separately.

type archiveNode struct {
	ID     string            `yaml:"id"`
	Type   string            `yaml:"type"`
	Fields map[string]string `yaml:"fields,omitempty"`
	Slots  map[string]string `yaml:"slots,omitempty"`
	Next   string            `yaml:"next,omitempty"`
	Tokens *TokenSet         `yaml:"tokens,omitempty"`
	Span   *Span             `yaml:"span,omitempty"`
}

type archive struct {
	Roots []string      `yaml:"roots"`
	Nodes []archiveNode `yaml:"nodes"`
}

// SaveArchive serializes the document for the storage collaborator.
func SaveArchive(d *Document) ([]byte, error) {
	a := archive{}
	for _, r := range d.roots {
		a.Roots = append(a.Roots, r.id)
	}

	d.Walk(func(n *Node) bool {
		rec := archiveNode{
			ID:     n.id,
			Type:   n.typ.String(),
			Fields: n.Fields(),
			Tokens: n.tokens.clone(),
			Span:   n.span.clone(),
		}
		if len(rec.Fields) == 0 {
			rec.Fields = nil
		}
		for _, def := range n.typ.Slots() {
			if head := n.slots[def.Name]; head != nil {
				if rec.Slots == nil {
					rec.Slots = map[string]string{}
				}
				rec.Slots[def.Name] = head.id
			}
		}
		if n.next != nil {
			rec.Next = n.next.id
		}
		a.Nodes = append(a.Nodes, rec)
		return true
	})

	sort.Slice(a.Nodes, func(i, j int) bool { return a.Nodes[i].ID < a.Nodes[j].ID })

	data, err := yaml.Marshal(&a)
	return data, errors.WithStack(err)
}

// LoadArchive rebuilds a model from an archive payload. Persisted ids are
// adopted when valid; otherwise fresh ones are generated.
func LoadArchive(data []byte, resolver *identity.Resolver) (*Document, error) {
	var a archive
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, errors.WithStack(err)
	}

	d := newDocument(nil, resolver)
	d.spansFresh = false // spans, if any, describe a text this session has not seen yet

	byID := make(map[string]*Node, len(a.Nodes))
	for _, rec := range a.Nodes {
		typ, err := TypeFromString(rec.Type)
		if err != nil {
			return nil, err
		}
		id := rec.ID
		if !ulid.ValidID(id) {
			return nil, errors.Errorf("archive node has invalid id %q", rec.ID)
		}
		n := NewNode(typ, id)
		resolver.Adopt(n, id)
		for name, value := range rec.Fields {
			n.fields[name] = value
		}
		if rec.Tokens != nil {
			n.tokens = rec.Tokens.clone()
		}
		n.span = rec.Span.clone()
		if _, dup := byID[id]; dup {
			return nil, errors.Errorf("archive contains duplicate id %q", id)
		}
		byID[id] = n
		d.nodes[id] = n
	}

	resolve := func(id string) (*Node, error) {
		n, ok := byID[id]
		if !ok {
			return nil, errors.Errorf("archive references unknown id %q", id)
		}
		return n, nil
	}

	for _, rec := range a.Nodes {
		n := byID[rec.ID]
		for slot, childID := range rec.Slots {
			child, err := resolve(childID)
			if err != nil {
				return nil, err
			}
			if err := LinkSlot(n, slot, child); err != nil {
				return nil, err
			}
		}
		if rec.Next != "" {
			next, err := resolve(rec.Next)
			if err != nil {
				return nil, err
			}
			if err := LinkNext(n, next); err != nil {
				return nil, err
			}
		}
	}

	// LinkNext copies parent pointers from the preceding sibling, which may
	// not have been attached to its parent yet at that point. Re-derive
	// parent links from the slot heads now that all links exist.
	for _, n := range byID {
		for _, def := range n.typ.Slots() {
			for c := n.slots[def.Name]; c != nil; c = c.next {
				c.parent = n
				c.parentSlot = def.Name
			}
		}
	}

	for _, rootID := range a.Roots {
		root, err := resolve(rootID)
		if err != nil {
			return nil, err
		}
		d.roots = append(d.roots, root)
	}

	d.source = Render(d)
	d.spansFresh = false
	return d, nil
}
