package sync

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/mirrordoc/mirrordoc/pkg/document"
)

// ErrPrecondition reports a change-set entry whose preconditions do not hold
// against the live model: a create for an existing id, a removal of a link
// that is not present, a field change whose old value does not match. This is
// a synthesizer defect, not a user-recoverable state; the applier refuses the
// whole change-set.
var ErrPrecondition = errors.New("sync: change-set precondition violated")

// Applier replays a change-set against the live model, one entry at a time.
// Entries are atomic and independently undoable by replaying the inverse
// entry. The whole set is validated up front: either every entry is applied
// or none is.
type Applier struct {
	doc       *document.Document
	byID      map[PseudoID]*document.Node
	onApplied func(Change)
}

// NewApplier binds an applier to the live model and the model's own
// stabilized snapshot, whose entries carry the id-to-node binding.
func NewApplier(doc *document.Document, snap *Snapshot) *Applier {
	a := &Applier{
		doc:  doc,
		byID: make(map[PseudoID]*document.Node, len(snap.Order)),
	}
	for id, e := range snap.Entries {
		if e.node != nil {
			a.byID[id] = e.node
		}
	}
	return a
}

// OnApplied registers a callback invoked once per replayed entry.
func (a *Applier) OnApplied(fn func(Change)) { a.onApplied = fn }

// NodeFor returns the live node an id resolves to, including nodes created
// during the last Apply.
func (a *Applier) NodeFor(id PseudoID) *document.Node { return a.byID[id] }

// Apply validates and replays the change-set. Replaying an empty set against
// a current model is a no-op; replaying a set derived from anything but a
// genuine diff of the current model is a caller error.
func (a *Applier) Apply(cs *ChangeSet) error {
	if err := a.validate(cs); err != nil {
		return err
	}
	for _, c := range cs.Changes {
		if err := a.apply(c); err != nil {
			// Validation let a defective entry through; surface it as the
			// same fatal kind without applying anything further.
			return multierr.Append(errors.WithStack(ErrPrecondition), err)
		}
		if a.onApplied != nil {
			a.onApplied(c)
		}
	}
	return nil
}

// validate checks every entry's preconditions against the live model plus
// the simulated effect of earlier entries: node existence, link presence and
// slot occupancy are all tracked through the set, so a defective entry is
// caught before anything applies. All violations are reported together.
func (a *Applier) validate(cs *ChangeSet) error {
	exists := make(map[PseudoID]bool, len(a.byID))
	for id := range a.byID {
		exists[id] = true
	}
	links, occupied := a.currentLinks()

	var errs error
	report := func(c Change, format string, args ...interface{}) {
		errs = multierr.Append(errs, errors.Wrapf(ErrPrecondition, "%s: "+format, append([]interface{}{c}, args...)...))
	}

	for _, c := range cs.Changes {
		switch c.Op {
		case OpCreate:
			if exists[c.Node] {
				report(c, "id already present")
				continue
			}
			exists[c.Node] = true
		case OpDelete:
			if !exists[c.Node] {
				report(c, "id not present")
				continue
			}
			delete(exists, c.Node)
		case OpLinkRemove:
			if c.Parent != "" && !exists[c.Parent] {
				report(c, "parent not present")
				continue
			}
			if !exists[c.Child] {
				report(c, "child not present")
				continue
			}
			l := link{Parent: c.Parent, Slot: c.Slot, Child: c.Child}
			if !links[l] {
				report(c, "link not present")
				continue
			}
			delete(links, l)
			delete(occupied, slotKey{Parent: c.Parent, Slot: c.Slot})
		case OpLinkAdd:
			if c.Parent != "" && !exists[c.Parent] {
				report(c, "parent not present")
				continue
			}
			if !exists[c.Child] {
				report(c, "child not present")
				continue
			}
			l := link{Parent: c.Parent, Slot: c.Slot, Child: c.Child}
			if links[l] {
				report(c, "link already present")
				continue
			}
			// The top-level list holds any number of children; every other
			// attachment point holds at most one.
			if c.Parent != "" || c.Slot != SlotTop {
				k := slotKey{Parent: c.Parent, Slot: c.Slot}
				if occupied[k] {
					report(c, "slot already occupied")
					continue
				}
				occupied[k] = true
			}
			links[l] = true
		case OpFieldChange:
			if !exists[c.Node] {
				report(c, "id not present")
				continue
			}
			if n := a.byID[c.Node]; n != nil && n.Field(c.Field) != c.Old {
				report(c, "old value mismatch: have %q, want %q", n.Field(c.Field), c.Old)
			}
		default:
			report(c, "unknown op")
		}
	}
	return errs
}

// slotKey identifies one single-occupancy attachment point.
type slotKey struct {
	Parent PseudoID
	Slot   string
}

// currentLinks snapshots the live model's link edges and occupied attachment
// points in pseudo-id terms, seeding the validation simulation.
func (a *Applier) currentLinks() (map[link]bool, map[slotKey]bool) {
	rev := make(map[*document.Node]PseudoID, len(a.byID))
	for id, n := range a.byID {
		rev[n] = id
	}

	links := map[link]bool{}
	occupied := map[slotKey]bool{}

	for _, r := range a.doc.Roots() {
		if id, ok := rev[r]; ok {
			links[link{Parent: "", Slot: SlotTop, Child: id}] = true
		}
	}
	for id, n := range a.byID {
		for _, def := range n.Type().Slots() {
			head := n.Slot(def.Name)
			if head == nil {
				continue
			}
			if cid, ok := rev[head]; ok {
				links[link{Parent: id, Slot: def.Name, Child: cid}] = true
				occupied[slotKey{Parent: id, Slot: def.Name}] = true
			}
		}
		if next := n.Next(); next != nil {
			if cid, ok := rev[next]; ok {
				links[link{Parent: id, Slot: document.SlotNext, Child: cid}] = true
				occupied[slotKey{Parent: id, Slot: document.SlotNext}] = true
			}
		}
	}
	return links, occupied
}

func (a *Applier) apply(c Change) error {
	switch c.Op {
	case OpLinkRemove:
		return a.applyLinkRemove(c)
	case OpDelete:
		n := a.byID[c.Node]
		delete(a.byID, c.Node)
		return a.doc.Release(n)
	case OpCreate:
		n := a.doc.NewNode(c.Type)
		for name, value := range c.Fields {
			n.SetField(name, value)
		}
		if c.span != nil {
			n.SetSpan(c.span)
		}
		if c.tokens != nil {
			n.SetTokens(c.tokens)
		}
		a.byID[c.Node] = n
		return nil
	case OpLinkAdd:
		return a.applyLinkAdd(c)
	case OpFieldChange:
		a.byID[c.Node].SetField(c.Field, c.New)
		return nil
	}
	return errors.Errorf("unknown op %s", c.Op)
}

func (a *Applier) applyLinkAdd(c Change) error {
	child := a.byID[c.Child]
	if c.Parent == "" && c.Slot == SlotTop {
		a.doc.AddRoot(child)
		return nil
	}
	parent := a.byID[c.Parent]
	if c.Slot == document.SlotNext {
		return document.AttachNext(parent, child)
	}
	return document.AttachSlot(parent, c.Slot, child)
}

func (a *Applier) applyLinkRemove(c Change) error {
	child := a.byID[c.Child]
	if c.Parent == "" && c.Slot == SlotTop {
		return a.doc.RemoveRoot(child)
	}
	parent := a.byID[c.Parent]
	if c.Slot == document.SlotNext {
		return document.DetachNext(parent, child)
	}
	return document.DetachSlot(parent, c.Slot, child)
}
