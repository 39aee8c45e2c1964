package sync

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stabilize reconciles the pseudo-ids of an old snapshot against a new one
// when both describe almost-the-same document. Line insertions and deletions
// elsewhere in the text shift the line numbers later pseudo-ids are derived
// from; without correction every shifted node would look renamed.
//
// The old snapshot is relabeled in place into the new text's line
// coordinates: one line-level diff of the two texts yields an old-line to
// new-line mapping, every old id is re-derived through it, and collisions are
// resolved by probing upwards exactly like the encoder does. Because both
// sides assign ids in document order with the same probing rule, logically
// identical nodes end up with equal ids; ids differ only where content
// genuinely differs.
//
// Returns the number of old ids that agree with the new snapshot afterwards.
func Stabilize(old, new *Snapshot, oldText, newText []byte) (int, error) {
	lineMap := lineMapping(oldText, newText)
	if err := relabel(old, lineMap); err != nil {
		return 0, err
	}

	stable := 0
	for _, id := range old.Order {
		if _, ok := new.Entries[id]; ok {
			stable++
		}
	}
	return stable, nil
}

// relabel re-derives every pseudo-id of the snapshot through the line
// mapping. Ids whose line falls inside a changed region keep their line; if
// the same logical node survives in the new snapshot under that id, the diff
// degrades to in-place field changes instead of a spurious delete/create
// pair.
func relabel(s *Snapshot, lineMap map[int]int) error {
	mapping := make(map[PseudoID]PseudoID, len(s.Order))
	used := make(map[PseudoID]bool, len(s.Order))

	for _, id := range s.Order {
		e := s.Entries[id]
		line := e.Line
		if mapped, ok := lineMap[line]; ok {
			line = mapped
		}

		assigned := false
		for probe := 0; probe < maxProbe; probe++ {
			candidate := pseudoID(line+probe, e.Type)
			if !used[candidate] {
				mapping[id] = candidate
				used[candidate] = true
				assigned = true
				break
			}
		}
		if !assigned {
			return errors.WithStack(ErrIdentityExhausted)
		}
	}

	s.rewrite(mapping)
	return nil
}

// rewrite substitutes ids everywhere they occur: entry keys, slot and next
// references, the order and the root list.
func (s *Snapshot) rewrite(mapping map[PseudoID]PseudoID) {
	entries := make(map[PseudoID]*Entry, len(s.Entries))
	for i, id := range s.Order {
		e := s.Entries[id]
		newID := mapping[id]
		e.ID = newID
		for slot, child := range e.Slots {
			e.Slots[slot] = mapping[child]
		}
		if e.Next != "" {
			e.Next = mapping[e.Next]
		}
		entries[newID] = e
		s.Order[i] = newID
	}
	for i, id := range s.Roots {
		s.Roots[i] = mapping[id]
	}
	s.Entries = entries
}

// lineMapping computes, from one line-level diff of the two texts, where each
// old line lives in the new text. Lines inside removed or changed segments
// have no mapping.
func lineMapping(oldText, newText []byte) map[int]int {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(string(oldText), string(newText))
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	m := map[int]int{}
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for i := 0; i < n; i++ {
				m[oldLine+i] = newLine + i
			}
			oldLine += n
			newLine += n
		case diffmatchpatch.DiffDelete:
			oldLine += n
		case diffmatchpatch.DiffInsert:
			newLine += n
		}
	}
	return m
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
