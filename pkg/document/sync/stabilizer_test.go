package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrordoc/mirrordoc/pkg/document"
)

func TestStabilize_UnrelatedInsertionKeepsIdentities(t *testing.T) {
	oldText := "{\n  \"A\": 1,\n  \"B\": 2\n}"
	newText := "{\n  \"X\": 0,\n  \"A\": 1,\n  \"B\": 2\n}"

	cs, err := ReconcileTexts([]byte(oldText), []byte(newText))
	require.NoError(t, err)

	// The untouched members shift down a line but keep their identities:
	// nothing is deleted and no field changes, only the new member appears.
	assert.Empty(t, cs.ByOp(OpDelete))
	assert.Empty(t, cs.ByOp(OpFieldChange))

	creates := cs.ByOp(OpCreate)
	require.Len(t, creates, 2)
	assert.Equal(t, document.TypePair, creates[0].Type)
	assert.Equal(t, document.TypeScalar, creates[1].Type)
}

func TestStabilize_CountsStableIDs(t *testing.T) {
	oldText := []byte("{\n  \"A\": 1,\n  \"B\": 2\n}")
	newText := []byte("{\n  \"A\": 1,\n  \"B\": 3\n}")

	oldSnap, err := Encode(buildDoc(t, string(oldText)))
	require.NoError(t, err)
	newSnap, err := Encode(buildDoc(t, string(newText)))
	require.NoError(t, err)

	stable, err := Stabilize(oldSnap, newSnap, oldText, newText)
	require.NoError(t, err)

	// Every node keeps its identity; the edit degrades to a field change.
	assert.Equal(t, len(oldSnap.Order), stable)
	cs := Diff(oldSnap, newSnap)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, OpFieldChange, cs.Changes[0].Op)
	assert.Equal(t, "2", cs.Changes[0].Old)
	assert.Equal(t, "3", cs.Changes[0].New)
}

func TestRelabel_CollisionProbesUpwards(t *testing.T) {
	a := &Entry{ID: pseudoID(3, document.TypeScalar), Type: document.TypeScalar, Line: 3}
	b := &Entry{ID: pseudoID(5, document.TypeScalar), Type: document.TypeScalar, Line: 5}
	s := &Snapshot{
		Order:   []PseudoID{a.ID, b.ID},
		Entries: map[PseudoID]*Entry{a.ID: a, b.ID: b},
	}

	// A's line is inside a changed region and keeps its coordinate; B's
	// mapped line lands on the same one and must probe past it.
	err := relabel(s, map[int]int{5: 3})
	require.NoError(t, err)

	assert.Equal(t, []PseudoID{"3|scalar", "4|scalar"}, s.Order)
	assert.Equal(t, PseudoID("3|scalar"), a.ID)
	assert.Equal(t, PseudoID("4|scalar"), b.ID)
}

func TestRelabel_RewritesLinks(t *testing.T) {
	arr := &Entry{
		ID: pseudoID(2, document.TypeArray), Type: document.TypeArray, Line: 2,
		Slots: map[string]PseudoID{document.SlotItems: pseudoID(3, document.TypeScalar)},
	}
	s1 := &Entry{ID: pseudoID(3, document.TypeScalar), Type: document.TypeScalar, Line: 3, Next: pseudoID(4, document.TypeScalar)}
	s2 := &Entry{ID: pseudoID(4, document.TypeScalar), Type: document.TypeScalar, Line: 4}
	s := &Snapshot{
		Order:   []PseudoID{arr.ID, s1.ID, s2.ID},
		Entries: map[PseudoID]*Entry{arr.ID: arr, s1.ID: s1, s2.ID: s2},
		Roots:   []PseudoID{arr.ID},
	}

	err := relabel(s, map[int]int{2: 5, 3: 6, 4: 7})
	require.NoError(t, err)

	assert.Equal(t, []PseudoID{"5|array"}, s.Roots)
	assert.Equal(t, PseudoID("6|scalar"), s.Entries["5|array"].Slots[document.SlotItems])
	assert.Equal(t, PseudoID("7|scalar"), s.Entries["6|scalar"].Next)
}

func TestRelabel_Exhausted(t *testing.T) {
	s := &Snapshot{Entries: map[PseudoID]*Entry{}}
	lineMap := map[int]int{}
	for i := 1; i <= 1001; i++ {
		e := &Entry{ID: pseudoID(i, document.TypeScalar), Type: document.TypeScalar, Line: i}
		s.Entries[e.ID] = e
		s.Order = append(s.Order, e.ID)
		lineMap[i] = 1
	}

	err := relabel(s, lineMap)
	require.ErrorIs(t, err, ErrIdentityExhausted)
}

func TestLineMapping(t *testing.T) {
	oldText := []byte("a\nb\nc\nd\n")
	newText := []byte("a\nX\nb\nd\n")

	m := lineMapping(oldText, newText)

	assert.Equal(t, 1, m[1])
	assert.Equal(t, 3, m[2])
	assert.Equal(t, 4, m[4])
	_, ok := m[3]
	assert.False(t, ok, "removed line must have no mapping")
}
