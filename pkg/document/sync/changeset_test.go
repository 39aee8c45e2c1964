package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrordoc/mirrordoc/pkg/document"
)

func TestReconcileTexts_Idempotent(t *testing.T) {
	text := []byte("{\n  \"A\": [1, 2],\n  \"B\": null\n}")

	cs, err := ReconcileTexts(text, text)
	require.NoError(t, err)
	assert.True(t, cs.Empty())
}

func TestReconcileTexts_AppendedMember(t *testing.T) {
	oldText := []byte(`{"B":[1,2,3]}`)
	newText := []byte(`{"B":[1,2,3],"C":4}`)

	cs, err := ReconcileTexts(oldText, newText)
	require.NoError(t, err)

	assert.Empty(t, cs.ByOp(OpDelete))
	assert.Empty(t, cs.ByOp(OpLinkRemove))
	assert.Empty(t, cs.ByOp(OpFieldChange))

	creates := cs.ByOp(OpCreate)
	require.Len(t, creates, 2)
	var pairs []Change
	for _, c := range creates {
		if c.Type == document.TypePair {
			pairs = append(pairs, c)
		}
	}
	require.Len(t, pairs, 1, "exactly one pair is created")
	assert.Equal(t, `"C"`, pairs[0].Fields[document.FieldKey])

	adds := cs.ByOp(OpLinkAdd)
	assert.Contains(t, adds, Change{
		Op:     OpLinkAdd,
		Parent: "1|pair",
		Slot:   document.SlotNext,
		Child:  pairs[0].Node,
	})
}

func TestDiff_ReplayOrderGrouping(t *testing.T) {
	oldText := []byte("[\n  1,\n  {},\n  3\n]")
	newText := []byte("[\n  1,\n  \"x\",\n  3\n]")

	cs, err := ReconcileTexts(oldText, newText)
	require.NoError(t, err)
	require.False(t, cs.Empty())

	// Entries come grouped: link removals, deletions, creations, link
	// additions, field changes.
	rank := map[Op]int{OpLinkRemove: 1, OpDelete: 2, OpCreate: 3, OpLinkAdd: 4, OpFieldChange: 5}
	last := 0
	for _, c := range cs.Changes {
		require.GreaterOrEqual(t, rank[c.Op], last, "entry %s out of group order", c)
		last = rank[c.Op]
	}

	assert.Len(t, cs.ByOp(OpDelete), 1)
	assert.Len(t, cs.ByOp(OpCreate), 1)
	assert.Equal(t, document.TypeScalar, cs.ByOp(OpCreate)[0].Type)
}
