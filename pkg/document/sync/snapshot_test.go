package sync

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

func buildDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	doc, err := document.Build([]byte(text), identity.NewResolver())
	require.NoError(t, err)
	return doc
}

func TestEncode_ProbesCollidingLines(t *testing.T) {
	doc := buildDoc(t, `{"B":[1,2,3]}`)

	snap, err := Encode(doc)
	require.NoError(t, err)

	// All six nodes start on line 1; colliding ids probe upwards in
	// document order.
	require.Equal(t, []PseudoID{
		"1|object", "1|pair", "1|array", "1|scalar", "2|scalar", "3|scalar",
	}, snap.Order)
	assert.Equal(t, []PseudoID{"1|object"}, snap.Roots)
	assert.Equal(t, "1", snap.Entries["1|scalar"].Fields[document.FieldValue])
	assert.Equal(t, "3", snap.Entries["3|scalar"].Fields[document.FieldValue])
}

func TestEncode_RecordsLinks(t *testing.T) {
	doc := buildDoc(t, `{"B":[1,2,3]}`)

	snap, err := Encode(doc)
	require.NoError(t, err)

	assert.Equal(t, PseudoID("1|pair"), snap.Entries["1|object"].Slots[document.SlotMembers])
	assert.Equal(t, PseudoID("1|array"), snap.Entries["1|pair"].Slots[document.SlotValue])
	assert.Equal(t, PseudoID("1|scalar"), snap.Entries["1|array"].Slots[document.SlotItems])
	assert.Equal(t, PseudoID("2|scalar"), snap.Entries["1|scalar"].Next)
	assert.Equal(t, PseudoID("3|scalar"), snap.Entries["2|scalar"].Next)
	assert.Empty(t, snap.Entries["3|scalar"].Next)
}

func TestSnapshotText_Canonical(t *testing.T) {
	doc := buildDoc(t, `{"B":[1,2,3]}`)

	snap, err := Encode(doc)
	require.NoError(t, err)

	expected := `roots: 1|object
node 1|object
  slot members -> 1|pair
node 1|pair
  field key = "B"
  slot value -> 1|array
node 1|array
  slot items -> 1|scalar
node 1|scalar
  field value = 1
  next -> 2|scalar
node 2|scalar
  field value = 2
  next -> 3|scalar
node 3|scalar
  field value = 3
`
	assert.Equal(t, expected, string(snap.Text()))
}

func TestEncode_Deterministic(t *testing.T) {
	text := "{\n  \"A\": [true, null],\n  \"B\": \"x\"\n}"

	snap1, err := Encode(buildDoc(t, text))
	require.NoError(t, err)
	snap2, err := Encode(buildDoc(t, text))
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(string(snap1.Text()), string(snap2.Text())))
	assert.Empty(t, cmp.Diff(snap1.Order, snap2.Order))
}

func TestEncode_IdentityExhausted(t *testing.T) {
	// 1001 scalars on one line; probing is bounded at 1000 candidates.
	text := "[" + strings.Repeat("0,", 1000) + "0]"
	doc := buildDoc(t, text)

	_, err := Encode(doc)
	require.ErrorIs(t, err, ErrIdentityExhausted)
}
