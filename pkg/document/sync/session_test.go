package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

func newTestSession(t *testing.T, text string) *Session {
	t.Helper()
	s, err := NewSession([]byte(text), identity.NewResolver(), nil)
	require.NoError(t, err)
	return s
}

func TestSession_SyncTextKeepsLiveNodes(t *testing.T) {
	s := newTestSession(t, "{\n  \"A\": 1\n}")

	scalar := s.Document().FindNode(func(n *document.Node) bool { return n.Type() == document.TypeScalar })
	require.NotNil(t, scalar)
	id := scalar.ID()

	cs, err := s.SyncText([]byte("{\n  \"A\": 2\n}"))
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)

	// The untouched node survives the pass as the same live object.
	after := s.Document().FindNode(func(n *document.Node) bool { return n.Type() == document.TypeScalar })
	assert.Same(t, scalar, after)
	assert.Equal(t, id, after.ID())
	assert.Equal(t, "2", after.Field(document.FieldValue))

	assert.Equal(t, "{\n  \"A\": 2\n}", string(s.Text()))
	assert.Equal(t, "{\n  \"A\": 2\n}", string(document.Render(s.Document())))
}

func TestSession_SyncTextIdenticalIsNoOp(t *testing.T) {
	text := "{\n  \"A\": [1, 2]\n}"
	s := newTestSession(t, text)

	cs, err := s.SyncText([]byte(text))
	require.NoError(t, err)
	assert.True(t, cs.Empty())
}

func TestSession_ParseFailureLeavesModelUntouched(t *testing.T) {
	s := newTestSession(t, `{"A":1}`)

	_, err := s.SyncText([]byte(`{"A":`))
	require.Error(t, err)

	assert.Equal(t, `{"A":1}`, string(s.Text()))
	assert.Equal(t, `{"A":1}`, string(document.Render(s.Document())))
}

func TestSession_ReplayNotificationsAbsorbed(t *testing.T) {
	s := newTestSession(t, `{"B":[1,2,3]}`)

	cs, err := s.SyncText([]byte(`{"B":[1,2,3],"C":4}`))
	require.NoError(t, err)
	require.False(t, cs.Empty())

	// Every self-inflicted notification is accounted for, one per entry.
	assert.Equal(t, 0, s.PendingReplays())
	assert.Len(t, s.Events(), cs.Len())
}

func TestSession_RecoversAfterReplayAccountingError(t *testing.T) {
	s := newTestSession(t, `{"A":1}`)

	// A poisoned counter from an earlier failed pass must not block the
	// next one.
	s.replayErr = ErrReplayAccounting

	cs, err := s.SyncText([]byte(`{"A":2}`))
	require.NoError(t, err)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, 0, s.PendingReplays())
}

func TestSession_SetFieldSplicesText(t *testing.T) {
	s := newTestSession(t, `{"A":1}`)

	scalar := s.Document().FindNode(func(n *document.Node) bool { return n.Type() == document.TypeScalar })
	require.NoError(t, s.SetField(scalar, document.FieldValue, "42"))

	assert.Equal(t, `{"A":42}`, string(s.Text()))
	assert.Equal(t, `{"A":42}`, string(document.Render(s.Document())))
	assert.True(t, s.Document().SpansFresh())
}

func TestSession_InsertNodeAfterSibling(t *testing.T) {
	s := newTestSession(t, "[1,2]")

	array, err := s.Document().Root()
	require.NoError(t, err)
	last := array.Slot(document.SlotItems).LastInChain()

	n := s.NewNode(document.TypeScalar)
	n.SetField(document.FieldValue, "3")
	require.NoError(t, s.InsertNode(array, document.SlotItems, last, n))

	assert.Equal(t, "[1,2,3]", string(s.Text()))
	assert.Equal(t, "[1,2,3]", string(document.Render(s.Document())))
	assert.Same(t, array, n.Parent())
}

func TestSession_InsertNodeAtHead(t *testing.T) {
	s := newTestSession(t, "[2,3]")

	array, err := s.Document().Root()
	require.NoError(t, err)

	n := s.NewNode(document.TypeScalar)
	n.SetField(document.FieldValue, "1")
	require.NoError(t, s.InsertNode(array, document.SlotItems, nil, n))

	assert.Equal(t, "[1,2,3]", string(s.Text()))
	assert.Same(t, n, array.Slot(document.SlotItems))
}

func TestSession_InsertNodeIntoEmptySlot(t *testing.T) {
	s := newTestSession(t, "[]")

	array, err := s.Document().Root()
	require.NoError(t, err)

	n := s.NewNode(document.TypeScalar)
	n.SetField(document.FieldValue, "1")
	require.NoError(t, s.InsertNode(array, document.SlotItems, nil, n))

	assert.Equal(t, "[1]", string(s.Text()))
}

func TestSession_RemoveNodeSplicesSeparator(t *testing.T) {
	s := newTestSession(t, "[1,2,3]")

	array, err := s.Document().Root()
	require.NoError(t, err)
	middle := array.Slot(document.SlotItems).Next()
	require.Equal(t, "2", middle.Field(document.FieldValue))

	require.NoError(t, s.RemoveNode(middle))

	assert.Equal(t, "[1,3]", string(s.Text()))
	assert.Equal(t, "[1,3]", string(document.Render(s.Document())))
	assert.Nil(t, s.Document().NodeByID(middle.ID()))
}

func TestSession_RemoveHeadNode(t *testing.T) {
	s := newTestSession(t, "[1,2]")

	array, err := s.Document().Root()
	require.NoError(t, err)
	head := array.Slot(document.SlotItems)

	require.NoError(t, s.RemoveNode(head))

	assert.Equal(t, "[2]", string(s.Text()))
	assert.Equal(t, "2", array.Slot(document.SlotItems).Field(document.FieldValue))
}

func TestSession_RemoveSubtree(t *testing.T) {
	s := newTestSession(t, "{\n  \"A\": [1, 2],\n  \"B\": 3\n}")

	pair := s.Document().FindNode(func(n *document.Node) bool {
		return n.Type() == document.TypePair && n.Field(document.FieldKey) == `"A"`
	})
	require.NotNil(t, pair)
	inner := pair.Slot(document.SlotValue)

	require.NoError(t, s.RemoveNode(pair))

	assert.Equal(t, "{\n  \"B\": 3\n}", string(s.Text()))
	assert.Nil(t, s.Document().NodeByID(inner.ID()), "owned subtree is released too")
}

func TestSession_EditThenSyncRoundTrip(t *testing.T) {
	s := newTestSession(t, `{"A":1}`)

	scalar := s.Document().FindNode(func(n *document.Node) bool { return n.Type() == document.TypeScalar })
	require.NoError(t, s.SetField(scalar, document.FieldValue, "2"))

	// A later text edit still reconciles against the patched state.
	cs, err := s.SyncText([]byte(`{"A":2,"B":3}`))
	require.NoError(t, err)

	assert.Empty(t, cs.ByOp(OpFieldChange))
	assert.Empty(t, cs.ByOp(OpDelete))
	assert.Equal(t, `{"A":2,"B":3}`, string(document.Render(s.Document())))
	assert.Same(t, scalar, s.Document().FindNode(func(n *document.Node) bool {
		return n.Type() == document.TypeScalar && n.Field(document.FieldValue) == "2"
	}))
}
