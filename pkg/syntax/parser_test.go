package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Spans(t *testing.T) {
	source := []byte(`{"B":[1,2,3]}`)

	root, err := Parse(source)
	require.NoError(t, err)
	assert.Equal(t, KindObject, root.Kind)
	assert.Equal(t, 0, root.Span.Start.Offset)
	assert.Equal(t, len(source), root.Span.End.Offset)

	require.Len(t, root.Children, 1)
	pair := root.Children[0]
	assert.Equal(t, KindPair, pair.Kind)
	require.NotNil(t, pair.Key)
	assert.Equal(t, `"B"`, pair.Key.Raw)
	assert.Equal(t, 1, pair.Span.Start.Offset)
	assert.Equal(t, 12, pair.Span.End.Offset)

	require.Len(t, pair.Children, 1)
	arr := pair.Children[0]
	assert.Equal(t, KindArray, arr.Kind)
	require.Len(t, arr.Children, 3)
	assert.Equal(t, "1", arr.Children[0].Raw)
	assert.Equal(t, "2", arr.Children[1].Raw)
	assert.Equal(t, "3", arr.Children[2].Raw)
	assert.Equal(t, "2", string(arr.Children[1].Span.Text(source)))
}

func TestParse_LineColumn(t *testing.T) {
	source := []byte("{\n  \"a\": 1,\n  \"b\": [true, null]\n}")

	root, err := Parse(source)
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	a := root.Children[0]
	assert.Equal(t, 2, a.Span.Start.Line)
	assert.Equal(t, 3, a.Span.Start.Column)

	b := root.Children[1]
	assert.Equal(t, 3, b.Span.Start.Line)
	require.Len(t, b.Children, 1)
	assert.Equal(t, KindArray, b.Children[0].Kind)
	assert.Equal(t, "true", b.Children[0].Children[0].Raw)
	assert.Equal(t, "null", b.Children[0].Children[1].Raw)
}

func TestParse_Scalars(t *testing.T) {
	for _, raw := range []string{`"text"`, `"es\"caped"`, "-12.5e+3", "0.25", "true", "false", "null"} {
		node, err := Parse([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, KindScalar, node.Kind)
		assert.Equal(t, raw, node.Raw)
	}
}

func TestParse_EmptyContainers(t *testing.T) {
	obj, err := Parse([]byte(`{ }`))
	require.NoError(t, err)
	assert.Empty(t, obj.Children)
	assert.Equal(t, 3, obj.Span.Len())

	arr, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, arr.Children)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		source string
	}{
		{name: "UnterminatedString", source: `{"a`},
		{name: "MissingColon", source: `{"a" 1}`},
		{name: "TrailingContent", source: `[1] [2]`},
		{name: "BareWord", source: `hello`},
		{name: "DanglingComma", source: `[1,]`},
		{name: "MalformedNumber", source: `[1.]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.source))
			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.GreaterOrEqual(t, parseErr.Pos.Line, 1)
		})
	}
}
