package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), raw)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\nbody")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), raw)
	require.Equal(t, []byte("body"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	raw, body, had, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), raw)
	require.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParse_DecodesFields(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Intro\nweight: 3\n---\nHello\n"))
	require.NoError(t, err)
	require.True(t, doc.Had)
	require.Equal(t, map[string]any{"title": "Intro", "weight": 3}, doc.Fields)
	require.Equal(t, []byte("Hello\n"), doc.Body)
}

func TestParse_EmptyFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, doc.Had)
	require.Empty(t, doc.Fields)
	require.Equal(t, []byte("body\n"), doc.Body)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.Error(t, err)
}

func TestRender_RoundTrip(t *testing.T) {
	out, err := Render(map[string]any{"title": "Users", "layout": "layout_apidoc.html"}, []byte("body\n"))
	require.NoError(t, err)
	require.Equal(t, "---\nlayout: layout_apidoc.html\ntitle: Users\n---\nbody\n", string(out))

	doc, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, "Users", doc.Fields["title"])
	require.Equal(t, []byte("body\n"), doc.Body)
}

func TestRender_NoFieldsReturnsBody(t *testing.T) {
	out, err := Render(nil, []byte("plain"))
	require.NoError(t, err)
	require.Equal(t, "plain", string(out))
}
