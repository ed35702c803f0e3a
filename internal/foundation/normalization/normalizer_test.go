package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
)

func newFormats() *Normalizer[format] {
	return NewNormalizer("log format", map[string]format{
		"text": formatText,
		"JSON": formatJSON,
	}, formatText)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newFormats()
	tests := []struct {
		name  string
		input string
		want  format
	}{
		{"exact", "text", formatText},
		{"case insensitive key", "json", formatJSON},
		{"upper with spaces", "  JSON ", formatJSON},
		{"unknown falls back", "xml", formatText},
		{"blank falls back", "", formatText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := newFormats()

	got, err := n.NormalizeWithError("Json")
	require.NoError(t, err)
	assert.Equal(t, formatJSON, got)

	got, err = n.NormalizeWithError("  ")
	require.NoError(t, err)
	assert.Equal(t, formatText, got)

	_, err = n.NormalizeWithError("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
	assert.Contains(t, err.Error(), "[json text]")
}

func TestNormalizer_ValidKeysIsCopy(t *testing.T) {
	n := newFormats()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"json", "text"}, n.ValidKeys())
}
