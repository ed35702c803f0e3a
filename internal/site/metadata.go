package site

import "maps"

// Reserved metadata keys shared with the downstream renderer.
const (
	KeyTitle      = "title"
	KeyLayout     = "layout"
	KeyData       = "data"
	KeyContents   = "contents"
	KeyCollection = "collection"
)

// Metadata is an open mapping attached to a file.
type Metadata map[string]any

// DefaultMetadata returns the documented default record every transformed file
// starts from: empty title, layout and contents, and an empty data object.
func DefaultMetadata() Metadata {
	return Metadata{
		KeyTitle:    "",
		KeyLayout:   "",
		KeyData:     map[string]any{},
		KeyContents: "",
	}
}

// WithDefaults applies overrides onto a fresh default record. Overrides win
// key by key; nested values are not merged.
func WithDefaults(overrides Metadata) Metadata {
	out := DefaultMetadata()
	maps.Copy(out, overrides)
	return out
}

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Collection returns the collection name, or "" when unset or not a string.
func (m Metadata) Collection() string {
	name, _ := m[KeyCollection].(string)
	return name
}

// Title returns the title, or "" when unset or not a string.
func (m Metadata) Title() string {
	title, _ := m[KeyTitle].(string)
	return title
}

// Contents returns the contents value as bytes. Strings and byte slices are
// accepted; anything else yields nil.
func (m Metadata) Contents() []byte {
	switch c := m[KeyContents].(type) {
	case string:
		return []byte(c)
	case []byte:
		return c
	default:
		return nil
	}
}
