// Package frontmatter reads and writes YAML frontmatter on content files.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a content file split into frontmatter fields and body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// Had reports whether the source carried a frontmatter block at all.
	Had bool
}

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. Both LF and CRLF line endings are recognised.
func Split(content []byte) (raw []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + delimiter + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A closing delimiter at EOF without a trailing newline still counts.
		if bytes.HasSuffix(rest, []byte(nl+delimiter)) {
			return rest[:len(rest)-len(delimiter)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its frontmatter fields.
func Parse(content []byte) (*Document, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}

	doc := &Document{Fields: map[string]any{}, Body: body, Had: had}
	if !had || len(bytes.TrimSpace(raw)) == 0 {
		return doc, nil
	}

	if err := yaml.Unmarshal(raw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	return doc, nil
}

// Render emits fields as a frontmatter block followed by body. An empty field
// set renders the body unchanged.
func Render(fields map[string]any, body []byte) ([]byte, error) {
	if len(fields) == 0 {
		return body, nil
	}

	raw, err := SerializeYAML(fields)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(raw)+len(body)+2*(len(delimiter)+1))
	out = append(out, delimiter+"\n"...)
	out = append(out, raw...)
	out = append(out, delimiter+"\n"...)
	out = append(out, body...)
	return out, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
