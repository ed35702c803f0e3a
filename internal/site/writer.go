package site

import (
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/kapi/internal/frontmatter"
)

// DefaultCollectionsPath is where Writer stores the collections aggregate.
const DefaultCollectionsPath = "_data/collections.json"

// Writer persists a FileSet for the downstream renderer.
type Writer struct {
	out             billy.Filesystem
	collectionsPath string
}

// NewWriter returns a Writer rooted at out.
func NewWriter(out billy.Filesystem) *Writer {
	return &Writer{out: out, collectionsPath: DefaultCollectionsPath}
}

// Write stores every file of set. Files with metadata become frontmatter plus
// contents, carrying a content fingerprint; files without metadata are copied
// verbatim. A non-nil collections aggregate is written as JSON.
func (w *Writer) Write(set *FileSet, collections *Collections) error {
	var writeErr error
	set.Each(func(p string, f *File) bool {
		data, err := encodeFile(f)
		if err != nil {
			writeErr = fmt.Errorf("encode %s: %w", p, err)
			return false
		}
		if err := w.writeFile(p, data); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	if collections == nil {
		return nil
	}
	data, err := json.MarshalIndent(collections, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collections: %w", err)
	}
	return w.writeFile(w.collectionsPath, append(data, '\n'))
}

func (w *Writer) writeFile(p string, data []byte) error {
	if dir := path.Dir(p); dir != "." {
		if err := w.out.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(w.out, p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func encodeFile(f *File) ([]byte, error) {
	if len(f.Metadata) == 0 {
		return f.Contents, nil
	}

	fields := maps.Clone(f.Metadata)
	delete(fields, KeyContents)

	fp, err := Fingerprint(fields, f.Contents)
	if err != nil {
		return nil, err
	}
	fields[mdfp.FingerprintField] = fp

	return frontmatter.Render(fields, f.Contents)
}

// Fingerprint computes the content fingerprint of a file from its frontmatter
// fields (any existing fingerprint field excluded) and body.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := maps.Clone(fields)
	delete(hashed, mdfp.FingerprintField)

	raw, err := frontmatter.SerializeYAML(hashed)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(raw), "\n"), string(body)), nil
}
