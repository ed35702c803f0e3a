package site

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"git.home.luguber.info/inful/kapi/internal/frontmatter"
)

// Load reads every regular file below the root of fsys into a new FileSet, in
// lexical path order. Markdown files carrying YAML frontmatter have it parsed
// into metadata and stripped from their contents.
func Load(fsys fs.FS) (*FileSet, error) {
	set := NewFileSet()
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		f := &File{Contents: data}
		if isMarkdown(p) {
			doc, err := frontmatter.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			if doc.Had {
				f.Contents = doc.Body
				f.Metadata = Metadata(doc.Fields)
			}
		}
		set.Set(p, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load file set: %w", err)
	}
	return set, nil
}

func isMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}
