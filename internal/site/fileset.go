package site

import (
	"path"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// File is one entry of the virtual file set.
type File struct {
	Contents []byte
	Metadata Metadata
}

// FileSet maps output-relative, slash separated paths to files.
type FileSet struct {
	files *orderedmap.OrderedMap[string, *File]
}

// NewFileSet returns an empty file set.
func NewFileSet() *FileSet {
	return &FileSet{files: orderedmap.New[string, *File]()}
}

// CleanPath normalises p to the key form used by FileSet: slash separated,
// cleaned, without a leading "/" or "./".
func CleanPath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Set stores f at p. An existing entry is replaced in place; a new entry is
// appended. It reports whether an entry was replaced.
func (s *FileSet) Set(p string, f *File) (replaced bool) {
	_, replaced = s.files.Set(CleanPath(p), f)
	return replaced
}

// Get returns the file at p.
func (s *FileSet) Get(p string) (*File, bool) {
	return s.files.Get(CleanPath(p))
}

// Has reports whether p is present.
func (s *FileSet) Has(p string) bool {
	_, ok := s.files.Get(CleanPath(p))
	return ok
}

// Delete removes p and reports whether it was present.
func (s *FileSet) Delete(p string) bool {
	_, ok := s.files.Delete(CleanPath(p))
	return ok
}

// Len returns the number of files.
func (s *FileSet) Len() int {
	return s.files.Len()
}

// Paths returns a snapshot of the paths in set order.
func (s *FileSet) Paths() []string {
	out := make([]string, 0, s.files.Len())
	for pair := s.files.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Each calls fn for every file in set order until fn returns false.
func (s *FileSet) Each(fn func(p string, f *File) bool) {
	for pair := s.files.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}
