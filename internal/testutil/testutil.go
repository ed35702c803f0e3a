// Package testutil holds filesystem fixtures and assertions shared by tests
// that run real builds on disk.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/kapi/internal/frontmatter"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o600
)

// WriteTree creates files below root. Keys are slash-separated relative paths.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
}

// WriteFile creates path and its parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), filePermissions); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// FileAssertions checks the state of a directory tree.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates assertions rooted at baseDir.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}

// AssertFileExists fails unless rel is a regular file.
func (fa *FileAssertions) AssertFileExists(rel string) *FileAssertions {
	fa.t.Helper()
	info, err := os.Stat(fa.path(rel))
	switch {
	case err != nil:
		fa.t.Errorf("Expected file to exist: %s", fa.path(rel))
	case info.IsDir():
		fa.t.Errorf("Expected %s to be a file, but it's a directory", fa.path(rel))
	}
	return fa
}

// AssertFileNotExists fails if rel exists.
func (fa *FileAssertions) AssertFileNotExists(rel string) *FileAssertions {
	fa.t.Helper()
	if _, err := os.Stat(fa.path(rel)); err == nil {
		fa.t.Errorf("Expected file to not exist: %s", fa.path(rel))
	}
	return fa
}

// Frontmatter parses rel and returns its fields and body.
func (fa *FileAssertions) Frontmatter(rel string) (map[string]any, string) {
	fa.t.Helper()
	content, err := os.ReadFile(fa.path(rel))
	if err != nil {
		fa.t.Fatalf("Failed to read file %s: %v", fa.path(rel), err)
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		fa.t.Fatalf("Failed to parse frontmatter of %s: %v", rel, err)
	}
	if !doc.Had {
		fa.t.Errorf("Expected %s to carry frontmatter", rel)
	}
	return doc.Fields, string(doc.Body)
}

// AssertField fails unless the frontmatter of rel has key set to want.
func (fa *FileAssertions) AssertField(rel, key string, want any) *FileAssertions {
	fa.t.Helper()
	fields, _ := fa.Frontmatter(rel)
	got, ok := fields[key]
	if !ok {
		fa.t.Errorf("Expected %s to have frontmatter field %q", rel, key)
		return fa
	}
	if got != want {
		fa.t.Errorf("Frontmatter %s of %s = %v, want %v", key, rel, got, want)
	}
	return fa
}

// ListFiles returns the names of the regular files directly in rel.
func (fa *FileAssertions) ListFiles(rel string) []string {
	fa.t.Helper()
	entries, err := os.ReadDir(fa.path(rel))
	if err != nil {
		fa.t.Logf("Failed to read directory %s: %v", fa.path(rel), err)
		return nil
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files
}
