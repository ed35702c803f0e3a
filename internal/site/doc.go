// Package site holds the virtual file set a build run manipulates between the
// settings hooks and the downstream renderer, together with the collections
// aggregate built by the file transformer.
//
// A FileSet is ordered: paths keep the order in which they were first added,
// and replacing a path keeps its position. Load reads a directory tree into a
// FileSet and Writer writes one back out as content files with frontmatter.
package site
