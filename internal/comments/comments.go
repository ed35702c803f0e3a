// Package comments extracts comment blocks from source files.
package comments

import (
	"bufio"
	"bytes"
	"strings"
)

// Block is one comment with markers stripped. Line is the 1-based line the
// comment starts on.
type Block struct {
	Line  int
	Lines []string
}

// Text joins the block's lines with newlines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Extract returns every /* */ comment and every run of consecutive line
// comments starting with one of lineMarkers (e.g. "//" or "#"). Leading
// asterisks of block comment lines are stripped along with the markers.
func Extract(data []byte, lineMarkers ...string) []Block {
	var (
		blocks  []Block
		current *Block
		marker  string
		inBlock bool
	)
	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			blocks = append(blocks, *current)
		}
		current = nil
		marker = ""
	}
	add := func(lineNo int, text string) {
		if current == nil {
			current = &Block{Line: lineNo}
		}
		current.Lines = append(current.Lines, text)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())

		if inBlock || strings.HasPrefix(line, "/*") {
			if !inBlock {
				flush()
				line = strings.TrimLeft(strings.TrimPrefix(line, "/*"), "*")
				inBlock = true
			}
			closed := false
			if idx := strings.Index(line, "*/"); idx >= 0 {
				line = line[:idx]
				closed = true
			}
			line = strings.TrimSpace(line)
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
			add(lineNo, line)
			if closed {
				inBlock = false
				flush()
			}
			continue
		}

		m := lineMarker(line, lineMarkers)
		if m == "" {
			flush()
			continue
		}
		if marker != "" && m != marker {
			flush()
		}
		marker = m
		add(lineNo, strings.TrimSpace(strings.TrimLeft(line[len(m):], m[:1])))
	}
	flush()
	return blocks
}

func lineMarker(line string, markers []string) string {
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return m
		}
	}
	return ""
}
