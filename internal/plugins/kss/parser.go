package kss

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/kapi/internal/comments"
)

var styleExts = map[string]bool{".css": true, ".scss": true, ".sass": true, ".less": true}

var (
	referenceLine = regexp.MustCompile(`(?i)^style\s?guide\s+(.+?)\.?$`)
	modifierLine  = regexp.MustCompile(`^([.:][\w\-:.]*[\w\-])\s+-\s+(.*)$`)
	weightLine    = regexp.MustCompile(`(?i)^weight:\s*(-?\d+)$`)
)

// Styleguide is the artifact written for the kss file rule.
type Styleguide struct {
	Sections []Section `json:"sections"`
}

// Section is one documented style component.
type Section struct {
	Header      string     `json:"header"`
	Description string     `json:"description"`
	Modifiers   []Modifier `json:"modifiers"`
	Markup      string     `json:"markup"`
	Reference   string     `json:"reference"`
	Weight      int        `json:"weight"`
	SourceFile  string     `json:"sourceFile"`
	SourceLine  int        `json:"sourceLine"`
}

// Modifier is a state or variant class of a section.
type Modifier struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ClassName   string `json:"className"`
}

// Parse scans every stylesheet below the root of fsys and returns the
// sections ordered by reference, then weight.
func Parse(fsys fs.FS) (*Styleguide, error) {
	sg := &Styleguide{Sections: []Section{}}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !styleExts[strings.ToLower(path.Ext(p))] {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		for _, block := range comments.Extract(data, "//") {
			section, ok, err := parseBlock(block.Lines)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", p, block.Line, err)
			}
			if !ok {
				continue
			}
			section.SourceFile = p
			section.SourceLine = block.Line
			sg.Sections = append(sg.Sections, section)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(sg.Sections, func(i, j int) bool {
		a, b := sg.Sections[i], sg.Sections[j]
		if c := compareReferences(a.Reference, b.Reference); c != 0 {
			return c < 0
		}
		return a.Weight < b.Weight
	})
	return sg, nil
}

// parseBlock reads a KSS comment: header paragraph, optional description,
// modifier, Markup: and Weight: paragraphs, and a closing "Styleguide <ref>"
// line. ok is false for comments that are not KSS blocks.
func parseBlock(lines []string) (section Section, ok bool, err error) {
	paragraphs := splitParagraphs(lines)
	if len(paragraphs) < 2 {
		return section, false, nil
	}

	last := paragraphs[len(paragraphs)-1]
	m := referenceLine.FindStringSubmatch(last[len(last)-1])
	if m == nil {
		return section, false, nil
	}
	section.Reference = strings.TrimSpace(m[1])
	section.Header = strings.Join(paragraphs[0], " ")
	section.Modifiers = []Modifier{}

	var description []string
	for _, para := range paragraphs[1 : len(paragraphs)-1] {
		switch {
		case strings.HasPrefix(strings.ToLower(para[0]), "markup:"):
			first := strings.TrimSpace(para[0][len("markup:"):])
			markup := append([]string{}, para[1:]...)
			if first != "" {
				markup = append([]string{first}, markup...)
			}
			section.Markup = strings.Join(markup, "\n")
		case len(para) == 1 && weightLine.MatchString(para[0]):
			w, _ := strconv.Atoi(weightLine.FindStringSubmatch(para[0])[1])
			section.Weight = w
		case isModifierParagraph(para):
			for _, line := range para {
				mm := modifierLine.FindStringSubmatch(line)
				section.Modifiers = append(section.Modifiers, Modifier{
					Name:        mm[1],
					Description: mm[2],
					ClassName:   className(mm[1]),
				})
			}
		default:
			description = append(description, strings.Join(para, "\n"))
		}
	}

	if len(description) > 0 {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(strings.Join(description, "\n\n")), &buf); err != nil {
			return section, false, fmt.Errorf("render description: %w", err)
		}
		section.Description = buf.String()
	}
	return section, true, nil
}

func splitParagraphs(lines []string) [][]string {
	var (
		out     [][]string
		current []string
	)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func isModifierParagraph(para []string) bool {
	for _, line := range para {
		if !modifierLine.MatchString(line) {
			return false
		}
	}
	return true
}

// className turns a modifier selector into the class attribute value that
// applies it: ".btn.is-large" becomes "btn is-large", ":hover" becomes
// "pseudo-class-hover".
func className(name string) string {
	var parts []string
	for _, seg := range strings.FieldsFunc(name, func(r rune) bool { return r == '.' }) {
		pseudo := strings.Split(seg, ":")
		if pseudo[0] != "" {
			parts = append(parts, pseudo[0])
		}
		for _, p := range pseudo[1:] {
			if p != "" {
				parts = append(parts, "pseudo-class-"+p)
			}
		}
	}
	return strings.Join(parts, " ")
}

// compareReferences orders dotted references segment by segment, numerically
// where both segments are numbers.
func compareReferences(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
		default:
			if c := strings.Compare(strings.ToLower(as[i]), strings.ToLower(bs[i])); c != 0 {
				return c
			}
		}
	}
	return len(as) - len(bs)
}
