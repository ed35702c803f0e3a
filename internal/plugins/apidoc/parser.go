package apidoc

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/kapi/internal/comments"
)

// sourceExts are the file types scanned for @api blocks.
var sourceExts = map[string]bool{
	".go": true, ".js": true, ".mjs": true, ".ts": true, ".py": true,
	".java": true, ".kt": true, ".php": true, ".rb": true, ".cs": true,
	".c": true, ".h": true, ".cpp": true, ".rs": true, ".swift": true,
}

// Endpoint is one documented API method.
type Endpoint struct {
	Type        string  `json:"type"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	Group       string  `json:"group"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Parameters  []Field `json:"parameters"`
	Success     []Field `json:"success"`
	Filename    string  `json:"filename"`
}

// Field is a documented parameter or response field.
type Field struct {
	Group       string `json:"group"`
	Type        string `json:"type"`
	Field       string `json:"field"`
	Optional    bool   `json:"optional"`
	Default     string `json:"defaultValue,omitempty"`
	Description string `json:"description"`
}

// Project describes the documented API as a whole.
type Project struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Document is the artifact written for the apidoc file rule.
type Document struct {
	Data    []Endpoint `json:"data"`
	Project Project    `json:"project"`
}

// ProjectFile is read from the source root, when present, for project info.
const ProjectFile = "apidoc.json"

var (
	apiLine   = regexp.MustCompile(`^\{([^}]*)\}\s+(\S+)(?:\s+(.*))?$`)
	fieldLine = regexp.MustCompile(`^(?:\(([^)]*)\)\s+)?(?:\{([^}]*)\}\s+)?(\[[^\]]+\]|\S+)(?:\s+(.*))?$`)
)

// Parse scans every source file below the root of fsys, in lexical order, and
// returns the documented endpoints. name is used as the project name when no
// project file is present.
func Parse(fsys fs.FS, name string) (*Document, error) {
	doc := &Document{Data: []Endpoint{}, Project: Project{Name: name, Version: "0.0.0"}}

	if raw, err := fs.ReadFile(fsys, ProjectFile); err == nil {
		if err := json.Unmarshal(raw, &doc.Project); err != nil {
			return nil, fmt.Errorf("%s: %w", ProjectFile, err)
		}
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !sourceExts[strings.ToLower(path.Ext(p))] {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		endpoints, err := parseFile(p, data)
		if err != nil {
			return err
		}
		doc.Data = append(doc.Data, endpoints...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func parseFile(name string, data []byte) ([]Endpoint, error) {
	var out []Endpoint
	for _, block := range comments.Extract(data, "//", "#") {
		ep, ok, err := parseBlock(block.Lines)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, block.Line, err)
		}
		if !ok {
			continue
		}
		ep.Filename = name
		if ep.Group == "" {
			ep.Group = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		if ep.Name == "" {
			ep.Name = strings.ToUpper(ep.Type[:1]) + ep.Type[1:] + strings.ReplaceAll(ep.URL, "/", "_")
		}
		out = append(out, ep)
	}
	return out, nil
}

// parseBlock turns the tag lines of one comment block into an endpoint. ok is
// false for blocks without an @api tag.
func parseBlock(lines []string) (ep Endpoint, ok bool, err error) {
	ep.Parameters = []Field{}
	ep.Success = []Field{}

	var last *string
	for _, line := range lines {
		if !strings.HasPrefix(line, "@") {
			if last != nil && line != "" {
				*last = strings.TrimSpace(*last + " " + line)
			}
			continue
		}
		tag, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		last = nil

		switch tag {
		case "@api":
			m := apiLine.FindStringSubmatch(rest)
			if m == nil {
				return ep, false, fmt.Errorf("malformed @api tag %q", line)
			}
			ep.Type, ep.URL, ep.Title = strings.ToLower(m[1]), m[2], m[3]
			ok = true
		case "@apiName":
			ep.Name = rest
		case "@apiGroup":
			ep.Group = rest
		case "@apiVersion":
			ep.Version = rest
		case "@apiDescription":
			ep.Description = rest
			last = &ep.Description
		case "@apiParam", "@apiSuccess":
			f, err := parseField(rest)
			if err != nil {
				return ep, false, fmt.Errorf("%s: %w", tag, err)
			}
			if tag == "@apiParam" {
				if f.Group == "" {
					f.Group = "Parameter"
				}
				ep.Parameters = append(ep.Parameters, f)
				last = &ep.Parameters[len(ep.Parameters)-1].Description
			} else {
				if f.Group == "" {
					f.Group = "Success 200"
				}
				ep.Success = append(ep.Success, f)
				last = &ep.Success[len(ep.Success)-1].Description
			}
		}
	}
	if ok && ep.Type == "" {
		return ep, false, fmt.Errorf("@api tag without method")
	}
	return ep, ok, nil
}

// parseField reads "[(group)] [{type}] field|[field=default] [description]".
func parseField(s string) (Field, error) {
	m := fieldLine.FindStringSubmatch(s)
	if m == nil {
		return Field{}, fmt.Errorf("malformed field %q", s)
	}
	f := Field{Group: m[1], Type: m[2], Description: m[4]}
	name := m[3]
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		f.Optional = true
		name = strings.TrimSpace(name[1 : len(name)-1])
	}
	if field, def, found := strings.Cut(name, "="); found {
		name = field
		f.Default = strings.Trim(def, `"'`)
	}
	f.Field = name
	return f, nil
}
