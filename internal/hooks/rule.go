package hooks

import (
	"fmt"

	"git.home.luguber.info/inful/kapi/internal/jsonx"
	"git.home.luguber.info/inful/kapi/internal/site"
)

// Rule turns a parsed JSON artifact into derived files.
//
// Select yields the records of a parsed document, NameOf computes the output
// path of a record and MetaOf its metadata. Nil fields are filled from
// DefaultRule at registration.
type Rule struct {
	Select func(doc any) ([]any, error)
	NameOf func(record any) (string, error)
	MetaOf func(record any) (site.Metadata, error)
}

// PatternRule is a rule together with the glob pattern it was registered for.
type PatternRule struct {
	Pattern string
	Rule    Rule
}

// DefaultRule returns the rule whose fields stand in for any a plugin leaves
// unset.
func DefaultRule() Rule {
	return Rule{
		Select: DefaultSelect,
		NameOf: DefaultNameOf,
		MetaOf: DefaultMetaOf,
	}
}

// DefaultSelect yields the elements of an array, or one single-member object
// per member of an object in member order. Any other value yields itself.
func DefaultSelect(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case *jsonx.Object, map[string]any:
		keys := jsonx.Keys(v)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			val, _ := jsonx.Lookup(v, k)
			out = append(out, jsonx.ObjectOf(k, val))
		}
		return out, nil
	default:
		return []any{doc}, nil
	}
}

// DefaultNameOf returns the first member name of an object record.
func DefaultNameOf(record any) (string, error) {
	keys := jsonx.Keys(record)
	if len(keys) == 0 {
		return "", fmt.Errorf("record %T has no member to name it by", record)
	}
	return keys[0], nil
}

// DefaultMetaOf returns an empty metadata record.
func DefaultMetaOf(any) (site.Metadata, error) {
	return site.Metadata{}, nil
}

func (r Rule) withDefaults() Rule {
	def := DefaultRule()
	if r.Select == nil {
		r.Select = def.Select
	}
	if r.NameOf == nil {
		r.NameOf = def.NameOf
	}
	if r.MetaOf == nil {
		r.MetaOf = def.MetaOf
	}
	return r
}
