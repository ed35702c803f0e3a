package config

import (
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/jsonx"
)

// parseDocument returns the top-level mapping node. JSON is valid YAML, so
// one parser serves both formats.
func parseDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse configuration").Build()
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.ConfigError("configuration is empty").Build()
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.ConfigError("configuration must be a mapping").
			WithContext("line", root.Line).
			Build()
	}
	return root, nil
}

// expandEnv substitutes ${VAR} references in every string scalar below n.
func expandEnv(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		n.Value = os.ExpandEnv(n.Value)
		return
	}
	for _, child := range n.Content {
		expandEnv(child)
	}
}

// decodeOptions converts the top-level mapping into ordered options and
// returns the value node of each key for typed decoding.
func decodeOptions(root *yaml.Node) (*orderedmap.OrderedMap[string, any], map[string]*yaml.Node, error) {
	options := orderedmap.New[string, any]()
	nodes := make(map[string]*yaml.Node, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		if _, dup := nodes[key]; dup {
			return nil, nil, errors.ConfigError("duplicate configuration key").
				WithContext("key", key).
				WithContext("line", keyNode.Line).
				Build()
		}
		val, err := nodeValue(valNode)
		if err != nil {
			return nil, nil, errors.WrapError(err, errors.CategoryConfig, "decode configuration value").
				WithContext("key", key).
				Build()
		}
		options.Set(key, val)
		nodes[key] = valNode
	}
	return options, nodes, nil
}

// nodeValue decodes n keeping mapping order: mappings become *jsonx.Object,
// sequences []any, scalars their YAML-resolved Go value.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		obj := jsonx.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			val, err := nodeValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
