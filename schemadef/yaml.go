package schemadef

import (
	"math"
	"os"
	"strconv"

	"github.com/performancecopilot/membuffer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseYAML reads a single schema definition. Type tokens that are not
// primitives are looked up in reg, which may be nil.
func ParseYAML(data []byte, reg *membuffer.Registry) (membuffer.Schema, error) {
	root, err := yamlRoot(data)
	if err != nil {
		return nil, err
	}
	return yamlSchema(root, reg)
}

// LoadYAML registers every definition of a top level mapping in reg and
// returns their names in document order
func LoadYAML(data []byte, reg *membuffer.Registry) ([]string, error) {
	root, err := yamlRoot(data)
	if err != nil {
		return nil, err
	}

	if root.Kind != yaml.MappingNode {
		return nil, yamlError(root, "top level must map names to schemas")
	}

	entries := make([]entry, 0, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		entries = append(entries, entry{
			name: key.Value,
			parse: func(reg *membuffer.Registry) (membuffer.Schema, error) {
				return yamlSchema(value, reg)
			},
		})
	}

	return load(entries, reg)
}

// LoadYAMLFile is LoadYAML on the contents of a file
func LoadYAMLFile(path string, reg *membuffer.Registry) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read schema file")
	}
	return LoadYAML(data, reg)
}

func yamlRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "cannot parse YAML schema")
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Wrap(membuffer.ErrInvalidSchema, "empty YAML document")
	}
	return deref(doc.Content[0]), nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlError(n *yaml.Node, msg string) error {
	return errors.Wrapf(membuffer.ErrInvalidSchema, "line %d: %s", n.Line, msg)
}

func yamlSchema(n *yaml.Node, reg *membuffer.Registry) (membuffer.Schema, error) {
	n = deref(n)

	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			v, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				return nil, yamlError(n, err.Error())
			}
			return byteCount(v)
		case "!!str":
			return resolve(n.Value, reg)
		}
		return nil, yamlError(n, "expected a byte count or a type name, got "+n.ShortTag())

	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return nil, yamlError(n, "empty parametrized type")
		}

		head := deref(n.Content[0])
		if head.Kind != yaml.ScalarNode || head.ShortTag() != "!!str" {
			return nil, yamlError(head, "parametrized type must start with a type name")
		}

		args := make([]any, 0, len(n.Content)-1)
		for _, c := range n.Content[1:] {
			a, err := yamlArg(deref(c))
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return param(head.Value, args)

	case yaml.MappingNode:
		fields := make([]membuffer.Field, 0, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			name := n.Content[i].Value
			s, err := yamlSchema(n.Content[i+1], reg)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", name)
			}
			fields = append(fields, membuffer.F(name, s))
		}
		return object(fields)
	}

	return nil, yamlError(n, "unsupported node")
}

func yamlArg(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, yamlError(n, "arguments must be scalars")
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, yamlError(n, err.Error())
	}

	switch a := v.(type) {
	case int, bool, string, float64:
		return a, nil
	case int64:
		if a < math.MinInt32 || a > math.MaxInt32 {
			return nil, yamlError(n, "argument out of range "+n.Value)
		}
		return int(a), nil
	case uint64:
		if a > math.MaxInt32 {
			return nil, yamlError(n, "argument out of range "+n.Value)
		}
		return int(a), nil
	}
	return nil, yamlError(n, "unsupported argument "+n.Value)
}
