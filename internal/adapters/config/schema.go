package config

import (
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// LaunchFile is the YAML launch descriptor.
type LaunchFile struct {
	Arguments []ArgumentDTO `yaml:"arguments"`
	Nodes     []NodeDTO     `yaml:"nodes"`
	Includes  []IncludeDTO  `yaml:"includes"`
}

// ArgumentDTO declares a launch argument.
type ArgumentDTO struct {
	Name        string  `yaml:"name"`
	Default     *string `yaml:"default"`
	Description string  `yaml:"description"`
}

// NodeDTO declares a node.
type NodeDTO struct {
	Package    string            `yaml:"package"`
	Executable string            `yaml:"executable"`
	Namespace  string            `yaml:"namespace"`
	Name       string            `yaml:"name"`
	Parameters ParameterList     `yaml:"parameters"`
	Remappings []RemappingDTO    `yaml:"remappings"`
	Args       []string          `yaml:"args"`
	Env        map[string]string `yaml:"env"`
	Cwd        string            `yaml:"cwd"`
	If         string            `yaml:"if"`
	Unless     string            `yaml:"unless"`
}

// RemappingDTO renames a topic.
type RemappingDTO struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// IncludeDTO includes another descriptor.
type IncludeDTO struct {
	Source    string       `yaml:"source"`
	Arguments OrderedPairs `yaml:"arguments"`
	If        string       `yaml:"if"`
	Unless    string       `yaml:"unless"`
}

// ParameterList is a node's parameter list. It decodes its items itself
// because yaml.v3 never hands null items to ParameterDTO.
type ParameterList []ParameterDTO

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *ParameterList) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.SequenceNode {
		return zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "parameters must be a list"), "line", node.Line)
	}
	for _, child := range node.Content {
		var p ParameterDTO
		if err := p.UnmarshalYAML(child); err != nil {
			return err
		}
		*l = append(*l, p)
	}
	return nil
}

// ParameterDTO is one entry of a node's parameter list: a scalar names a
// parameter file, a mapping holds key/value parameters.
type ParameterDTO struct {
	Entries []domain.Parameter
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *ParameterDTO) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "parameter file path is empty"), "line", node.Line)
		}
		p.Entries = []domain.Parameter{{Value: domain.PathValue(node.Value)}}
		return nil
	case yaml.MappingNode:
		entries, err := flattenMapping("", node)
		if err != nil {
			return err
		}
		p.Entries = entries
		return nil
	default:
		return zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "parameter entry must be a file path or a mapping"),
			"line", node.Line)
	}
}

// OrderedPairs is a string mapping that keeps its YAML order.
type OrderedPairs []domain.PassedArgument

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OrderedPairs) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "include arguments must be a mapping"),
			"line", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolveAlias(node.Content[i+1])
		if val.Kind != yaml.ScalarNode {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "include argument values must be scalars"),
				"argument", key.Value), "line", val.Line)
		}
		*o = append(*o, domain.PassedArgument{Name: key.Value, Value: val.Value})
	}
	return nil
}

func flattenMapping(prefix string, node *yaml.Node) ([]domain.Parameter, error) {
	var out []domain.Parameter
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := prefix + node.Content[i].Value
		val := resolveAlias(node.Content[i+1])
		if val.Kind == yaml.MappingNode {
			nested, err := flattenMapping(key+".", val)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		v, err := yamlValue(val)
		if err != nil {
			return nil, zerr.With(err, "parameter", key)
		}
		out = append(out, domain.Parameter{Name: key, Value: v})
	}
	return out, nil
}

func yamlValue(node *yaml.Node) (domain.Value, error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int", "!!float":
			return domain.NumberValue(node.Value), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return domain.Value{}, zerr.Wrap(domain.ErrInvalidParameter, err.Error())
			}
			return domain.BoolValue(b), nil
		case "!!null":
			return domain.Value{}, zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "parameter value is null"),
				"line", node.Line)
		default:
			return domain.StringValue(node.Value), nil
		}
	case yaml.SequenceNode:
		items := make([]domain.Value, 0, len(node.Content))
		for _, child := range node.Content {
			if resolveAlias(child).Kind != yaml.ScalarNode {
				return domain.Value{}, zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "list items must be scalars"),
					"line", child.Line)
			}
			item, err := yamlValue(child)
			if err != nil {
				return domain.Value{}, err
			}
			items = append(items, item)
		}
		return domain.ListValue(items...), nil
	default:
		return domain.Value{}, zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "unsupported parameter value"),
			"line", node.Line)
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
