package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one named value of an Ordered mapping.
type Entry[T any] struct {
	Name  string
	Value T
}

// Ordered is a YAML mapping decoded in document order.
type Ordered[T any] []Entry[T]

// UnmarshalYAML decodes each value of the mapping into T.
func (o *Ordered[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	out := make(Ordered[T], 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if seen[key.Value] {
			return fmt.Errorf("line %d: duplicate key %q", key.Line, key.Value)
		}
		seen[key.Value] = true

		var v T
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key.Value, err)
		}
		out = append(out, Entry[T]{Name: key.Value, Value: v})
	}
	*o = out
	return nil
}

// Get returns the value stored under name.
func (o Ordered[T]) Get(name string) (T, bool) {
	for _, e := range o {
		if e.Name == name {
			return e.Value, true
		}
	}
	var zero T
	return zero, false
}

// Names lists the keys in document order.
func (o Ordered[T]) Names() []string {
	names := make([]string, len(o))
	for i, e := range o {
		names[i] = e.Name
	}
	return names
}
