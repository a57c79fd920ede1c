package tree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Error is a structural problem found while converting a document.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// ParseYAML parses the first document in data (YAML or JSON) into a plain
// tree and its position index. An empty input yields a nil tree.
func ParseYAML(data []byte) (any, Index, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind == 0 {
		return nil, Index{}, nil
	}
	return FromYAML(&doc)
}

// FromYAML converts n into a plain tree. Mapping keys must be scalars and
// unique; aliases are expanded and merge keys ("<<") applied. Timestamps are
// kept as their literal text.
func FromYAML(n *yaml.Node) (any, Index, error) {
	c := &converter{index: Index{}, active: map[*yaml.Node]bool{}}
	v, err := c.convert(n, "/")
	if err != nil {
		return nil, nil, err
	}
	return v, c.index, nil
}

type converter struct {
	index  Index
	active map[*yaml.Node]bool
}

func pos(n *yaml.Node) Position { return Position{Line: n.Line, Column: n.Column} }

func (c *converter) mark(ptr string, n *yaml.Node) {
	if _, ok := c.index[ptr]; !ok {
		c.index[ptr] = pos(n)
	}
}

func (c *converter) convert(n *yaml.Node, ptr string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0], ptr)
	case yaml.AliasNode:
		if c.active[n.Alias] {
			return nil, &Error{Pos: pos(n), Msg: "recursive alias *" + n.Value}
		}
		c.active[n.Alias] = true
		defer delete(c.active, n.Alias)
		return c.convert(n.Alias, ptr)
	case yaml.MappingNode:
		c.mark(ptr, n)
		m := make(map[string]any, len(n.Content)/2)
		if err := c.mapping(n, ptr, m, true); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.SequenceNode:
		c.mark(ptr, n)
		out := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			p := JoinIndex(ptr, i)
			c.mark(p, item)
			v, err := c.convert(item, p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		c.mark(ptr, n)
		return scalar(n)
	}
	return nil, &Error{Pos: pos(n), Msg: fmt.Sprintf("unsupported node kind %d", n.Kind)}
}

// mapping fills m from the key/value pairs of n. Explicit keys always win
// over merged ones; strict reports duplicate explicit keys.
func (c *converter) mapping(n *yaml.Node, ptr string, m map[string]any, strict bool) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return &Error{Pos: pos(k), Msg: "mapping key must be a scalar"}
		}
		if _, dup := m[k.Value]; dup {
			if strict {
				return &Error{Pos: pos(k), Msg: fmt.Sprintf("duplicate key %q", k.Value)}
			}
			continue
		}
		p := Join(ptr, k.Value)
		c.mark(p, k)
		val, err := c.convert(v, p)
		if err != nil {
			return err
		}
		m[k.Value] = val
	}
	for _, src := range merges {
		if err := c.merge(src, ptr, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) merge(src *yaml.Node, ptr string, m map[string]any) error {
	for src.Kind == yaml.AliasNode {
		src = src.Alias
	}
	switch src.Kind {
	case yaml.MappingNode:
		return c.mapping(src, ptr, m, false)
	case yaml.SequenceNode:
		for _, item := range src.Content {
			if err := c.merge(item, ptr, m); err != nil {
				return err
			}
		}
		return nil
	}
	return &Error{Pos: pos(src), Msg: "merge value must be a mapping"}
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &Error{Pos: pos(n), Msg: err.Error()}
		}
		return v, nil
	}
	return n.Value, nil
}
