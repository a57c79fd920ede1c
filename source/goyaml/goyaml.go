// Package goyaml is a salad.Parser backed by github.com/goccy/go-yaml.
package goyaml

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	salad "github.com/reoring/salad"
	"github.com/reoring/salad/internal/tree"
)

// Parser returns a salad.Parser backed by goccy/go-yaml.
func Parser() salad.Parser { return goYAML{} }

type goYAML struct{}

func (goYAML) Name() string { return "go-yaml" }

func (goYAML) Parse(data []byte, uri string) (any, *salad.Locations, error) {
	f, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, nil, err
	}
	c := &converter{index: tree.Index{}, anchors: map[string]ast.Node{}}
	var doc any
	if len(f.Docs) > 0 && f.Docs[0].Body != nil {
		doc, err = c.convert(f.Docs[0].Body, "/")
		if err != nil {
			return nil, nil, err
		}
	}
	return doc, salad.NewLocations(uri, c.index), nil
}

type converter struct {
	index   tree.Index
	anchors map[string]ast.Node
	depth   int
}

const maxAliasDepth = 1000

func position(n ast.Node) tree.Position {
	tk := n.GetToken()
	if tk == nil || tk.Position == nil {
		return tree.Position{}
	}
	return tree.Position{Line: tk.Position.Line, Column: tk.Position.Column}
}

func (c *converter) mark(ptr string, n ast.Node) {
	if _, ok := c.index[ptr]; ok {
		return
	}
	if p := position(n); !p.IsZero() {
		c.index[ptr] = p
	}
}

func (c *converter) convert(n ast.Node, ptr string) (any, error) {
	switch x := n.(type) {
	case *ast.DocumentNode:
		if x.Body == nil {
			return nil, nil
		}
		return c.convert(x.Body, ptr)
	case *ast.AnchorNode:
		c.anchors[x.Name.GetToken().Value] = x.Value
		return c.convert(x.Value, ptr)
	case *ast.AliasNode:
		name := x.Value.GetToken().Value
		target, ok := c.anchors[name]
		if !ok {
			return nil, &tree.Error{Pos: position(x), Msg: "unknown alias *" + name}
		}
		if c.depth++; c.depth > maxAliasDepth {
			return nil, &tree.Error{Pos: position(x), Msg: "alias nesting too deep"}
		}
		defer func() { c.depth-- }()
		return c.convert(target, ptr)
	case *ast.TagNode:
		return c.convert(x.Value, ptr)
	case *ast.MappingNode:
		c.mark(ptr, x)
		return c.mapping(x.Values, ptr)
	case *ast.MappingValueNode:
		c.mark(ptr, x)
		return c.mapping([]*ast.MappingValueNode{x}, ptr)
	case *ast.SequenceNode:
		c.mark(ptr, x)
		out := make([]any, 0, len(x.Values))
		for i, item := range x.Values {
			p := tree.JoinIndex(ptr, i)
			c.mark(p, item)
			v, err := c.convert(item, p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	c.mark(ptr, n)
	return scalar(n)
}

// mapping converts the entries of one mapping. Explicit keys win over
// merged ones and may not repeat.
func (c *converter) mapping(values []*ast.MappingValueNode, ptr string) (map[string]any, error) {
	m := make(map[string]any, len(values))
	var merges []*ast.MappingValueNode
	for _, mv := range values {
		if _, ok := mv.Key.(*ast.MergeKeyNode); ok {
			merges = append(merges, mv)
			continue
		}
		key, err := c.keyString(mv.Key)
		if err != nil {
			return nil, err
		}
		if _, dup := m[key]; dup {
			return nil, &tree.Error{Pos: position(mv.Key), Msg: fmt.Sprintf("duplicate key %q", key)}
		}
		p := tree.Join(ptr, key)
		c.mark(p, mv.Key)
		v, err := c.convert(mv.Value, p)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	for _, mv := range merges {
		v, err := c.convert(mv.Value, ptr)
		if err != nil {
			return nil, err
		}
		if err := merge(m, v, position(mv)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func merge(dst map[string]any, v any, pos tree.Position) error {
	switch src := v.(type) {
	case map[string]any:
		for k, e := range src {
			if _, ok := dst[k]; !ok {
				dst[k] = e
			}
		}
		return nil
	case []any:
		for _, e := range src {
			if err := merge(dst, e, pos); err != nil {
				return err
			}
		}
		return nil
	}
	return &tree.Error{Pos: pos, Msg: "merge value must be a mapping"}
}

func (c *converter) keyString(k ast.Node) (string, error) {
	k = unwrap(k)
	switch k.(type) {
	case *ast.MappingNode, *ast.MappingValueNode, *ast.SequenceNode, *ast.AliasNode:
		return "", &tree.Error{Pos: position(k), Msg: "mapping key must be a scalar"}
	}
	v, err := scalar(k)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "null", nil
	}
	return fmt.Sprint(v), nil
}

func unwrap(n ast.Node) ast.Node {
	for {
		switch x := n.(type) {
		case *ast.TagNode:
			n = x.Value
		case *ast.AnchorNode:
			n = x.Value
		default:
			return n
		}
	}
}

func scalar(n ast.Node) (any, error) {
	switch x := n.(type) {
	case *ast.StringNode:
		return x.Value, nil
	case *ast.LiteralNode:
		return x.Value.Value, nil
	case *ast.IntegerNode:
		switch v := x.Value.(type) {
		case int64:
			return v, nil
		case uint64:
			return v, nil
		}
		return strconv.ParseInt(fmt.Sprint(x.Value), 0, 64)
	case *ast.FloatNode:
		return x.Value, nil
	case *ast.InfinityNode:
		return x.Value, nil
	case *ast.NanNode:
		return math.NaN(), nil
	case *ast.BoolNode:
		return x.Value, nil
	case *ast.NullNode:
		return nil, nil
	}
	return nil, &tree.Error{Pos: position(n), Msg: fmt.Sprintf("unsupported YAML node %s", n.Type())}
}
