package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ImportYAML decodes declarations from YAML. Multiple documents in one
// stream are concatenated in order.
func ImportYAML(data []byte, opts Options) ([]Type, Diag, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var all []any
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &simpleDiag{}, fmt.Errorf("schema: invalid YAML: %w", err)
		}
		switch t := normalize(node).(type) {
		case nil:
		case []any:
			all = append(all, t...)
		case map[string]any:
			if g, ok := t["$graph"].([]any); ok {
				all = append(all, g...)
			} else {
				all = append(all, t)
			}
		default:
			return nil, &simpleDiag{}, fmt.Errorf("schema: unexpected YAML document of type %T", t)
		}
	}
	return Import(all, opts)
}

// ImportJSON decodes declarations from JSON using goccy/go-json.
func ImportJSON(data []byte, opts Options) ([]Type, Diag, error) {
	var v any
	if err := gojson.Unmarshal(data, &v); err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("schema: invalid JSON: %w", err)
	}
	return Import(v, opts)
}

// normalize converts YAML-decoded values (which may contain map[any]any)
// into JSON-like trees recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalize(t[i])
		}
		return arr
	default:
		return v
	}
}
