package salad

import (
	"encoding/json"
	"fmt"
	"math"
)

// PrimitiveKind enumerates the built-in scalar types.
type PrimitiveKind int

const (
	KindString PrimitiveKind = iota
	KindInt
	KindFloat
	KindBoolean
	KindNull
	KindAny
)

var primitiveKinds = []PrimitiveKind{KindString, KindInt, KindFloat, KindBoolean, KindNull, KindAny}

// String returns the canonical TypeDef name of the kind.
func (k PrimitiveKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindAny:
		return "Any"
	}
	return fmt.Sprintf("PrimitiveKind(%d)", int(k))
}

// PrimitiveLoader accepts a single scalar kind. Ints are stored as int64
// and floats as float64; Any accepts every non-null value unchanged.
type PrimitiveLoader struct {
	Kind PrimitiveKind
}

func NewPrimitiveLoader(k PrimitiveKind) *PrimitiveLoader { return &PrimitiveLoader{Kind: k} }

func (l *PrimitiveLoader) Load(doc any, sc Scope) (any, error) {
	switch l.Kind {
	case KindString:
		if s, ok := doc.(string); ok {
			return s, nil
		}
	case KindInt:
		if n, ok := toInt(doc); ok {
			return n, nil
		}
	case KindFloat:
		if f, ok := toFloat(doc); ok {
			return f, nil
		}
	case KindBoolean:
		if b, ok := doc.(bool); ok {
			return b, nil
		}
	case KindNull:
		if doc == nil {
			return nil, nil
		}
	case KindAny:
		if doc != nil {
			return doc, nil
		}
		return nil, sc.fail(CodeInvalidType, map[string]string{"expected": "a non-null value", "got": "null"})
	}
	return nil, sc.fail(CodeInvalidType, map[string]string{"expected": l.Kind.String(), "got": typeName(doc)})
}

func (l *PrimitiveLoader) Save(v any, so SaveOptions) (any, error) {
	if l.Kind == KindAny {
		return Save(v, so)
	}
	return v, nil
}

func (l *PrimitiveLoader) accepts(v any) bool {
	switch l.Kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindNull:
		return v == nil
	}
	return v != nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<63 {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// typeName names the document kind of v for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "mapping"
	case []any:
		return "array"
	case *Record:
		return "record"
	}
	if _, ok := toInt(v); ok {
		return "int"
	}
	if _, ok := toFloat(v); ok {
		return "float"
	}
	return fmt.Sprintf("%T", v)
}
