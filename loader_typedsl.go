package salad

import (
	"reflect"
	"regexp"

	"github.com/reoring/salad/uri"
)

// TypeDSL is a parsed type shorthand: a type reference with optional array
// and optional modifiers.
type TypeDSL struct {
	Name     string
	Array    bool
	Optional bool
}

// TypeDSLRule recognises shorthand type strings. ok is false when s is a
// plain value that must be passed through unchanged.
type TypeDSLRule func(s string) (TypeDSL, bool)

var _typeDSLPattern = regexp.MustCompile(`^([^[?]+)(\[\])?(\?)?$`)

// DefaultTypeDSL accepts `name`, `name[]`, `name?` and `name[]?`.
func DefaultTypeDSL(s string) (TypeDSL, bool) {
	m := _typeDSLPattern.FindStringSubmatch(s)
	if m == nil {
		return TypeDSL{}, false
	}
	return TypeDSL{Name: m[1], Array: m[2] != "", Optional: m[3] != ""}, true
}

// TypeDSLLoader rewrites type shorthand into the long form before
// delegating to Inner: `T[]` becomes {type: array, items: T} and `T?`
// becomes [null, T]. The referenced name is resolved as a vocabulary term
// under RefScope.
type TypeDSLLoader struct {
	Inner    Loader
	RefScope *int
	Rule     TypeDSLRule
}

func NewTypeDSLLoader(inner Loader, refScope *int, rule TypeDSLRule) *TypeDSLLoader {
	if rule == nil {
		rule = DefaultTypeDSL
	}
	return &TypeDSLLoader{Inner: inner, RefScope: refScope, Rule: rule}
}

func (l *TypeDSLLoader) Load(doc any, sc Scope) (any, error) {
	switch d := doc.(type) {
	case string:
		v, err := l.resolve(d, sc)
		if err != nil {
			return nil, err
		}
		doc = v
	case []any:
		out := make([]any, 0, len(d))
		for i, item := range d {
			s, ok := item.(string)
			if !ok {
				out = append(out, item)
				continue
			}
			v, err := l.resolve(s, sc.Index(i))
			if err != nil {
				return nil, err
			}
			if list, ok := v.([]any); ok {
				for _, e := range list {
					out = appendUnique(out, e)
				}
				continue
			}
			out = appendUnique(out, v)
		}
		doc = out
	}
	return l.Inner.Load(doc, sc)
}

func (l *TypeDSLLoader) resolve(s string, sc Scope) (any, error) {
	t, ok := l.Rule(s)
	if !ok {
		return s, nil
	}
	first, err := uri.Expand(t.Name, sc.BaseURI, sc.vocab(), uri.ExpandOptions{VocabTerm: true, RefScope: l.RefScope})
	if err != nil {
		return nil, sc.fail(CodeInvalidURI, map[string]string{"value": t.Name, "reason": err.Error()})
	}
	var v any = first
	if t.Array {
		v = map[string]any{"type": "array", "items": first}
	}
	if t.Optional {
		v = []any{"null", v}
	}
	return v, nil
}

func appendUnique(list []any, v any) []any {
	for _, e := range list {
		if reflect.DeepEqual(e, v) {
			return list
		}
	}
	return append(list, v)
}

func (l *TypeDSLLoader) Save(v any, so SaveOptions) (any, error) { return l.Inner.Save(v, so) }

func (l *TypeDSLLoader) accepts(v any) bool { return l.Inner.accepts(v) }
