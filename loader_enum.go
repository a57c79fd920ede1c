package salad

import (
	"strings"

	"github.com/reoring/salad/uri"
)

// EnumLoader accepts one of a fixed set of symbols. Symbols are full URIs;
// a document may also spell one by its vocabulary term or short name. The
// loaded value is always the full symbol.
type EnumLoader struct {
	Name    string
	Symbols []string

	set   map[string]bool
	short map[string]string
}

func NewEnumLoader(name string, symbols []string) *EnumLoader {
	l := &EnumLoader{
		Name:    name,
		Symbols: append([]string(nil), symbols...),
		set:     make(map[string]bool, len(symbols)),
		short:   make(map[string]string, len(symbols)),
	}
	seen := map[string]int{}
	for _, s := range symbols {
		l.set[s] = true
		sn := uri.ShortName(s)
		seen[sn]++
		l.short[sn] = s
	}
	for sn, n := range seen {
		if n > 1 {
			delete(l.short, sn)
		}
	}
	return l
}

func (l *EnumLoader) Load(doc any, sc Scope) (any, error) {
	s, ok := doc.(string)
	if !ok {
		return nil, sc.fail(CodeInvalidType, map[string]string{"expected": "string (" + uri.ShortName(l.Name) + ")", "got": typeName(doc)})
	}
	if l.set[s] {
		return s, nil
	}
	if full, ok := sc.vocab().Lookup(s); ok && l.set[full] {
		return full, nil
	}
	if full, ok := l.short[s]; ok {
		return full, nil
	}
	return nil, sc.fail(CodeInvalidEnum, map[string]string{"value": s, "symbols": l.symbolList()})
}

// Save writes a symbol as its vocabulary term when relative output is on
// and the term maps back to the same symbol.
func (l *EnumLoader) Save(v any, so SaveOptions) (any, error) {
	s, ok := v.(string)
	if !ok || !so.RelativeURIs {
		return v, nil
	}
	if term, ok := so.Vocab.Term(s); ok {
		if full, _ := so.Vocab.Lookup(term); full == s {
			return term, nil
		}
	}
	return s, nil
}

func (l *EnumLoader) accepts(v any) bool {
	s, ok := v.(string)
	return ok && l.set[s]
}

func (l *EnumLoader) symbolList() string {
	names := make([]string, len(l.Symbols))
	for i, s := range l.Symbols {
		names[i] = "`" + uri.ShortName(s) + "`"
	}
	return strings.Join(names, ", ")
}
