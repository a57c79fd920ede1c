package salad

import (
	"sort"
)

// IDMapLoader turns the compact mapping form of a list of records into the
// list form before delegating to Inner. Each key becomes the Subject field
// of its entry; a non-mapping value is placed under Predicate. Saving does
// not re-compact.
type IDMapLoader struct {
	Inner     Loader
	Subject   string
	Predicate string
}

func NewIDMapLoader(inner Loader, subject, predicate string) *IDMapLoader {
	return &IDMapLoader{Inner: inner, Subject: subject, Predicate: predicate}
}

func (l *IDMapLoader) Load(doc any, sc Scope) (any, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return l.Inner.Load(doc, sc)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	var errs []*ValidationError
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			entry := make(map[string]any, len(v)+1)
			for ek, ev := range v {
				entry[ek] = ev
			}
			entry[l.Subject] = k
			out = append(out, entry)
		default:
			if l.Predicate == "" {
				errs = append(errs, sc.Field(k).fail(CodeIDMap, map[string]string{"key": k, "predicate": l.Subject}))
				continue
			}
			out = append(out, map[string]any{l.Subject: k, l.Predicate: v})
		}
	}
	if len(errs) > 0 {
		return nil, sc.fail(CodeInvalidItems, nil, errs...)
	}
	esc := sc
	esc.keys = keys
	return l.Inner.Load(out, esc)
}

func (l *IDMapLoader) Save(v any, so SaveOptions) (any, error) { return l.Inner.Save(v, so) }

func (l *IDMapLoader) accepts(v any) bool { return l.Inner.accepts(v) }
