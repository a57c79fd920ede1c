package salad

import (
	"github.com/reoring/salad/uri"
)

// URILoader expands string values (or the strings of a list) to absolute
// URIs before delegating to Inner, and compacts them again on save.
type URILoader struct {
	Inner     Loader
	ScopedID  bool
	VocabTerm bool
	RefScope  *int
}

func NewURILoader(inner Loader, scopedID, vocabTerm bool, refScope *int) *URILoader {
	return &URILoader{Inner: inner, ScopedID: scopedID, VocabTerm: vocabTerm, RefScope: refScope}
}

func (l *URILoader) expandOptions() uri.ExpandOptions {
	return uri.ExpandOptions{ScopedID: l.ScopedID, VocabTerm: l.VocabTerm, RefScope: l.RefScope}
}

func (l *URILoader) Load(doc any, sc Scope) (any, error) {
	switch d := doc.(type) {
	case string:
		u, err := l.expand(d, sc)
		if err != nil {
			return nil, err
		}
		doc = u
	case []any:
		out := make([]any, len(d))
		var errs []*ValidationError
		for i, item := range d {
			s, ok := item.(string)
			if !ok {
				out[i] = item
				continue
			}
			u, err := l.expand(s, sc.Index(i))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out[i] = u
		}
		if len(errs) > 0 {
			return nil, sc.fail(CodeInvalidItems, nil, errs...)
		}
		doc = out
	}
	return l.Inner.Load(doc, sc)
}

func (l *URILoader) expand(s string, sc Scope) (string, *ValidationError) {
	u, err := uri.Expand(s, sc.BaseURI, sc.vocab(), l.expandOptions())
	if err != nil {
		return "", sc.fail(CodeInvalidURI, map[string]string{"value": s, "reason": err.Error()})
	}
	return u, nil
}

func (l *URILoader) Save(v any, so SaveOptions) (any, error) {
	opt := uri.CompactOptions{ScopedID: l.ScopedID, VocabTerm: l.VocabTerm, RefScope: l.RefScope, Relative: so.RelativeURIs}
	switch x := v.(type) {
	case string:
		return uri.Compact(x, so.BaseURL, so.Vocab, opt), nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			if s, ok := item.(string); ok {
				out[i] = uri.Compact(s, so.BaseURL, so.Vocab, opt)
				continue
			}
			sv, err := Save(item, so.nested())
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	}
	return l.Inner.Save(v, so)
}

func (l *URILoader) accepts(v any) bool { return l.Inner.accepts(v) }
