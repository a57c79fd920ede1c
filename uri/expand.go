package uri

import (
	"strings"

	"github.com/pkg/errors"
)

// ExpandOptions selects how a reference is resolved against its base.
type ExpandOptions struct {
	// ScopedID resolves a fragment-less reference beneath the base's
	// fragment, the way identifiers of nested objects are formed.
	ScopedID bool
	// VocabTerm resolves the reference through the vocabulary first and
	// requires the result to be absolute.
	VocabTerm bool
	// RefScope, when set, drops that many trailing segments from the base
	// fragment before appending the reference.
	RefScope *int
}

// Expand resolves value against base. The result is absolute whenever base
// is, except for the JSON-LD keywords, blank node ids and parameter
// expressions, which are returned unchanged.
func Expand(value, base string, vocab *Vocabulary, opt ExpandOptions) (string, error) {
	if value == "@id" || value == "@type" || strings.HasPrefix(value, "_:") {
		return value, nil
	}
	if opt.VocabTerm {
		if full, ok := vocab.Lookup(value); ok {
			return full, nil
		}
	}
	if vocab.Len() > 0 {
		if prefix, rest, ok := strings.Cut(value, ":"); ok && prefix != "" {
			if ns, ok := vocab.Lookup(prefix); ok {
				value = ns + rest
			}
		}
	}

	ref := split(value)
	var out string
	switch {
	case ref.scheme != "" || isExpression(value):
		out = value
	case opt.ScopedID && !ref.hasFrag:
		b := split(base)
		frag := ref.path
		if b.fragment != "" {
			frag = b.fragment + "/" + ref.path
		}
		path := b.path
		if path == "" {
			path = "/"
		}
		out = b.withFragment(path, frag)
	case opt.RefScope != nil && !ref.hasFrag:
		b := split(base)
		var segs []string
		if b.fragment != "" {
			segs = strings.Split(b.fragment, "/")
		}
		for n := *opt.RefScope; n > 0 && len(segs) > 0; n-- {
			segs = segs[:len(segs)-1]
		}
		segs = append(segs, value)
		out = b.withFragment(b.path, strings.Join(segs, "/"))
	default:
		out = Join(base, value)
	}

	if opt.VocabTerm && !IsAbsolute(out) {
		return "", errors.Wrapf(ErrUnknownTerm, "%q", value)
	}
	return out, nil
}

func isExpression(s string) bool {
	return strings.HasPrefix(s, "$(") || strings.HasPrefix(s, "${")
}
