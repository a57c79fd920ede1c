package uri

import "strings"

// CompactOptions mirrors ExpandOptions; Relative turns compaction on.
type CompactOptions struct {
	ScopedID  bool
	VocabTerm bool
	RefScope  *int
	Relative  bool
}

func (o CompactOptions) expand() ExpandOptions {
	return ExpandOptions{ScopedID: o.ScopedID, VocabTerm: o.VocabTerm, RefScope: o.RefScope}
}

// Compact returns the shortest reference that Expand, called with the same
// base, vocabulary and flags, maps back to value. When no shorter reference
// round-trips, value is returned unchanged.
func Compact(value, base string, vocab *Vocabulary, opt CompactOptions) string {
	if !opt.Relative || value == base {
		return value
	}
	eo := opt.expand()
	if opt.VocabTerm {
		if term, ok := vocab.Term(value); ok && expandsTo(term, base, vocab, eo, value) {
			return term
		}
	}

	u, b := split(value), split(base)
	if u.scheme == "" || u.scheme != b.scheme || u.hasAuth != b.hasAuth || u.authority != b.authority {
		return value
	}

	var cands []string
	if u.path == b.path && u.query == b.query && u.hasFrag {
		if opt.ScopedID && b.fragment != "" {
			if rest, ok := strings.CutPrefix(u.fragment, b.fragment+"/"); ok {
				cands = append(cands, rest)
			}
		}
		if opt.RefScope != nil {
			if rest, ok := strings.CutPrefix(u.fragment, scopePrefix(b.fragment, *opt.RefScope)); ok {
				cands = append(cands, rest)
			}
		}
		cands = append(cands, u.fragment, "#"+u.fragment)
	}
	rel := parts{path: relativePath(u.path, b.path), query: u.query, hasQuery: u.hasQuery, fragment: u.fragment, hasFrag: u.hasFrag}
	cands = append(cands, rel.String())

	best := value
	for _, c := range cands {
		if c == "" || len(c) >= len(best) {
			continue
		}
		if expandsTo(c, base, vocab, eo, value) {
			best = c
		}
	}
	return best
}

func expandsTo(ref, base string, vocab *Vocabulary, opt ExpandOptions, want string) bool {
	got, err := Expand(ref, base, vocab, opt)
	return err == nil && got == want
}

func scopePrefix(frag string, n int) string {
	if frag == "" {
		return ""
	}
	segs := strings.Split(frag, "/")
	for ; n > 0 && len(segs) > 0; n-- {
		segs = segs[:len(segs)-1]
	}
	if len(segs) == 0 {
		return ""
	}
	return strings.Join(segs, "/") + "/"
}
