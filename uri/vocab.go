// Package uri implements JSON-LD style identifier resolution: expansion of
// short or relative references to absolute URIs and the inverse compaction
// used when documents are written back out.
package uri

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownTerm is returned when a vocabulary reference does not
	// resolve to an absolute URI.
	ErrUnknownTerm = errors.New("term is not defined in the vocabulary")
	// ErrTermConflict is returned when a term is registered twice with
	// different URIs.
	ErrTermConflict = errors.New("conflicting vocabulary term")
)

// Vocabulary is a bidirectional mapping between short terms and full URIs.
// A nil *Vocabulary behaves as an empty one.
type Vocabulary struct {
	terms map[string]string
	uris  map[string]string
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{terms: map[string]string{}, uris: map[string]string{}}
}

// Register maps term to full. Registering the same pair again is a no-op.
// The first term registered for a URI wins the reverse mapping.
func (v *Vocabulary) Register(term, full string) error {
	if existing, ok := v.terms[term]; ok {
		if existing == full {
			return nil
		}
		return errors.Wrapf(ErrTermConflict, "term %q maps to %q and %q", term, existing, full)
	}
	v.terms[term] = full
	if _, ok := v.uris[full]; !ok {
		v.uris[full] = term
	}
	return nil
}

// Lookup returns the URI registered for term.
func (v *Vocabulary) Lookup(term string) (string, bool) {
	if v == nil {
		return "", false
	}
	full, ok := v.terms[term]
	return full, ok
}

// Term returns the short term registered for full.
func (v *Vocabulary) Term(full string) (string, bool) {
	if v == nil {
		return "", false
	}
	t, ok := v.uris[full]
	return t, ok
}

func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Terms returns the registered terms in sorted order.
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.terms))
	for t := range v.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (v *Vocabulary) Clone() *Vocabulary {
	c := NewVocabulary()
	if v == nil {
		return c
	}
	for t, u := range v.terms {
		c.terms[t] = u
	}
	for u, t := range v.uris {
		c.uris[u] = t
	}
	return c
}

// WithNamespaces returns a copy of v where each namespace prefix maps to its
// URI, overriding any term of the same name. v itself is not modified.
func (v *Vocabulary) WithNamespaces(ns map[string]string) *Vocabulary {
	c := v.Clone()
	for prefix, full := range ns {
		c.terms[prefix] = full
		c.uris[full] = prefix
	}
	return c
}
