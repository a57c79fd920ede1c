package salad

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/reoring/salad/internal/tree"
	"github.com/reoring/salad/uri"
)

// Position is a 1-based line and column in source text.
type Position = tree.Position

// Locations maps JSON pointers of one source document to their positions.
type Locations struct {
	File      string
	positions tree.Index
}

// NewLocations wraps a pointer-to-position table produced by a Parser.
func NewLocations(file string, positions map[string]Position) *Locations {
	return &Locations{File: file, positions: tree.Index(positions)}
}

// Locate returns the location of ptr or of its nearest recorded ancestor.
func (l *Locations) Locate(ptr string) *Location {
	if l == nil {
		return nil
	}
	p, ok := l.positions.Locate(ptr)
	if !ok {
		return nil
	}
	return &Location{File: l.File, Line: p.Line, Column: p.Column}
}

// DocumentIndex caches loaded documents by URI. It is safe for concurrent
// use and is shared by every copy of the LoadingOptions that created it.
type DocumentIndex struct {
	mu   sync.RWMutex
	docs map[string]any
}

func NewDocumentIndex() *DocumentIndex { return &DocumentIndex{docs: map[string]any{}} }

func (ix *DocumentIndex) Get(u string) (any, bool) {
	if ix == nil {
		return nil, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	d, ok := ix.docs[u]
	return d, ok
}

func (ix *DocumentIndex) Put(u string, doc any) {
	ix.mu.Lock()
	ix.docs[u] = doc
	ix.mu.Unlock()
}

func (ix *DocumentIndex) Len() int {
	if ix == nil {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// LoadingOptions is the context shared by every loader during one load and
// carried by the resulting records for saving. Derive variants with Copy,
// WithNamespaces and WithSchemas; a value handed to a load is never mutated.
type LoadingOptions struct {
	FileURI     string
	Namespaces  map[string]string
	Schemas     []string
	Index       *DocumentIndex
	OriginalDoc any
	Locations   *Locations
	Logger      logrus.FieldLogger

	base  *uri.Vocabulary // program vocabulary
	vocab *uri.Vocabulary // base overlaid with Namespaces
}

// Copy returns a shallow copy. Maps and slices are duplicated; the document
// index is shared.
func (lo *LoadingOptions) Copy() *LoadingOptions {
	if lo == nil {
		return &LoadingOptions{}
	}
	c := *lo
	if lo.Namespaces != nil {
		c.Namespaces = make(map[string]string, len(lo.Namespaces))
		for k, v := range lo.Namespaces {
			c.Namespaces[k] = v
		}
	}
	c.Schemas = append([]string(nil), lo.Schemas...)
	return &c
}

// WithNamespaces returns a copy whose namespaces are ns and whose vocabulary
// resolves each namespace prefix.
func (lo *LoadingOptions) WithNamespaces(ns map[string]string) *LoadingOptions {
	c := lo.Copy()
	c.Namespaces = make(map[string]string, len(ns))
	for k, v := range ns {
		c.Namespaces[k] = v
	}
	c.vocab = nil
	c.bindVocabulary(c.base)
	return c
}

// WithSchemas returns a copy listing the given schema references.
func (lo *LoadingOptions) WithSchemas(schemas []string) *LoadingOptions {
	c := lo.Copy()
	c.Schemas = append([]string(nil), schemas...)
	return c
}

// Vocabulary returns the effective vocabulary: the program's terms plus the
// declared namespace prefixes.
func (lo *LoadingOptions) Vocabulary() *uri.Vocabulary {
	if lo == nil {
		return nil
	}
	if lo.vocab == nil {
		return lo.base
	}
	return lo.vocab
}

func (lo *LoadingOptions) logger() logrus.FieldLogger {
	if lo == nil || lo.Logger == nil {
		return logrus.StandardLogger()
	}
	return lo.Logger
}

func (lo *LoadingOptions) bindVocabulary(v *uri.Vocabulary) {
	lo.base = v
	lo.vocab = nil
	if len(lo.Namespaces) > 0 {
		lo.vocab = v.WithNamespaces(lo.Namespaces)
	}
}

// snapshot is the context stored on a loaded record.
func (lo *LoadingOptions) snapshot(doc any) *LoadingOptions {
	if lo == nil {
		return &LoadingOptions{OriginalDoc: doc}
	}
	c := *lo
	c.OriginalDoc = doc
	return &c
}
