package salad

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/reoring/salad/internal/tree"
	"github.com/reoring/salad/uri"
)

// Program is a compiled schema: the interned loader graph, the vocabulary
// and the loader used for whole documents.
type Program struct {
	registry *Registry
	vocab    *uri.Vocabulary
	root     *TypeDef
}

// NewProgram assembles a program. root is the loader applied by
// LoadDocument.
func NewProgram(reg *Registry, vocab *uri.Vocabulary, root *TypeDef) *Program {
	if vocab == nil {
		vocab = uri.NewVocabulary()
	}
	return &Program{registry: reg, vocab: vocab, root: root}
}

func (p *Program) Registry() *Registry         { return p.registry }
func (p *Program) Vocabulary() *uri.Vocabulary { return p.vocab }
func (p *Program) RootLoader() *TypeDef        { return p.root }

// Record returns a record type by full name, vocabulary term or class name.
func (p *Program) Record(name string) (*RecordType, bool) {
	if rt, ok := p.registry.Record(name); ok {
		return rt, true
	}
	if full, ok := p.vocab.Lookup(name); ok {
		if rt, ok := p.registry.Record(full); ok {
			return rt, true
		}
	}
	for _, rt := range p.registry.Records() {
		if rt.Short == name {
			return rt, true
		}
	}
	return nil, false
}

// NewLoadingOptions returns an empty context bound to the program.
func (p *Program) NewLoadingOptions() *LoadingOptions {
	lo := &LoadingOptions{Index: NewDocumentIndex(), Logger: logrus.StandardLogger()}
	lo.bindVocabulary(p.vocab)
	return lo
}

// prepare copies lo (never mutating the caller's value) and binds it to
// the program vocabulary.
func (p *Program) prepare(lo *LoadingOptions) *LoadingOptions {
	if lo == nil {
		return p.NewLoadingOptions()
	}
	c := lo.Copy()
	if c.Index == nil {
		c.Index = NewDocumentIndex()
	}
	c.bindVocabulary(p.vocab)
	return c
}

// Load decodes doc with the named TypeDef. name may be a canonical TypeDef
// name or the name of a record type.
func (p *Program) Load(name string, doc any, baseURI string, lo *LoadingOptions) (any, error) {
	td, ok := p.registry.Lookup(name)
	if !ok {
		rt, found := p.Record(name)
		if !found {
			return nil, fmt.Errorf("unknown type %q", name)
		}
		td, ok = p.registry.Lookup("record:" + rt.Name)
		if !ok {
			return rt.Load(doc, Scope{BaseURI: baseURI, Path: RootPath(), Options: p.prepare(lo)})
		}
	}
	return td.Loader.Load(doc, Scope{BaseURI: baseURI, Path: RootPath(), Options: p.prepare(lo)})
}

// DefaultBaseURI is the file URI of the working directory, with a trailing
// slash.
func DefaultBaseURI() string {
	wd, err := os.Getwd()
	if err != nil {
		return "file:///"
	}
	p := filepath.ToSlash(wd)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + strings.TrimSuffix(p, "/") + "/"
}

// LoadDocument loads a whole document with the root loader. A mapping is
// loaded with baseURI as its document root after the $namespaces,
// $schemas, $base and $graph directives are applied; a list loads every
// element; a string names a document already in the index. An empty
// baseURI defaults to DefaultBaseURI.
func (p *Program) LoadDocument(doc any, baseURI string, lo *LoadingOptions) (any, error) {
	if baseURI == "" {
		baseURI = DefaultBaseURI()
	}
	lo = p.prepare(lo)
	if lo.FileURI == "" {
		lo.FileURI = baseURI
	}
	return p.documentLoad(doc, baseURI, lo, RootPath())
}

// LoadDocumentFromText parses text with the current Parser, records it in
// the document index under u and loads it.
func (p *Program) LoadDocumentFromText(text []byte, u string, lo *LoadingOptions) (any, error) {
	parser := getParser()
	doc, locs, err := parser.Parse(text, u)
	if err != nil {
		var loc *Location
		var te *tree.Error
		if errors.As(err, &te) {
			loc = &Location{File: u, Line: te.Pos.Line, Column: te.Pos.Column}
		}
		return nil, newError(CodeParseError, "/", loc, map[string]string{"reason": err.Error()})
	}
	lo = p.prepare(lo)
	if lo.FileURI == "" {
		lo.FileURI = u
	}
	lo.Locations = locs
	lo.Index.Put(u, doc)
	lo.logger().WithFields(logrus.Fields{"uri": u, "parser": parser.Name()}).Debug("parsed document")
	return p.documentLoad(doc, u, lo, RootPath())
}

func (p *Program) documentLoad(doc any, base string, lo *LoadingOptions, path PathRef) (any, error) {
	sc := Scope{BaseURI: base, Path: path, Options: lo}
	switch d := doc.(type) {
	case string:
		target := uri.Join(base, d)
		cached, ok := lo.Index.Get(target)
		if !ok {
			return nil, sc.fail(CodeDocumentNotFound, map[string]string{"uri": target})
		}
		return p.documentLoad(cached, target, lo, path)
	case []any:
		return p.root.Loader.Load(d, sc)
	case map[string]any:
		m := make(map[string]any, len(d))
		for k, v := range d {
			m[k] = v
		}
		if raw, ok := m["$namespaces"]; ok {
			ns, err := stringMap(raw)
			if err != nil {
				return nil, sc.Field("$namespaces").fail(CodeInvalidType, map[string]string{"expected": "mapping of strings", "got": err.Error()})
			}
			lo = lo.WithNamespaces(ns)
			delete(m, "$namespaces")
		}
		if raw, ok := m["$schemas"]; ok {
			schemas, err := stringList(raw)
			if err != nil {
				return nil, sc.Field("$schemas").fail(CodeInvalidType, map[string]string{"expected": "list of strings", "got": err.Error()})
			}
			lo = lo.WithSchemas(schemas)
			delete(m, "$schemas")
		}
		if raw, ok := m["$base"]; ok {
			b, isStr := raw.(string)
			if !isStr {
				return nil, sc.Field("$base").fail(CodeInvalidType, map[string]string{"expected": "string", "got": typeName(raw)})
			}
			base = b
			delete(m, "$base")
		}
		sc = Scope{BaseURI: base, Path: path, Options: lo}
		if g, ok := m["$graph"]; ok {
			return p.root.Loader.Load(g, sc.Field("$graph"))
		}
		sc.DocRoot = base
		return p.root.Loader.Load(m, sc)
	}
	return nil, sc.fail(CodeInvalidType, map[string]string{"expected": "mapping, list or document reference", "got": typeName(doc)})
}

// SaveDocument writes a loaded document back as a plain tree. References
// are compacted against baseURL when relativeURIs is set.
func (p *Program) SaveDocument(v any, baseURL string, relativeURIs bool) (any, error) {
	return Save(v, SaveOptions{Top: true, BaseURL: baseURL, RelativeURIs: relativeURIs})
}

func stringMap(v any) (map[string]string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s", typeName(v))
	}
	out := make(map[string]string, len(m))
	for k, e := range m {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("%s for %q", typeName(e), k)
		}
		out[k] = s
	}
	return out, nil
}

func stringList(v any) ([]string, error) {
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%s item", typeName(e))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s", typeName(v))
}
