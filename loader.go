package salad

import (
	"github.com/reoring/salad/uri"
)

// Loader decodes one shape of document value and encodes it back. The set of
// implementations is closed: primitives, Any, arrays, enums, records,
// unions and the URI, id-map and type-DSL wrappers.
type Loader interface {
	// Load validates doc and returns its in-memory form. Failures are
	// reported as *ValidationError.
	Load(doc any, sc Scope) (any, error)
	// Save converts an in-memory value back into a plain tree.
	Save(v any, so SaveOptions) (any, error)

	// accepts reports whether v is an in-memory value this loader could
	// have produced. Unions use it to pick the alternative to save with.
	accepts(v any) bool
}

// Scope carries the per-value state of a load: the base URI relative
// references resolve against, the document root URI (top-level only), the
// pointer of the value and the shared context.
type Scope struct {
	BaseURI string
	DocRoot string
	Path    PathRef
	Options *LoadingOptions

	// keys names the elements of a list expanded from an id-map so that
	// element paths point at the original mapping keys.
	keys []string
}

func (sc Scope) pointer() string {
	if sc.Path == nil {
		return "/"
	}
	return sc.Path.Pointer()
}

func (sc Scope) root() PathRef {
	if sc.Path == nil {
		return RootPath()
	}
	return sc.Path
}

// Field returns the scope of the member name. The document root applies to
// the top-level value only and is not inherited.
func (sc Scope) Field(name string) Scope {
	c := sc
	c.Path = sc.root().Field(name)
	c.DocRoot = ""
	c.keys = nil
	return c
}

// Index returns the scope of array element i.
func (sc Scope) Index(i int) Scope {
	if i < len(sc.keys) {
		return sc.Field(sc.keys[i])
	}
	c := sc
	c.Path = sc.root().Index(i)
	c.DocRoot = ""
	return c
}

// WithBase returns sc resolving against base.
func (sc Scope) WithBase(base string) Scope {
	c := sc
	c.BaseURI = base
	return c
}

func (sc Scope) vocab() *uri.Vocabulary { return sc.Options.Vocabulary() }

func (sc Scope) fail(code string, data map[string]string, children ...*ValidationError) *ValidationError {
	p := sc.pointer()
	var loc *Location
	if sc.Options != nil {
		loc = sc.Options.Locations.Locate(p)
	}
	return newError(code, p, loc, data, children...)
}

// asValidation converts err into a tree node positioned at sc.
func asValidation(err error, sc Scope) *ValidationError {
	if ve, ok := AsValidationError(err); ok {
		return ve
	}
	return sc.fail(CodeInvalidType, map[string]string{"expected": "valid value", "got": err.Error()})
}

// SaveOptions controls how in-memory values are written back.
type SaveOptions struct {
	// Top marks the document root; records then emit $namespaces and
	// $schemas.
	Top bool
	// BaseURL is the URI that relative references are computed against.
	BaseURL string
	// RelativeURIs turns on URI compaction.
	RelativeURIs bool
	// Vocab is used for term compaction; records supply their own.
	Vocab *uri.Vocabulary
}

func (so SaveOptions) nested() SaveOptions {
	so.Top = false
	return so
}

func (so SaveOptions) WithBase(base string) SaveOptions {
	so.BaseURL = base
	return so
}

// TypeFlags are the URI attributes of a TypeDef.
type TypeFlags struct {
	IsURI     bool
	ScopedID  bool
	VocabTerm bool
	RefScope  *int
}

// TypeDef is one interned loader shape. Two shapes with the same canonical
// Name share a single TypeDef.
type TypeDef struct {
	Name   string
	Loader Loader
	TypeFlags
}
