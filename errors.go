package salad

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/salad/i18n"
)

// Validation error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType      = "invalid_type"
	CodeInvalidEnum      = "invalid_enum"
	CodeInvalidField     = "invalid_field"
	CodeRequired         = "required"
	CodeFieldInvalid     = "field_invalid"
	CodeRecordInvalid    = "record_invalid"
	CodeClassMismatch    = "class_mismatch"
	CodeNoMatch          = "no_match"
	CodeInvalidItems     = "invalid_items"
	CodeInvalidURI       = "invalid_uri"
	CodeIDMap            = "idmap"
	CodeUnknownRecord    = "unknown_record"
	CodeParseError       = "parse_error"
	CodeDocumentNotFound = "document_not_found"
)

// ErrDocumentNotFound is matched by errors.Is when a string document
// refers to a URI that is not in the document index.
var ErrDocumentNotFound = errors.New("document not found")

// Location is a position in a source document.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ValidationError reports why a document does not conform. Errors form a
// tree: a record error holds one child per failing field, a union error one
// child per rejected alternative.
type ValidationError struct {
	Code     string
	Message  string
	Path     string // JSON Pointer of the offending value.
	Location *Location
	Children []*ValidationError
}

// Error renders the whole tree, one message per line, children indented
// below their parent.
func (e *ValidationError) Error() string {
	b := &strings.Builder{}
	e.render(b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (e *ValidationError) render(b *strings.Builder, depth int) {
	if e.Message == "" {
		for _, c := range e.Children {
			c.render(b, depth)
		}
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	b.WriteByte('\n')
	for _, c := range e.Children {
		c.render(b, depth+1)
	}
}

// Unwrap exposes the children to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	if len(e.Children) == 0 {
		return nil
	}
	out := make([]error, len(e.Children))
	for i, c := range e.Children {
		out[i] = c
	}
	return out
}

// Is matches ErrDocumentNotFound for missing index entries.
func (e *ValidationError) Is(target error) bool {
	return target == ErrDocumentNotFound && e.Code == CodeDocumentNotFound
}

// Issues flattens the tree into its leaves.
func (e *ValidationError) Issues() Issues {
	var out Issues
	var walk func(*ValidationError)
	walk = func(n *ValidationError) {
		if len(n.Children) == 0 {
			it := Issue{Path: n.Path, Code: n.Code, Message: n.Message}
			if n.Location != nil {
				it.Line, it.Column = n.Location.Line, n.Location.Column
			}
			out = append(out, it)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// AsValidationError extracts the outermost ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /inputs/2/type).
	Code    string // One of the codes listed above.
	Message string
	Line    int
	Column  int
}

// Issues is a flat collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts the flattened Issues from an error, accepting either a
// ValidationError tree or an Issues value.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	if ve, ok := AsValidationError(err); ok {
		return ve.Issues(), true
	}
	return nil, false
}

// SchemaError reports a malformed type declaration found at compile time.
type SchemaError struct {
	Type    string // Name of the declaring record or enum, if any.
	Field   string
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	b := &strings.Builder{}
	switch {
	case e.Type != "" && e.Field != "":
		fmt.Fprintf(b, "%s.%s: ", e.Type, e.Field)
	case e.Type != "":
		fmt.Fprintf(b, "%s: ", e.Type)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// newError builds a ValidationError with its message looked up in the
// current i18n catalog.
func newError(code, path string, loc *Location, data map[string]string, children ...*ValidationError) *ValidationError {
	return &ValidationError{
		Code:     code,
		Message:  i18n.T(code, data),
		Path:     path,
		Location: loc,
		Children: children,
	}
}
