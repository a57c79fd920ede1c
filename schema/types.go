// Package schema models the resolved type declarations a Program is
// compiled from, and decodes them from YAML, JSON or plain trees.
package schema

import (
	salad "github.com/reoring/salad"
	"github.com/reoring/salad/uri"
)

// Type is a type declaration or reference. Implementations: Primitive,
// Named, *Array, Union, *Enum and *Record.
type Type interface {
	isType()
}

// Primitive is one of the built-in scalar types.
type Primitive struct {
	Kind salad.PrimitiveKind
}

// Named refers to a record or enum declared elsewhere by its full name.
type Named struct {
	Name string
}

type Array struct {
	Items Type
}

// Union lists alternatives in declaration order.
type Union struct {
	Alternatives []Type
}

type Enum struct {
	Name    string
	Symbols []string
	Doc     string
}

type Record struct {
	Name         string
	Fields       []Field
	Extends      []string
	Abstract     bool
	DocumentRoot bool
	Doc          string
}

func (Primitive) isType() {}
func (Named) isType()     {}
func (*Array) isType()    {}
func (Union) isType()     {}
func (*Enum) isType()     {}
func (*Record) isType()   {}

// URIKind selects how a field's string values are resolved.
type URIKind int

const (
	URINone  URIKind = iota
	URIID            // `_type: @id`: relative reference
	URIVocab         // `_type: @vocab`: vocabulary term
)

// JSONLD is the linked-data metadata of a field (its jsonldPredicate).
type JSONLD struct {
	// Identifier marks the field holding the record's own id.
	Identifier bool
	Predicate  string
	URI        URIKind
	// Identity resolves @id references as scoped ids.
	Identity     bool
	RefScope     *int
	TypeDSL      bool
	MapSubject   string
	MapPredicate string
}

type Field struct {
	Name   string
	Type   Type
	Doc    string
	JSONLD JSONLD
}

// Key is the member name used in documents.
func (f Field) Key() string { return uri.ShortName(f.Name) }

// Optional reports whether null is one of the field's alternatives.
func (f Field) Optional() bool { return IsNullable(f.Type) }

func (f Field) IsURI() bool { return f.JSONLD.Identifier || f.JSONLD.URI != URINone }

func (f Field) ScopedID() bool {
	return f.JSONLD.Identifier || (f.JSONLD.URI == URIID && f.JSONLD.Identity)
}

func (f Field) VocabTerm() bool { return f.JSONLD.URI == URIVocab }

// IsNullable reports whether t is null or a union with a null alternative.
func IsNullable(t Type) bool {
	switch x := t.(type) {
	case Primitive:
		return x.Kind == salad.KindNull
	case Union:
		for _, a := range x.Alternatives {
			if IsNullable(a) {
				return true
			}
		}
	}
	return false
}

// TypeName returns the declared name of a record or enum, "" otherwise.
func TypeName(t Type) string {
	switch x := t.(type) {
	case *Record:
		return x.Name
	case *Enum:
		return x.Name
	}
	return ""
}

const (
	xsdNS   = "http://www.w3.org/2001/XMLSchema#"
	saladNS = "https://w3id.org/cwl/salad#"
)

// ParsePrimitive maps a primitive type name, short or as a full XSD or
// salad URI, to its kind.
func ParsePrimitive(name string) (salad.PrimitiveKind, bool) {
	switch name {
	case "string", xsdNS + "string":
		return salad.KindString, true
	case "int", "long", xsdNS + "int", xsdNS + "long":
		return salad.KindInt, true
	case "float", "double", xsdNS + "float", xsdNS + "double":
		return salad.KindFloat, true
	case "boolean", xsdNS + "boolean":
		return salad.KindBoolean, true
	case "null", saladNS + "null":
		return salad.KindNull, true
	case "Any", saladNS + "Any":
		return salad.KindAny, true
	}
	return 0, false
}
