package salad

import "github.com/reoring/salad/internal/tree"

// PathRef builds JSON Pointer paths in a chain-safe way.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
}

// RootPath returns the PathRef of a document root ("/").
func RootPath() PathRef { return pathRef{ptr: "/"} }

type pathRef struct {
	ptr string
}

// Field appends name, escaping '~' and '/' per RFC 6901.
func (p pathRef) Field(name string) PathRef { return pathRef{ptr: tree.Join(p.ptr, name)} }

func (p pathRef) Index(i int) PathRef { return pathRef{ptr: tree.JoinIndex(p.ptr, i)} }

func (p pathRef) Pointer() string {
	if p.ptr == "" {
		return "/"
	}
	return p.ptr
}
