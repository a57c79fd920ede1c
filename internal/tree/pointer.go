// Package tree converts parsed documents into plain value trees
// (map[string]any, []any and scalars) and records where each value came
// from in the source text.
package tree

import (
	"strconv"
	"strings"
)

// Position is a 1-based line and column in source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) IsZero() bool { return p.Line == 0 && p.Column == 0 }

// Index maps JSON pointers ("/" for the root) to source positions. Mapping
// entries are recorded at the position of their key.
type Index map[string]Position

// Locate returns the position recorded for ptr, falling back to the nearest
// recorded ancestor.
func (ix Index) Locate(ptr string) (Position, bool) {
	if len(ix) == 0 {
		return Position{}, false
	}
	for {
		if p, ok := ix[ptr]; ok {
			return p, true
		}
		if ptr == "/" || ptr == "" {
			return Position{}, false
		}
		ptr = Parent(ptr)
	}
}

// Escape applies RFC 6901 escaping to a single reference token.
func Escape(seg string) string {
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~", "~0"), "/", "~1")
}

// Unescape reverses Escape.
func Unescape(seg string) string {
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

// Join appends an unescaped token to ptr.
func Join(ptr, seg string) string {
	if ptr == "" || ptr == "/" {
		return "/" + Escape(seg)
	}
	return ptr + "/" + Escape(seg)
}

// JoinIndex appends an array index to ptr.
func JoinIndex(ptr string, i int) string { return Join(ptr, strconv.Itoa(i)) }

// Parent returns the pointer one level up; the parent of the root is the root.
func Parent(ptr string) string {
	i := strings.LastIndexByte(ptr, '/')
	if i <= 0 {
		return "/"
	}
	return ptr[:i]
}
