package uri

import (
	"regexp"
	"strings"
)

// RFC 3986 appendix B, with and without the scheme group.
var (
	_refPattern      = regexp.MustCompile(`^(([^:/?#]+):)?(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?$`)
	_noSchemePattern = regexp.MustCompile(`^(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?$`)
	_schemePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*$`)
)

// parts holds the raw (never unescaped) components of a URI reference.
type parts struct {
	scheme    string
	authority string
	hasAuth   bool
	path      string
	query     string
	hasQuery  bool
	fragment  string
	hasFrag   bool
}

func split(s string) parts {
	m := _refPattern.FindStringSubmatch(s)
	if m[2] != "" && _schemePattern.MatchString(m[2]) {
		return parts{
			scheme:    m[2],
			authority: m[4],
			hasAuth:   m[3] != "",
			path:      m[5],
			query:     m[7],
			hasQuery:  m[6] != "",
			fragment:  m[9],
			hasFrag:   m[8] != "",
		}
	}
	m = _noSchemePattern.FindStringSubmatch(s)
	return parts{
		authority: m[2],
		hasAuth:   m[1] != "",
		path:      m[3],
		query:     m[5],
		hasQuery:  m[4] != "",
		fragment:  m[7],
		hasFrag:   m[6] != "",
	}
}

func (p parts) String() string {
	var b strings.Builder
	if p.scheme != "" {
		b.WriteString(p.scheme)
		b.WriteByte(':')
	}
	if p.hasAuth {
		b.WriteString("//")
		b.WriteString(p.authority)
	}
	b.WriteString(p.path)
	if p.hasQuery {
		b.WriteByte('?')
		b.WriteString(p.query)
	}
	if p.hasFrag {
		b.WriteByte('#')
		b.WriteString(p.fragment)
	}
	return b.String()
}

// withFragment returns the document part of p (scheme, authority, path and
// query) carrying the given fragment. An empty fragment is dropped.
func (p parts) withFragment(path, frag string) string {
	q := parts{
		scheme:    p.scheme,
		authority: p.authority,
		hasAuth:   p.hasAuth,
		path:      path,
		query:     p.query,
		hasQuery:  p.query != "",
		fragment:  frag,
		hasFrag:   frag != "",
	}
	return q.String()
}

// IsAbsolute reports whether s carries a scheme.
func IsAbsolute(s string) bool { return split(s).scheme != "" }

// Join resolves ref against base following RFC 3986 section 5.2. Unlike
// net/url it operates on the raw strings, so no component is re-escaped.
func Join(base, ref string) string {
	if base == "" {
		return ref
	}
	return resolve(split(base), split(ref)).String()
}

func resolve(base, ref parts) parts {
	var t parts
	switch {
	case ref.scheme != "":
		t = ref
		t.path = removeDotSegments(ref.path)
		return t
	case ref.hasAuth:
		t.authority, t.hasAuth = ref.authority, true
		t.path = removeDotSegments(ref.path)
		t.query, t.hasQuery = ref.query, ref.hasQuery
	case ref.path == "":
		t.authority, t.hasAuth = base.authority, base.hasAuth
		t.path = base.path
		if ref.hasQuery {
			t.query, t.hasQuery = ref.query, true
		} else {
			t.query, t.hasQuery = base.query, base.hasQuery
		}
	default:
		t.authority, t.hasAuth = base.authority, base.hasAuth
		if strings.HasPrefix(ref.path, "/") {
			t.path = removeDotSegments(ref.path)
		} else {
			t.path = removeDotSegments(mergePaths(base, ref.path))
		}
		t.query, t.hasQuery = ref.query, ref.hasQuery
	}
	t.scheme = base.scheme
	t.fragment, t.hasFrag = ref.fragment, ref.hasFrag
	return t
}

func mergePaths(base parts, ref string) string {
	if base.hasAuth && base.path == "" {
		return "/" + ref
	}
	i := strings.LastIndexByte(base.path, '/')
	if i < 0 {
		return ref
	}
	return base.path[:i+1] + ref
}

func removeDotSegments(p string) string {
	if p == "" {
		return ""
	}
	abs := strings.HasPrefix(p, "/")
	segs := strings.Split(p, "/")
	if abs {
		segs = segs[1:]
	}
	out := make([]string, 0, len(segs))
	trailing := false
	for i, s := range segs {
		last := i == len(segs)-1
		switch s {
		case ".":
			trailing = trailing || last
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			trailing = trailing || last
		default:
			out = append(out, s)
		}
	}
	res := strings.Join(out, "/")
	if abs {
		res = "/" + res
	}
	if trailing && !strings.HasSuffix(res, "/") {
		res += "/"
	}
	return res
}

// relativePath returns a path reference that resolves to target when the
// base document lives at basePath.
func relativePath(target, basePath string) string {
	dir := strings.Split(basePath[:strings.LastIndexByte(basePath, '/')+1], "/")
	dir = dir[:len(dir)-1]
	tseg := strings.Split(target, "/")
	n := 0
	for n < len(dir) && n < len(tseg)-1 && dir[n] == tseg[n] {
		n++
	}
	var b strings.Builder
	for i := n; i < len(dir); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(tseg[n:], "/"))
	rel := b.String()
	if rel == "" {
		return "./"
	}
	if first, _, _ := strings.Cut(rel, "/"); strings.Contains(first, ":") {
		return "./" + rel
	}
	return rel
}

// ShortName returns the last segment of the fragment of id, or of its path
// when id has no fragment.
func ShortName(id string) string {
	p := split(id)
	s := p.path
	if p.fragment != "" {
		s = p.fragment
	}
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}
