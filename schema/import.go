package schema

import (
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	_recordKeys = keySet("name", "type", "fields", "extends", "abstract", "documentRoot", "doc", "docParent", "docChild", "docAfter", "specialize", "jsonldPredicate", "inVocab")
	_enumKeys   = keySet("name", "type", "symbols", "doc", "docParent", "docChild", "docAfter", "jsonldPredicate", "extends", "inVocab")
	_fieldKeys  = keySet("name", "type", "doc", "jsonldPredicate", "default", "inherited_from")
	_ldKeys     = keySet("_id", "_type", "identity", "refScope", "typeDSL", "mapSubject", "mapPredicate", "noLinkCheck", "_container", "secondaryFilesDSL", "subscope")
)

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Import decodes a resolved type list. src may be raw YAML or JSON bytes,
// a list of declarations, a single declaration, or a mapping holding the
// list under $graph. Every top-level entry must be a named record or enum.
func Import(src any, opts Options) ([]Type, Diag, error) {
	d := &simpleDiag{}
	if src == nil {
		return nil, d, errors.New("schema: nil input")
	}
	if b, ok := src.([]byte); ok {
		var v any
		if err := yaml.Unmarshal(b, &v); err != nil {
			return nil, d, errors.Wrap(err, "schema: invalid YAML")
		}
		src = normalize(v)
	}

	var entries []any
	switch t := src.(type) {
	case []any:
		entries = t
	case map[string]any:
		if g, ok := t["$graph"].([]any); ok {
			entries = g
		} else {
			entries = []any{t}
		}
	default:
		return nil, d, errors.Errorf("schema: expected a list of declarations, got %T", src)
	}

	im := &importer{opts: opts, d: d}
	out := make([]Type, 0, len(entries))
	for i, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, d, errors.Errorf("schema: entry %d: expected a mapping, got %T", i, e)
		}
		t, err := im.parseDecl(m)
		if err != nil {
			return nil, d, errors.Wrapf(err, "schema: entry %d", i)
		}
		if TypeName(t) == "" {
			return nil, d, errors.Errorf("schema: entry %d: top-level declarations must be named records or enums", i)
		}
		out = append(out, t)
	}
	return out, d, nil
}

type importer struct {
	opts Options
	d    *simpleDiag
}

func (im *importer) unknownKeys(m map[string]any, known map[string]bool, where string) error {
	var extra []string
	for k := range m {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if im.opts.Strict {
			return errors.Errorf("%s: unknown key %q", where, k)
		}
		im.d.warnf("%s: ignoring unknown key %q", where, k)
	}
	return nil
}

func (im *importer) parseType(v any) (Type, error) {
	switch t := v.(type) {
	case string:
		if k, ok := ParsePrimitive(t); ok {
			return Primitive{Kind: k}, nil
		}
		if t == "" {
			return nil, errors.New("empty type name")
		}
		return Named{Name: t}, nil
	case []any:
		alts := make([]Type, 0, len(t))
		for i, a := range t {
			at, err := im.parseType(a)
			if err != nil {
				return nil, errors.Wrapf(err, "alternative %d", i)
			}
			alts = append(alts, at)
		}
		return Union{Alternatives: alts}, nil
	case map[string]any:
		return im.parseDecl(t)
	}
	return nil, errors.Errorf("unsupported type expression %T", v)
}

func (im *importer) parseDecl(m map[string]any) (Type, error) {
	tag, ok := m["type"].(string)
	if !ok {
		if inner, has := m["type"]; has {
			return im.parseType(inner)
		}
		return nil, errors.New("declaration has no type")
	}
	switch tag {
	case "array", saladNS + "array":
		items, ok := m["items"]
		if !ok {
			return nil, errors.New("array declaration has no items")
		}
		it, err := im.parseType(items)
		if err != nil {
			return nil, errors.Wrap(err, "items")
		}
		return &Array{Items: it}, nil
	case "enum", saladNS + "enum":
		return im.parseEnum(m)
	case "record", saladNS + "record":
		return im.parseRecord(m)
	}
	if _, isPrim := ParsePrimitive(tag); isPrim || len(m) == 1 {
		return im.parseType(tag)
	}
	return nil, errors.Errorf("unknown type tag %q", tag)
}

func (im *importer) parseEnum(m map[string]any) (Type, error) {
	name, _ := m["name"].(string)
	if name == "" {
		return nil, errors.New("enum has no name")
	}
	if err := im.unknownKeys(m, _enumKeys, "enum "+name); err != nil {
		return nil, err
	}
	raw, ok := m["symbols"].([]any)
	if !ok {
		return nil, errors.Errorf("enum %s: symbols must be a list", name)
	}
	e := &Enum{Name: name, Doc: docString(m["doc"])}
	for i, s := range raw {
		sym, ok := s.(string)
		if !ok {
			return nil, errors.Errorf("enum %s: symbol %d is not a string", name, i)
		}
		e.Symbols = append(e.Symbols, sym)
	}
	return e, nil
}

func (im *importer) parseRecord(m map[string]any) (Type, error) {
	name, _ := m["name"].(string)
	if name == "" {
		return nil, errors.New("record has no name")
	}
	if err := im.unknownKeys(m, _recordKeys, "record "+name); err != nil {
		return nil, err
	}
	r := &Record{Name: name, Doc: docString(m["doc"])}
	r.Abstract, _ = m["abstract"].(bool)
	r.DocumentRoot, _ = m["documentRoot"].(bool)
	switch ex := m["extends"].(type) {
	case nil:
	case string:
		r.Extends = []string{ex}
	case []any:
		for _, e := range ex {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Errorf("record %s: extends entries must be strings", name)
			}
			r.Extends = append(r.Extends, s)
		}
	default:
		return nil, errors.Errorf("record %s: extends must be a string or list", name)
	}

	rawFields, _ := m["fields"].([]any)
	if f, ok := m["fields"]; ok && rawFields == nil && f != nil {
		return nil, errors.Errorf("record %s: fields must be a list", name)
	}
	for i, rf := range rawFields {
		fm, ok := rf.(map[string]any)
		if !ok {
			return nil, errors.Errorf("record %s: field %d is not a mapping", name, i)
		}
		f, err := im.parseField(fm, name)
		if err != nil {
			return nil, errors.Wrapf(err, "record %s", name)
		}
		r.Fields = append(r.Fields, f)
	}
	return r, nil
}

func (im *importer) parseField(m map[string]any, owner string) (Field, error) {
	name, _ := m["name"].(string)
	if name == "" {
		return Field{}, errors.New("field has no name")
	}
	if err := im.unknownKeys(m, _fieldKeys, "field "+name); err != nil {
		return Field{}, err
	}
	raw, ok := m["type"]
	if !ok {
		return Field{}, errors.Errorf("field %s has no type", name)
	}
	t, err := im.parseType(raw)
	if err != nil {
		return Field{}, errors.Wrapf(err, "field %s", name)
	}
	ld, err := im.parseJSONLD(m["jsonldPredicate"], name)
	if err != nil {
		return Field{}, err
	}
	return Field{Name: name, Type: t, Doc: docString(m["doc"]), JSONLD: ld}, nil
}

func (im *importer) parseJSONLD(v any, field string) (JSONLD, error) {
	var ld JSONLD
	switch t := v.(type) {
	case nil:
		return ld, nil
	case string:
		if t == "@id" {
			ld.Identifier = true
		} else {
			ld.Predicate = t
		}
		return ld, nil
	case map[string]any:
		if err := im.unknownKeys(t, _ldKeys, "jsonldPredicate of "+field); err != nil {
			return ld, err
		}
		if id, ok := t["_id"].(string); ok {
			if id == "@id" {
				ld.Identifier = true
			} else {
				ld.Predicate = id
			}
		}
		switch t["_type"] {
		case nil:
		case "@id":
			ld.URI = URIID
		case "@vocab":
			ld.URI = URIVocab
		default:
			im.d.warnf("field %s: ignoring _type %v", field, t["_type"])
		}
		ld.Identity, _ = t["identity"].(bool)
		ld.TypeDSL, _ = t["typeDSL"].(bool)
		if s, ok := t["mapSubject"]; ok {
			ld.MapSubject, _ = s.(string)
			if ld.MapSubject == "" {
				return ld, errors.Errorf("field %s: mapSubject must be a non-empty string", field)
			}
		}
		if p, ok := t["mapPredicate"]; ok {
			ld.MapPredicate, _ = p.(string)
			if ld.MapPredicate == "" {
				return ld, errors.Errorf("field %s: mapPredicate must be a non-empty string", field)
			}
		}
		if rs, ok := t["refScope"]; ok {
			n, ok := asInt(rs)
			if !ok || n < 0 {
				return ld, errors.Errorf("field %s: refScope must be a non-negative integer", field)
			}
			ld.RefScope = &n
		}
		return ld, nil
	}
	return ld, errors.Errorf("field %s: jsonldPredicate must be a string or mapping", field)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func docString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		s := ""
		for i, e := range t {
			if i > 0 {
				s += "\n"
			}
			if es, ok := e.(string); ok {
				s += es
			}
		}
		return s
	}
	return ""
}
