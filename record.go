package salad

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/reoring/salad/uri"
)

// FieldSpec declares one field of a record type.
type FieldSpec struct {
	Name     string // full field name
	Key      string // document key
	Type     *TypeDef
	Optional bool
}

// RecordType is the decode and encode unit of one concrete record.
type RecordType struct {
	Name    string // full type name
	Short   string // class name used in documents
	Class   bool   // documents must carry `class: Short`
	Fields  []FieldSpec
	IDField int // index into Fields, -1 when the record has no identifier
	Extends []string

	byKey map[string]int
	attrs string
}

// NewRecordType validates the field list and indexes it. idKey names the
// identifier field ("" for none).
func NewRecordType(name string, class bool, idKey string, fields []FieldSpec) (*RecordType, error) {
	rt := &RecordType{
		Name:    name,
		Short:   uri.ShortName(name),
		Class:   class,
		Fields:  fields,
		IDField: -1,
		byKey:   make(map[string]int, len(fields)),
	}
	names := make([]string, 0, len(fields)+1)
	if class {
		names = append(names, "`class`")
	}
	for i, f := range fields {
		if f.Type == nil {
			return nil, fmt.Errorf("record %s: field %q has no type", name, f.Key)
		}
		if _, dup := rt.byKey[f.Key]; dup || (class && f.Key == "class") {
			return nil, fmt.Errorf("record %s: duplicate field %q", name, f.Key)
		}
		rt.byKey[f.Key] = i
		if f.Key == idKey {
			rt.IDField = i
		}
		names = append(names, "`"+f.Key+"`")
	}
	if idKey != "" && rt.IDField < 0 {
		return nil, fmt.Errorf("record %s: identifier field %q is not declared", name, idKey)
	}
	rt.attrs = strings.Join(names, ", ")
	return rt, nil
}

// Field returns the declaration of the field with the given key or full
// name.
func (rt *RecordType) Field(name string) (FieldSpec, bool) {
	i, ok := rt.index(name)
	if !ok {
		return FieldSpec{}, false
	}
	return rt.Fields[i], true
}

func (rt *RecordType) index(name string) (int, bool) {
	if i, ok := rt.byKey[name]; ok {
		return i, true
	}
	for i, f := range rt.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (rt *RecordType) classMatches(v any, sc Scope) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if s == rt.Short || s == rt.Name {
		return true
	}
	full, ok := sc.vocab().Lookup(s)
	return ok && full == rt.Name
}

// Load decodes doc into a *Record. A class mismatch is returned on its own
// so that unions can move on; every other problem is collected and
// reported under one record error.
func (rt *RecordType) Load(doc any, sc Scope) (any, error) {
	src, ok := doc.(map[string]any)
	if !ok {
		return nil, sc.fail(CodeInvalidType, map[string]string{"expected": "mapping (" + rt.Short + ")", "got": typeName(doc)})
	}
	m := make(map[string]any, len(src))
	for k, v := range src {
		m[k] = v
	}

	if rt.Class && !rt.classMatches(m["class"], sc) {
		return nil, sc.Field("class").fail(CodeClassMismatch, map[string]string{"expected": rt.Short, "class": fmt.Sprint(m["class"])})
	}

	rec := &Record{Type: rt, slots: make([]any, len(rt.Fields))}
	var errs []*ValidationError
	base := sc.BaseURI

	if rt.IDField >= 0 {
		f := rt.Fields[rt.IDField]
		var id any
		if raw, ok := m[f.Key]; ok {
			v, err := f.Type.Loader.Load(raw, sc.Field(f.Key))
			if err != nil {
				errs = append(errs, fieldError(f, sc, err))
			}
			id = v
		}
		if id == nil && len(errs) == 0 {
			switch {
			case sc.DocRoot != "":
				id = sc.DocRoot
			case f.Optional:
				id = "_:" + uuid.NewString()
				sc.Options.logger().WithField("record", rt.Short).Debugf("synthesized blank id %s", id)
			default:
				errs = append(errs, fieldError(f, sc, sc.Field(f.Key).fail(CodeRequired, map[string]string{"field": f.Key})))
			}
		}
		if s, ok := id.(string); ok {
			base = s
		}
		rec.slots[rt.IDField] = id
	}

	fsc := sc.WithBase(base)
	for i, f := range rt.Fields {
		if i == rt.IDField {
			continue
		}
		raw, ok := m[f.Key]
		if !ok {
			if !f.Optional {
				errs = append(errs, fieldError(f, fsc, fsc.Field(f.Key).fail(CodeRequired, map[string]string{"field": f.Key})))
			}
			continue
		}
		v, err := f.Type.Loader.Load(raw, fsc.Field(f.Key))
		if err != nil {
			errs = append(errs, fieldError(f, fsc, err))
			continue
		}
		rec.slots[i] = v
	}

	for _, k := range rt.undeclared(m) {
		if strings.Contains(k, ":") {
			full, err := uri.Expand(k, "", sc.vocab(), uri.ExpandOptions{})
			if err != nil {
				full = k
			}
			if rec.Extensions == nil {
				rec.Extensions = map[string]any{}
			}
			rec.Extensions[full] = m[k]
			continue
		}
		errs = append(errs, sc.Field(k).fail(CodeInvalidField, map[string]string{"field": k, "fields": rt.attrs}))
		break
	}

	if len(errs) > 0 {
		return nil, sc.fail(CodeRecordInvalid, map[string]string{"record": rt.Short}, errs...)
	}
	rec.Options = sc.Options.snapshot(src)
	return rec, nil
}

// undeclared returns the keys of m that are not fields, in sorted order.
func (rt *RecordType) undeclared(m map[string]any) []string {
	var out []string
	for k := range m {
		if _, ok := rt.byKey[k]; ok {
			continue
		}
		if rt.Class && k == "class" {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fieldError(f FieldSpec, sc Scope, err error) *ValidationError {
	fsc := sc.Field(f.Key)
	return fsc.fail(CodeFieldInvalid, map[string]string{"field": f.Key}, asValidation(err, fsc))
}

// Record is a loaded document object: one slot per declared field plus
// the namespaced extension fields found in the document.
type Record struct {
	Type       *RecordType
	Extensions map[string]any
	Options    *LoadingOptions

	slots []any
}

// NewRecord returns an empty record of type rt.
func NewRecord(rt *RecordType, lo *LoadingOptions) *Record {
	return &Record{Type: rt, Options: lo, slots: make([]any, len(rt.Fields))}
}

// Get returns the value of a field by key or full name. Unset optional
// fields report nil, true.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.Type.index(name)
	if !ok {
		return nil, false
	}
	return r.slots[i], true
}

// Set stores v in a declared field. v must be an in-memory value as
// produced by Load.
func (r *Record) Set(name string, v any) error {
	i, ok := r.Type.index(name)
	if !ok {
		return fmt.Errorf("record %s has no field %q", r.Type.Short, name)
	}
	r.slots[i] = v
	return nil
}

// ID returns the resolved identifier, or "" when the type has none.
func (r *Record) ID() string {
	if r.Type.IDField < 0 {
		return ""
	}
	s, _ := r.slots[r.Type.IDField].(string)
	return s
}

// Class returns the class name written for this record.
func (r *Record) Class() string { return r.Type.Short }

// Fields returns the keys of the set fields in declaration order.
func (r *Record) Fields() []string {
	out := make([]string, 0, len(r.slots))
	for i, v := range r.slots {
		if v != nil {
			out = append(out, r.Type.Fields[i].Key)
		}
	}
	return out
}

// Save converts the record back into a plain mapping. The identifier is
// written relative to so.BaseURL and every other reference relative to
// the record's own identifier.
func (r *Record) Save(so SaveOptions) (map[string]any, error) {
	if so.Vocab == nil && r.Options != nil {
		so.Vocab = r.Options.Vocabulary()
	}
	out := make(map[string]any, len(r.slots)+len(r.Extensions)+1)
	for k, v := range r.Extensions {
		sv, err := Save(v, so.nested())
		if err != nil {
			return nil, err
		}
		out[k] = sv
	}
	if r.Type.Class {
		out["class"] = r.Type.Short
	}

	fieldBase := so.BaseURL
	if id := r.ID(); id != "" {
		fieldBase = id
	}
	for i, f := range r.Type.Fields {
		v := r.slots[i]
		if v == nil {
			continue
		}
		fso := so.nested().WithBase(fieldBase)
		if i == r.Type.IDField {
			fso = so.nested()
		}
		sv, err := f.Type.Loader.Save(v, fso)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.Type.Short, f.Key, err)
		}
		if s, ok := sv.(string); ok && s == "" && f.Type.IsURI {
			continue
		}
		out[f.Key] = sv
	}

	if so.Top && r.Options != nil {
		if len(r.Options.Namespaces) > 0 {
			ns := make(map[string]any, len(r.Options.Namespaces))
			for k, v := range r.Options.Namespaces {
				ns[k] = v
			}
			out["$namespaces"] = ns
		}
		if len(r.Options.Schemas) > 0 {
			schemas := make([]any, len(r.Options.Schemas))
			for i, s := range r.Options.Schemas {
				schemas[i] = s
			}
			out["$schemas"] = schemas
		}
	}
	return out, nil
}

// RecordLoader loads a record type by name. The body is looked up in the
// registry at load time, so loaders may refer to records that are bound
// later, including their own.
type RecordLoader struct {
	Name string

	reg *Registry
}

func NewRecordLoader(name string, reg *Registry) *RecordLoader {
	return &RecordLoader{Name: name, reg: reg}
}

func (l *RecordLoader) Load(doc any, sc Scope) (any, error) {
	rt, ok := l.reg.Record(l.Name)
	if !ok {
		return nil, sc.fail(CodeUnknownRecord, map[string]string{"record": l.Name})
	}
	return rt.Load(doc, sc)
}

func (l *RecordLoader) Save(v any, so SaveOptions) (any, error) {
	if rec, ok := v.(*Record); ok {
		return rec.Save(so)
	}
	return Save(v, so)
}

func (l *RecordLoader) accepts(v any) bool {
	rec, ok := v.(*Record)
	return ok && rec.Type.Name == l.Name
}
