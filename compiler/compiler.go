package compiler

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	salad "github.com/reoring/salad"
	"github.com/reoring/salad/schema"
	"github.com/reoring/salad/uri"
)

// Compile builds a Program from resolved declarations. All schema errors
// found in the list are reported together as a *multierror.Error of
// *salad.SchemaError values.
func Compile(types []schema.Type, opts Options) (*salad.Program, error) {
	c := &compiler{
		opts:     opts,
		log:      opts.logger(),
		reg:      salad.NewRegistry(),
		vocab:    uri.NewVocabulary(),
		records:  map[string]*schema.Record{},
		enums:    map[string]*schema.Enum{},
		children: map[string][]string{},
	}
	for _, t := range types {
		c.index(t)
	}
	for _, r := range c.recordOrder {
		for _, p := range r.Extends {
			c.children[p] = append(c.children[p], r.Name)
		}
	}
	for _, r := range c.recordOrder {
		if !r.Abstract {
			c.emitRecord(r)
		}
	}
	root := c.rootLoader()
	if err := c.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"typedefs": c.reg.Len(), "records": len(c.reg.Records())}).Debug("schema compiled")
	return salad.NewProgram(c.reg, c.vocab, root), nil
}

type compiler struct {
	opts Options
	log  logrus.FieldLogger

	reg   *salad.Registry
	vocab *uri.Vocabulary

	records     map[string]*schema.Record
	enums       map[string]*schema.Enum
	recordOrder []*schema.Record
	children    map[string][]string

	errs *multierror.Error
}

func (c *compiler) fail(typ, field, format string, args ...any) {
	c.errs = multierror.Append(c.errs, &salad.SchemaError{Type: typ, Field: field, Message: fmt.Sprintf(format, args...)})
}

// index registers every named record and enum, including those declared
// inline in field types, and their vocabulary terms.
func (c *compiler) index(t schema.Type) {
	switch x := t.(type) {
	case *schema.Record:
		if prev, ok := c.records[x.Name]; ok {
			if prev != x {
				c.fail(x.Name, "", "duplicate record declaration")
			}
			return
		}
		if _, ok := c.enums[x.Name]; ok {
			c.fail(x.Name, "", "name is already declared as an enum")
			return
		}
		c.records[x.Name] = x
		c.recordOrder = append(c.recordOrder, x)
		c.addTerm(x.Name)
		for _, f := range x.Fields {
			c.index(f.Type)
		}
	case *schema.Enum:
		if prev, ok := c.enums[x.Name]; ok {
			if prev != x {
				c.fail(x.Name, "", "duplicate enum declaration")
			}
			return
		}
		if _, ok := c.records[x.Name]; ok {
			c.fail(x.Name, "", "name is already declared as a record")
			return
		}
		c.enums[x.Name] = x
		c.addTerm(x.Name)
		for _, s := range x.Symbols {
			c.addTerm(s)
		}
	case *schema.Array:
		c.index(x.Items)
	case schema.Union:
		for _, a := range x.Alternatives {
			c.index(a)
		}
	}
}

func (c *compiler) addTerm(name string) {
	if err := c.vocab.Register(uri.ShortName(name), name); err != nil {
		c.fail(name, "", "%v", err)
	}
}

// compile returns the TypeDef of a type expression. Errors are recorded and
// an Any placeholder returned so that the rest of the list is still
// checked.
func (c *compiler) compile(t schema.Type, owner, field string) *salad.TypeDef {
	switch x := t.(type) {
	case schema.Primitive:
		return c.reg.Primitive(x.Kind)
	case schema.Named:
		return c.named(x.Name, owner, field)
	case *schema.Array:
		items := c.compile(x.Items, owner, field)
		return c.reg.Intern("array<"+items.Name+">", salad.TypeFlags{}, func() salad.Loader {
			return salad.NewArrayLoader(items.Loader)
		})
	case schema.Union:
		alts := make([]*salad.TypeDef, 0, len(x.Alternatives))
		for _, a := range x.Alternatives {
			alts = append(alts, c.compile(a, owner, field))
		}
		return c.union(alts)
	case *schema.Enum:
		return c.enum(x)
	case *schema.Record:
		return c.recordRef(x, owner, field)
	case nil:
		c.fail(owner, field, "missing type")
	default:
		c.fail(owner, field, "unsupported type %T", t)
	}
	return c.reg.Primitive(salad.KindAny)
}

func (c *compiler) named(name, owner, field string) *salad.TypeDef {
	if k, ok := schema.ParsePrimitive(name); ok {
		return c.reg.Primitive(k)
	}
	full := name
	if _, ok := c.records[full]; !ok {
		if _, ok := c.enums[full]; !ok {
			if f, ok := c.vocab.Lookup(name); ok {
				full = f
			}
		}
	}
	if r, ok := c.records[full]; ok {
		return c.recordRef(r, owner, field)
	}
	if e, ok := c.enums[full]; ok {
		return c.enum(e)
	}
	c.fail(owner, field, "unknown type %q", name)
	return c.reg.Primitive(salad.KindAny)
}

func (c *compiler) union(alts []*salad.TypeDef) *salad.TypeDef {
	names := make([]string, len(alts))
	loaders := make([]salad.Loader, len(alts))
	for i, a := range alts {
		names[i] = a.Name
		loaders[i] = a.Loader
	}
	return c.reg.Intern("union<"+strings.Join(names, ",")+">", salad.TypeFlags{}, func() salad.Loader {
		return salad.NewUnionLoader(loaders...)
	})
}

func (c *compiler) enum(e *schema.Enum) *salad.TypeDef {
	return c.reg.Intern("enum:"+e.Name, salad.TypeFlags{}, func() salad.Loader {
		return salad.NewEnumLoader(e.Name, e.Symbols)
	})
}

// recordRef returns the loader of a record by name. An abstract record
// stands for the union of its concrete descendants.
func (c *compiler) recordRef(r *schema.Record, owner, field string) *salad.TypeDef {
	if !r.Abstract {
		return c.reg.Intern("record:"+r.Name, salad.TypeFlags{}, func() salad.Loader {
			return salad.NewRecordLoader(r.Name, c.reg)
		})
	}
	concrete := c.concreteDescendants(r.Name)
	if len(concrete) == 0 {
		c.fail(owner, field, "abstract record %q has no concrete subtype", r.Name)
		return c.reg.Primitive(salad.KindAny)
	}
	alts := make([]*salad.TypeDef, len(concrete))
	for i, cr := range concrete {
		alts[i] = c.recordRef(cr, owner, field)
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return c.union(alts)
}

func (c *compiler) concreteDescendants(name string) []*schema.Record {
	var out []*schema.Record
	seen := map[string]bool{name: true}
	var walk func(string)
	walk = func(n string) {
		for _, child := range c.children[n] {
			if seen[child] {
				continue
			}
			seen[child] = true
			if r := c.records[child]; !r.Abstract {
				out = append(out, r)
			}
			walk(child)
		}
	}
	walk(name)
	return out
}

func refScopeName(rs *int) string {
	if rs == nil {
		return "none"
	}
	return fmt.Sprint(*rs)
}

func (c *compiler) uriLoader(inner *salad.TypeDef, scoped, vocab bool, refScope *int) *salad.TypeDef {
	name := fmt.Sprintf("uri<%s,%t,%t,%s>", inner.Name, scoped, vocab, refScopeName(refScope))
	flags := salad.TypeFlags{IsURI: true, ScopedID: scoped, VocabTerm: vocab, RefScope: refScope}
	return c.reg.Intern(name, flags, func() salad.Loader {
		return salad.NewURILoader(inner.Loader, scoped, vocab, refScope)
	})
}

func (c *compiler) idMapLoader(inner *salad.TypeDef, subject, predicate string) *salad.TypeDef {
	name := fmt.Sprintf("idmap<%s,%s,%s>", inner.Name, subject, predicate)
	return c.reg.Intern(name, inner.TypeFlags, func() salad.Loader {
		return salad.NewIDMapLoader(inner.Loader, subject, predicate)
	})
}

func (c *compiler) typeDSLLoader(inner *salad.TypeDef, refScope *int) *salad.TypeDef {
	name := fmt.Sprintf("typedsl<%s,%s>", inner.Name, refScopeName(refScope))
	rule := c.opts.typeDSL()
	return c.reg.Intern(name, inner.TypeFlags, func() salad.Loader {
		return salad.NewTypeDSLLoader(inner.Loader, refScope, rule)
	})
}

// fieldType compiles a field's type and applies the wrappers its
// linked-data metadata asks for.
func (c *compiler) fieldType(r *schema.Record, f schema.Field) *salad.TypeDef {
	key := f.Key()
	td := c.compile(f.Type, r.Name, key)
	ld := f.JSONLD
	if ld.Identifier {
		return c.uriLoader(td, true, false, nil)
	}
	switch {
	case ld.TypeDSL:
		td = c.typeDSLLoader(td, ld.RefScope)
	case ld.URI == schema.URIID:
		td = c.uriLoader(td, ld.Identity, false, ld.RefScope)
	case ld.URI == schema.URIVocab:
		td = c.uriLoader(td, false, true, ld.RefScope)
	}
	switch {
	case ld.MapSubject != "":
		if !hasArray(f.Type) {
			c.fail(r.Name, key, "mapSubject %q requires an array type", ld.MapSubject)
			return td
		}
		td = c.idMapLoader(td, ld.MapSubject, ld.MapPredicate)
	case ld.MapPredicate != "":
		c.fail(r.Name, key, "mapPredicate %q without mapSubject", ld.MapPredicate)
	}
	return td
}

func hasArray(t schema.Type) bool {
	switch x := t.(type) {
	case *schema.Array:
		return true
	case schema.Union:
		for _, a := range x.Alternatives {
			if hasArray(a) {
				return true
			}
		}
	}
	return false
}

// emitRecord builds and binds the record unit of a concrete record.
func (c *compiler) emitRecord(r *schema.Record) {
	var (
		specs []salad.FieldSpec
		class bool
		idKey string
	)
	for _, f := range r.Fields {
		key := f.Key()
		if key == "class" {
			class = true
			continue
		}
		if f.JSONLD.Identifier {
			if idKey != "" {
				c.fail(r.Name, key, "second identifier field (already %q)", idKey)
				continue
			}
			idKey = key
		}
		specs = append(specs, salad.FieldSpec{Name: f.Name, Key: key, Type: c.fieldType(r, f), Optional: f.Optional()})
	}
	rt, err := salad.NewRecordType(r.Name, class, idKey, specs)
	if err != nil {
		c.errs = multierror.Append(c.errs, &salad.SchemaError{Type: r.Name, Message: "invalid record", Cause: err})
		return
	}
	rt.Extends = append([]string(nil), r.Extends...)
	if err := c.reg.BindRecord(rt); err != nil {
		c.errs = multierror.Append(c.errs, &salad.SchemaError{Type: r.Name, Message: "cannot bind record", Cause: err})
		return
	}
	c.log.WithFields(logrus.Fields{"record": rt.Short, "fields": len(specs)}).Debug("record bound")
}

// rootLoader accepts one root record or a list of them.
func (c *compiler) rootLoader() *salad.TypeDef {
	var roots []*schema.Record
	if len(c.opts.RootTypes) > 0 {
		for _, n := range c.opts.RootTypes {
			full := n
			if f, ok := c.vocab.Lookup(n); ok {
				full = f
			}
			r, ok := c.records[full]
			if !ok {
				c.fail(n, "", "root type is not a declared record")
				continue
			}
			roots = append(roots, r)
		}
	} else {
		for _, r := range c.recordOrder {
			if r.DocumentRoot {
				roots = append(roots, r)
			}
		}
		if len(roots) == 0 {
			for _, r := range c.recordOrder {
				if !r.Abstract {
					roots = append(roots, r)
				}
			}
		}
	}
	if len(roots) == 0 {
		c.log.Warn("schema declares no loadable record; documents load as Any")
		return c.reg.Primitive(salad.KindAny)
	}

	var alts []*salad.TypeDef
	seen := map[string]bool{}
	for _, r := range roots {
		td := c.recordRef(r, r.Name, "")
		if !seen[td.Name] {
			seen[td.Name] = true
			alts = append(alts, td)
		}
	}
	one := alts[0]
	if len(alts) > 1 {
		one = c.union(alts)
	}
	list := c.reg.Intern("array<"+one.Name+">", salad.TypeFlags{}, func() salad.Loader {
		return salad.NewArrayLoader(one.Loader)
	})
	return c.union(append(append([]*salad.TypeDef(nil), alts...), list))
}
