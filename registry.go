package salad

import (
	"fmt"
	"sync"
)

// Registry interns TypeDefs by canonical name and binds record bodies to
// their names. It is populated once by the compiler and read-only
// afterwards; reads are safe from concurrent loads.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]*TypeDef
	order   []*TypeDef
	records map[string]*RecordType
	rorder  []*RecordType
}

// NewRegistry returns a registry holding the primitive TypeDefs.
func NewRegistry() *Registry {
	r := &Registry{defs: map[string]*TypeDef{}, records: map[string]*RecordType{}}
	for _, k := range primitiveKinds {
		r.Intern(k.String(), TypeFlags{}, func() Loader { return NewPrimitiveLoader(k) })
	}
	return r
}

// Intern returns the TypeDef registered under name, building and
// registering it when absent. build must not call back into the registry
// for the same name.
func (r *Registry) Intern(name string, flags TypeFlags, build func() Loader) *TypeDef {
	r.mu.RLock()
	td, ok := r.defs[name]
	r.mu.RUnlock()
	if ok {
		return td
	}
	l := build()
	r.mu.Lock()
	defer r.mu.Unlock()
	if td, ok := r.defs[name]; ok {
		return td
	}
	td = &TypeDef{Name: name, Loader: l, TypeFlags: flags}
	r.defs[name] = td
	r.order = append(r.order, td)
	return td
}

func (r *Registry) Lookup(name string) (*TypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	td, ok := r.defs[name]
	return td, ok
}

// Primitive returns the shared TypeDef of a primitive kind.
func (r *Registry) Primitive(k PrimitiveKind) *TypeDef {
	td, _ := r.Lookup(k.String())
	return td
}

// TypeDefs returns every interned TypeDef in registration order.
func (r *Registry) TypeDefs() []*TypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*TypeDef(nil), r.order...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// BindRecord attaches a record body to its name. Record loaders created
// before the body exists resolve it at load time.
func (r *Registry) BindRecord(rt *RecordType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rt.Name]; ok {
		return fmt.Errorf("record %q already bound", rt.Name)
	}
	r.records[rt.Name] = rt
	r.rorder = append(r.rorder, rt)
	return nil
}

func (r *Registry) Record(name string) (*RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.records[name]
	return rt, ok
}

// Records returns the bound record types in binding order.
func (r *Registry) Records() []*RecordType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*RecordType(nil), r.rorder...)
}
