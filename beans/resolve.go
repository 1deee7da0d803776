package beans

import (
	"reflect"
	"sync"
)

// Resolver locates a type by tag. It is consulted for tags with no alias.
type Resolver func(tag string) (reflect.Type, bool)

// knownTypes maps canonical names to the types seen by any mapper in the
// process: registrations, catalog computations and encoded values.
var knownTypes sync.Map

// baseType strips pointer indirections.
func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName returns the canonical name of t: its package path and name,
// such as "github.com/signadot/beanmap/beans.Catalog". Unnamed types use
// their Go syntax.
func TypeName(t reflect.Type) string {
	t = baseType(t)
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// know records a named type, and the named types it is built from, in
// the process-wide registry.
func know(t reflect.Type) {
	t = baseType(t)
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		know(t.Elem())
		return
	case reflect.Map:
		know(t.Key())
		know(t.Elem())
		return
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return
	}
	knownTypes.LoadOrStore(TypeName(t), t)
}

// KnownType is the default Resolver. It finds types by canonical name
// among the types the process has registered or cataloged.
func KnownType(name string) (reflect.Type, bool) {
	v, ok := knownTypes.Load(name)
	if !ok {
		return nil, false
	}
	return v.(reflect.Type), true
}

// AddAlias registers tag as the external name of t. For encoding the last
// alias registered for a type wins; every registered alias decodes to its
// type.
func (m *Mapper) AddAlias(t reflect.Type, tag string) {
	t = baseType(t)
	know(t)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byType[t] = tag
	m.byTag[tag] = t
}

// TagFor returns the type tag written for t.
func (m *Mapper) TagFor(t reflect.Type) string {
	t = baseType(t)
	m.mu.RLock()
	tag, ok := m.byType[t]
	m.mu.RUnlock()
	if ok {
		return tag
	}
	return TypeName(t)
}

// TypeFor resolves a type tag: aliases first, then the resolver.
func (m *Mapper) TypeFor(tag string) (reflect.Type, bool) {
	m.mu.RLock()
	t, ok := m.byTag[tag]
	m.mu.RUnlock()
	if ok {
		return t, true
	}
	t, ok = m.resolver(tag)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

// assignable reports whether a value of type actual may stand where
// expected is declared.
func assignable(actual, expected reflect.Type) bool {
	a, e := baseType(actual), baseType(expected)
	if e.Kind() == reflect.Interface {
		return a.Implements(e) || reflect.PointerTo(a).Implements(e)
	}
	return a == e
}

// concrete returns the type a value declared as t is built as: t without
// pointers, or the default implementation of an interface.
func (m *Mapper) concrete(t reflect.Type) reflect.Type {
	t = baseType(t)
	if t.Kind() != reflect.Interface {
		return t
	}
	m.mu.RLock()
	spec := m.specs[t]
	m.mu.RUnlock()
	if spec != nil && spec.impl != nil {
		return spec.impl
	}
	return t
}

// fit turns v into a value of type t, adding or removing pointers and
// boxing into interfaces. Interfaces hold the value itself when it
// implements them, else a pointer to it.
func fit(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), true
	}
	if v.Type() == t {
		return v, true
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		v = v.Elem()
	}
	vt := v.Type()
	switch {
	case vt == t:
		return v, true
	case vt.AssignableTo(t) && t.Kind() != reflect.Interface:
		return v.Convert(t), true
	}
	if v.Kind() == reflect.Pointer && t.Kind() != reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		return fit(v.Elem(), t)
	}
	switch t.Kind() {
	case reflect.Interface:
		if v.Kind() == reflect.Pointer && !v.IsNil() && !vt.Implements(t) {
			return fit(v.Elem(), t)
		}
		res := reflect.New(t).Elem()
		if vt.Implements(t) {
			res.Set(v)
			return res, true
		}
		if reflect.PointerTo(vt).Implements(t) {
			res.Set(addr(v))
			return res, true
		}
		return reflect.Value{}, false
	case reflect.Pointer:
		inner, ok := fit(v, t.Elem())
		if !ok {
			return reflect.Value{}, false
		}
		return addr(inner), true
	}
	if convertible(vt, t) {
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}

// convertible allows conversions between types of the same kind and
// between numeric kinds.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return from.Kind() == to.Kind() || (isNumber(from.Kind()) && isNumber(to.Kind()))
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// addr returns a pointer to v, copying it when it is not addressable.
func addr(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
