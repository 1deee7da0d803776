package beans

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Mapper maps between documents and typed values. A Mapper is safe for
// concurrent use; its caches are filled on first use of each type.
type Mapper struct {
	log         *zap.Logger
	resolver    Resolver
	skipUnknown bool
	omitTag     bool
	ignored     map[reflect.Type]bool
	adapters    map[reflect.Type]Adapter
	fallback    Fallback
	pending     []*TypeSpec

	mu     sync.RWMutex
	byType map[reflect.Type]string
	byTag  map[string]reflect.Type
	specs  map[reflect.Type]*TypeSpec

	catalogs     sync.Map // reflect.Type -> *catalogEntry
	adapterCache sync.Map // reflect.Type -> *Adapter
}

type catalogEntry struct {
	cat *Catalog
	err error
}

// NewMapper creates a Mapper. It fails when a registered type cannot be
// cataloged.
func NewMapper(opts ...Option) (*Mapper, error) {
	m := &Mapper{
		log:      zap.NewNop(),
		resolver: KnownType,
		ignored:  map[reflect.Type]bool{},
		adapters: map[reflect.Type]Adapter{},
		fallback: defaultFallback{},
		byType:   map[reflect.Type]string{},
		byTag:    map[string]reflect.Type{},
		specs:    map[reflect.Type]*TypeSpec{},
	}
	for _, opt := range opts {
		opt(m)
	}
	pending := m.pending
	m.pending = nil
	var errs []error
	for _, spec := range pending {
		if err := m.Register(spec); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// MustNewMapper is NewMapper for registrations known to be valid.
func MustNewMapper(opts ...Option) *Mapper {
	m, err := NewMapper(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

var defaultMapper = MustNewMapper()

// DefaultMapper returns the Mapper used by the package level functions.
func DefaultMapper() *Mapper { return defaultMapper }

// Logger returns the mapper's logger.
func (m *Mapper) Logger() *zap.Logger { return m.log }

// Register adds a type registration. Struct types are cataloged right
// away so that inconsistent registrations fail here rather than on first
// use. A type must be registered before it is first cataloged.
func (m *Mapper) Register(spec *TypeSpec) error {
	t := spec.typ
	if err := spec.err(); err != nil {
		return &UncatalogableError{Type: t, Message: "invalid registration", Err: err}
	}
	m.mu.Lock()
	if _, done := m.catalogs.Load(t); done {
		m.mu.Unlock()
		return &UncatalogableError{Type: t, Message: "registered after first use"}
	}
	if _, dup := m.specs[t]; dup {
		m.mu.Unlock()
		return &UncatalogableError{Type: t, Message: "registered twice"}
	}
	m.specs[t] = spec
	m.mu.Unlock()

	switch t.Kind() {
	case reflect.Struct:
		_, err := m.Properties(t)
		return err
	case reflect.Interface:
		if len(spec.ctors) > 0 || len(spec.accessors) > 0 {
			return &UncatalogableError{Type: t, Message: "interfaces take only a default implementation"}
		}
		return nil
	default:
		return &UncatalogableError{Type: t, Message: fmt.Sprintf("cannot register %s types", t.Kind())}
	}
}

// Properties returns the catalog of t, computing it on first use.
// Concurrent first uses may compute it more than once; one result is kept.
// The read lock is held from reading the registration to storing the
// catalog, so Register either sees the catalog or is seen by it.
func (m *Mapper) Properties(t reflect.Type) (*Catalog, error) {
	t = baseType(t)
	if e, ok := m.catalogs.Load(t); ok {
		entry := e.(*catalogEntry)
		return entry.cat, entry.err
	}
	m.mu.RLock()
	cat, err := buildCatalog(t, m.specs[t])
	e, _ := m.catalogs.LoadOrStore(t, &catalogEntry{cat: cat, err: err})
	m.mu.RUnlock()
	entry := e.(*catalogEntry)
	return entry.cat, entry.err
}

// isFallback reports whether values of base type t bypass the bean path.
func (m *Mapper) isFallback(t reflect.Type) bool {
	if m.ignored[t] || t == irNodeType {
		return true
	}
	switch t.Kind() {
	case reflect.Struct:
		return handlesIR(t)
	case reflect.Interface:
		return false
	default:
		return true
	}
}
